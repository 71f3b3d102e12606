package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photolab",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photolab",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	paymentsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photolab",
			Subsystem: "payments",
			Name:      "confirmed_total",
			Help:      "Total number of confirmed payments.",
		},
		[]string{"method"},
	)

	jobsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photolab",
			Subsystem: "generation",
			Name:      "jobs_finished_total",
			Help:      "Total number of generation jobs finished.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, paymentsConfirmed, jobsFinished)
}

func ObservePaymentConfirmed(method string) {
	paymentsConfirmed.WithLabelValues(method).Inc()
}

func ObserveJobFinished(status string) {
	jobsFinished.WithLabelValues(status).Inc()
}

// Middleware records request counts and latencies per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
