package middleware

import (
	"fmt"
	"net/http"

	"photolab_miniapp/internal/cache"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// RateLimit counts requests per telegram user per route group in redis.
// Redis being unavailable fails open.
func RateLimit(limiter *cache.Limiter, group string, limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		telegramUser, ok := auth.UserFromContext(c)
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%d", group, telegramUser.ID)
		allowed, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			logger.Logger().Warn("rate limiter unavailable", zap.Error(err))
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
