package cache

import (
	"context"
	"fmt"
	"time"

	"photolab_miniapp/pkg/logger"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
}

func Connect(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Logger().Info("Connected to redis successfully")
	return rdb, nil
}

// Limiter is a fixed-window request counter.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration
}

func NewLimiter(rdb *redis.Client, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, window: window}
}

// Allow increments the counter for key and reports whether it is within
// limit. Redis being unreachable fails open: the request is allowed and the
// error returned for logging.
func (l *Limiter) Allow(ctx context.Context, key string, limit int64) (bool, error) {
	windowKey := fmt.Sprintf("rl:%s:%d", key, time.Now().Unix()/int64(l.window.Seconds()))

	count, err := l.rdb.Incr(ctx, windowKey).Result()
	if err != nil {
		return true, err
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, windowKey, l.window).Err(); err != nil {
			return true, err
		}
	}

	return count <= limit, nil
}
