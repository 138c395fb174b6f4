package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fxdesk/pkg/logger"
)

// NewRedis connects to the redis instance at redisURL
func NewRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Get().With("component", "redis").Infof("[OK] Redis connected at %s", opts.Addr)
	return client, nil
}
