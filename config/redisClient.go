package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a pinged client, or nil when Redis is not configured.
func ConnectRedis(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if !cfg.Enabled() {
		logger.Warn("REDIS_ADDRESS not set; rate limiting and stats cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	logger.Info("connected to Redis", slog.String("address", cfg.Address))
	return client, nil
}
