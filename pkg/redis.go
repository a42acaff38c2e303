package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the catalog cache and checks it answers.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}
