package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/roster/internal/config"
)

// NewRedis builds the client that holds sessions and flash messages and
// blocks until Redis answers or cfg.Connect gives up.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := newWaiter("redis", cfg.Connect).wait(ctx, ping); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
