package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rootfleet/waitlist/internal/config"
)

// ConnectRedis creates the client backing the work queue and verifies connectivity.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}

	return rdb, nil
}
