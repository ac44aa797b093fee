package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/telemat/epgsync/internal/config"
	"github.com/telemat/epgsync/internal/logger"
)

const connectTimeout = 3 * time.Second

// New selects a cache backend. Redis is used when an address is configured
// and reachable; anything else falls back to the in-process backend so a
// missing cache server never fails startup.
func New(cfg *config.CacheConfig) Cache {
	if cfg == nil || cfg.RedisAddr == "" {
		logger.Log.Info().Msg("Using in-process cache backend")
		return NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("addr", cfg.RedisAddr).
			Msg("Redis unreachable, falling back to in-process cache")
		_ = client.Close()
		return NewMemory()
	}

	logger.Log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis cache backend")
	return NewRedis(client)
}
