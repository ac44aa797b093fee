package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/telemat/epgsync/internal/logger"
)

// scanBatchSize bounds how many keys a single Clear round-trip touches.
const scanBatchSize = 100

// Redis delegates to a remote Redis instance. Connection failures are
// swallowed and logged: a broken cache must never break a request, so a
// failed Get is just a miss.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an already-connected Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the value for key, treating any error as a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn().Err(err).Str("key", key).Msg("Redis get failed")
		}
		return "", false
	}
	return value, true
}

// Set stores value under key with the given TTL.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("Redis set failed")
	}
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("Redis delete failed")
	}
}

// Clear removes all keys matching pattern, or everything when the pattern
// is empty. It iterates with a SCAN cursor and deletes in bounded batches
// instead of blocking the server with a full-keyspace command.
func (r *Redis) Clear(ctx context.Context, pattern string) {
	match := pattern
	if match == "" {
		match = "*"
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			logger.Log.Warn().Err(err).Str("pattern", match).Msg("Redis scan failed")
			return
		}

		for start := 0; start < len(keys); start += scanBatchSize {
			end := start + scanBatchSize
			if end > len(keys) {
				end = len(keys)
			}
			if err := r.client.Del(ctx, keys[start:end]...).Err(); err != nil {
				logger.Log.Warn().Err(err).Str("pattern", match).Msg("Redis batch delete failed")
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}
