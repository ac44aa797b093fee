// Package cache provides a uniform key/value cache contract with two
// interchangeable backends: an in-process TTL map and a Redis client.
// The cache is an optimization layer over the repositories, never the
// source of truth; backend failures degrade to misses instead of errors.
package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/telemat/epgsync/internal/logger"
)

// Cache is the contract both backends satisfy. Clear takes a pattern with a
// single `*` wildcard; an empty pattern clears everything.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context, pattern string)
}

// SetJSON marshals value and stores it under key. Marshal failures are
// logged and dropped, matching the cache's best-effort contract.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("Failed to marshal cache value")
		return
	}
	c.Set(ctx, key, string(data), ttl)
}

// GetJSON retrieves and unmarshals a cached value into dest. A decode
// failure counts as a miss and evicts the corrupt entry.
func GetJSON(ctx context.Context, c Cache, key string, dest any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cache value")
		c.Delete(ctx, key)
		return false
	}
	return true
}
