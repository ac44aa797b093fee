package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telemat/epgsync/internal/config"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client), mr
}

func TestRedis_SetGetDelete(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	r.Set(ctx, "channels:all", "payload", time.Minute)

	got, ok := r.Get(ctx, "channels:all")
	require.True(t, ok)
	assert.Equal(t, "payload", got)

	r.Delete(ctx, "channels:all")
	_, ok = r.Get(ctx, "channels:all")
	assert.False(t, ok)
}

func TestRedis_GetMiss(t *testing.T) {
	r, _ := setupRedis(t)

	_, ok := r.Get(context.Background(), "missing")
	assert.False(t, ok)
}

func TestRedis_TTL(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	r.Set(ctx, "k", "v", time.Second)

	_, ok := r.Get(ctx, "k")
	assert.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok = r.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedis_ClearPattern(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	r.Set(ctx, "programs:20250101:x", "v", time.Minute)
	r.Set(ctx, "channels:y", "v", time.Minute)

	r.Clear(ctx, "programs:*")

	_, ok := r.Get(ctx, "programs:20250101:x")
	assert.False(t, ok)
	_, ok = r.Get(ctx, "channels:y")
	assert.True(t, ok)
}

func TestRedis_ClearManyKeysBatched(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	// More keys than one delete batch holds.
	for i := 0; i < 250; i++ {
		r.Set(ctx, fmt.Sprintf("programs:%d", i), "v", time.Minute)
	}
	r.Set(ctx, "channels:keep", "v", time.Minute)

	r.Clear(ctx, "programs:*")

	for i := 0; i < 250; i++ {
		_, ok := r.Get(ctx, fmt.Sprintf("programs:%d", i))
		assert.False(t, ok, "key %d should be gone", i)
	}
	_, ok := r.Get(ctx, "channels:keep")
	assert.True(t, ok)
}

func TestRedis_ClearAll(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	r.Set(ctx, "a", "v", time.Minute)
	r.Set(ctx, "b", "v", time.Minute)

	r.Clear(ctx, "")

	_, ok := r.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = r.Get(ctx, "b")
	assert.False(t, ok)
}

func TestRedis_ErrorsSwallowed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := NewRedis(client)
	ctx := context.Background()

	r.Set(ctx, "k", "v", time.Minute)
	mr.Close()

	// A dead backend degrades to misses and no-ops, never errors or panics.
	_, ok := r.Get(ctx, "k")
	assert.False(t, ok)
	r.Set(ctx, "k2", "v", time.Minute)
	r.Delete(ctx, "k")
	r.Clear(ctx, "programs:*")
}

func TestFactory_FallsBackToMemory(t *testing.T) {
	// No address configured.
	c := New(&config.CacheConfig{})
	_, isMemory := c.(*Memory)
	assert.True(t, isMemory)

	// Address configured but unreachable.
	c = New(&config.CacheConfig{RedisAddr: "127.0.0.1:1"})
	_, isMemory = c.(*Memory)
	assert.True(t, isMemory)
}

func TestFactory_SelectsRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c := New(&config.CacheConfig{RedisAddr: mr.Addr()})
	_, isRedis := c.(*Redis)
	assert.True(t, isRedis)
}
