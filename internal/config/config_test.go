package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultServerPort, cfg.Server.Port)
	assert.Equal(t, defaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, defaultFeedTimeout, cfg.Feed.Timeout)
	assert.Equal(t, defaultFeedMaxAttempts, cfg.Feed.MaxAttempts)
	assert.Equal(t, defaultSyncBatchSize, cfg.Sync.BatchSize)
	assert.Equal(t, defaultRetentionDays, cfg.Retention.Days)
	assert.Equal(t, defaultRetentionLookback, cfg.Retention.Lookback)
	assert.Equal(t, defaultCacheTTL, cfg.Cache.TTL)
	assert.Equal(t, defaultSignedURLTTLMinutes, cfg.Storage.SignedURLTTLMinutes)
	assert.Empty(t, cfg.Cache.RedisAddr)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EPGSYNC_SERVER_PORT", "9090")
	t.Setenv("EPGSYNC_FEED_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "UTC", cfg.Feed.Timezone)
	assert.Equal(t, time.UTC, cfg.FeedLocation())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"bad feed timeout", func(c *Config) { c.Feed.Timeout = -time.Second }},
		{"zero attempts", func(c *Config) { c.Feed.MaxAttempts = 0 }},
		{"bad timezone", func(c *Config) { c.Feed.Timezone = "Mars/Olympus" }},
		{"zero batch size", func(c *Config) { c.Sync.BatchSize = 0 }},
		{"zero retention days", func(c *Config) { c.Retention.Days = 0 }},
		{"lookback below window", func(c *Config) { c.Retention.Lookback = 3 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero signed url ttl", func(c *Config) { c.Storage.SignedURLTTLMinutes = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
