// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort          = 8080
	defaultServerHost          = "0.0.0.0"
	defaultReadTimeout         = 30 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultDatabasePath        = "./data/epgsync.db"
	defaultLogLevel            = "info"
	defaultLogPretty           = false
	defaultFeedTimeout         = 30 * time.Second
	defaultFeedMaxAttempts     = 3
	defaultFeedTimezone        = "Europe/Warsaw"
	defaultSyncBatchSize       = 500
	defaultSyncSchedule        = "0 */6 * * *"
	defaultPrecomputeSchedule  = "30 4 * * *"
	defaultRetentionSchedule   = "0 5 * * *"
	defaultRetentionDays       = 7
	defaultRetentionLookback   = 30
	defaultCacheTTL            = 5 * time.Minute
	defaultSignedURLTTLMinutes = 360
	envPrefix                  = "EPGSYNC"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Feed      FeedConfig
	Sync      SyncConfig
	Retention RetentionConfig
	Cache     CacheConfig
	Storage   StorageConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// FeedConfig holds upstream EPG feed settings
type FeedConfig struct {
	URL         string
	Timeout     time.Duration
	Compressed  bool
	MaxAttempts int
	Timezone    string
}

// SyncConfig holds sync orchestration settings
type SyncConfig struct {
	BatchSize          int
	Schedule           string
	PrecomputeSchedule string
}

// RetentionConfig holds program pruning settings
type RetentionConfig struct {
	Days     int
	Lookback int
	Schedule string
}

// CacheConfig holds cache backend selection settings. An empty RedisAddr
// selects the in-process backend.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// StorageConfig holds object storage (S3-compatible) settings
type StorageConfig struct {
	Endpoint            string
	AccessKey           string
	SecretKey           string
	Bucket              string
	UseSSL              bool
	SignedURLTTLMinutes int
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/epgsync")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	v.SetDefault("database.path", defaultDatabasePath)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("feed.timeout", defaultFeedTimeout)
	v.SetDefault("feed.compressed", false)
	v.SetDefault("feed.maxattempts", defaultFeedMaxAttempts)
	v.SetDefault("feed.timezone", defaultFeedTimezone)

	v.SetDefault("sync.batchsize", defaultSyncBatchSize)
	v.SetDefault("sync.schedule", defaultSyncSchedule)
	v.SetDefault("sync.precomputeschedule", defaultPrecomputeSchedule)

	v.SetDefault("retention.days", defaultRetentionDays)
	v.SetDefault("retention.lookback", defaultRetentionLookback)
	v.SetDefault("retention.schedule", defaultRetentionSchedule)

	v.SetDefault("cache.redisaddr", "")
	v.SetDefault("cache.redisdb", 0)
	v.SetDefault("cache.ttl", defaultCacheTTL)

	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.bucket", "epgsync")
	v.SetDefault("storage.signedurlttlminutes", defaultSignedURLTTLMinutes)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}

	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("invalid feed timeout: %v (must be > 0)", c.Feed.Timeout)
	}
	if c.Feed.MaxAttempts < 1 {
		return fmt.Errorf("invalid feed max attempts: %d (must be >= 1)", c.Feed.MaxAttempts)
	}
	if _, err := time.LoadLocation(c.Feed.Timezone); err != nil {
		return fmt.Errorf("invalid feed timezone %q: %w", c.Feed.Timezone, err)
	}

	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("invalid sync batch size: %d (must be >= 1)", c.Sync.BatchSize)
	}

	if c.Retention.Days < 1 {
		return fmt.Errorf("invalid retention days: %d (must be >= 1)", c.Retention.Days)
	}
	if c.Retention.Lookback < c.Retention.Days {
		return fmt.Errorf("invalid retention lookback: %d (must be >= retention days)", c.Retention.Lookback)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("invalid cache ttl: %v (must be > 0)", c.Cache.TTL)
	}

	if c.Storage.SignedURLTTLMinutes < 1 {
		return fmt.Errorf("invalid signed url ttl: %d (must be >= 1)", c.Storage.SignedURLTTLMinutes)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	return nil
}

// FeedLocation returns the feed's local calendar location. Validate has
// already checked that the name parses.
func (c *Config) FeedLocation() *time.Location {
	loc, err := time.LoadLocation(c.Feed.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
