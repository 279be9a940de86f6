package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Frames    FrameConfig
	Cache     CacheConfig
	Fetch     FetchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// FrameConfig describes the build being served and where bootstrap pages live.
type FrameConfig struct {
	Version             string `envconfig:"FRAME_VERSION" default:"0"`
	LocalDev            bool   `envconfig:"FRAME_LOCAL_DEV" default:"false"`
	Test                bool   `envconfig:"FRAME_TEST" default:"false"`
	Minified            bool   `envconfig:"FRAME_MINIFIED" default:"true"`
	ThirdPartyURL       string `envconfig:"THIRD_PARTY_URL" default:"https://3p.ampproject.net"`
	ThirdPartyFrameHost string `envconfig:"THIRD_PARTY_FRAME_HOST" default:"ampproject.net"`
	DevFrameBase        string `envconfig:"DEV_FRAME_BASE"`
	// DevFrameDir serves a local frame build under /dist.3p in development.
	DevFrameDir         string `envconfig:"DEV_FRAME_DIR"`
}

// CacheConfig selects the bootstrap URL cache. An empty RedisURL keeps the
// cache in process.
type CacheConfig struct {
	RedisURL string        `envconfig:"REDIS_URL"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`
}

// FetchConfig controls loading host documents by URL.
type FetchConfig struct {
	Enabled           bool          `envconfig:"FETCH_ENABLED" default:"true"`
	Timeout           time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	MaxRetries        int           `envconfig:"FETCH_MAX_RETRIES" default:"2"`
	RequestsPerSecond float64       `envconfig:"FETCH_RPS" default:"10"`
	AllowedHosts      []string      `envconfig:"FETCH_ALLOWED_HOSTS"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings the frame host cannot run with.
func (c *Config) Validate() error {
	if c.Frames.Version == "" {
		return errors.New("FRAME_VERSION must not be empty")
	}
	development := c.Frames.LocalDev || c.Frames.Test
	if !development && c.Frames.ThirdPartyFrameHost == "" {
		return errors.New("THIRD_PARTY_FRAME_HOST is required outside local development")
	}
	if !development && c.Frames.DevFrameDir != "" {
		return errors.New("DEV_FRAME_DIR requires FRAME_LOCAL_DEV or FRAME_TEST")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimit.RequestsPerSecond)
	}
	if c.Fetch.Enabled && c.Fetch.Timeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Frames: FrameConfig{
			Version:             "0",
			Minified:            true,
			ThirdPartyURL:       "https://3p.ampproject.net",
			ThirdPartyFrameHost: "ampproject.net",
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Fetch: FetchConfig{
			Enabled:           true,
			Timeout:           10 * time.Second,
			MaxRetries:        2,
			RequestsPerSecond: 10,
		},
	}
}
