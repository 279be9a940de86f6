// Package config provides 12-factor configuration management for the frame host.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Frames: Build mode and third-party frame hosts
//   - Cache: Bootstrap URL cache backend
//   - Fetch: Loading host documents by URL
//
// A YAML or TOML file of the same variables can seed the environment through
// ApplyFile; variables already set win.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - FRAME_VERSION, FRAME_LOCAL_DEV, FRAME_TEST, FRAME_MINIFIED
//   - THIRD_PARTY_URL, THIRD_PARTY_FRAME_HOST, DEV_FRAME_BASE
//   - DEV_FRAME_DIR
//   - REDIS_URL, CACHE_TTL
//   - FETCH_ENABLED, FETCH_TIMEOUT, FETCH_MAX_RETRIES, FETCH_RPS, FETCH_ALLOWED_HOSTS
package config
