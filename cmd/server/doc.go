// Package main is the entry point for the 3p frame host.
//
// The server lets host pages register their windows, resolve the bootstrap
// URL for third-party sandboxes, mint sentinels, create sandboxes from embed
// markup and route framed protocol messages back to the sandbox that sent
// them.
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - An optional YAML or TOML file of the same variables (-config, CONFIG_FILE)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -version 2410031234567 -redis redis://cache:6379/0
//
//	# Local development (frames from http://ads.localhost:<port>, debug logs)
//	./server -local-dev -dev -frames ./dist.3p
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
