// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Domain packages accept a *zap.Logger and default to a no-op logger; the
// server hands each one a Component logger so entries carry their origin.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Component("bootstrap").Info("Resolved bootstrap URL", zap.String("url", u))
package logging
