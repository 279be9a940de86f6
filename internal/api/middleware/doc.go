// Package middleware provides HTTP middleware for the frame host API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - GlobalRateLimit: One token bucket for all clients
//   - Logger: Request logging through zap
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
