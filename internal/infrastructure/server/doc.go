// Package server wires the 3p frame host together.
//
// This package orchestrates all components:
//   - HTTP routing with Gin and the middleware stack
//   - The bootstrap URL cache (in process, or Redis behind a circuit breaker)
//   - Resolver, codec and sandbox manager with metrics observers
//   - Prometheus and JSON metrics endpoints
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Connect to the cache
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	go srv.Run()
//	defer srv.Shutdown(shutdownCtx)
package server
