// Package http exposes the frame host over a JSON API.
//
// Endpoints:
//   - GET  /, /health, /stats: service status
//   - POST /windows, DELETE /windows/:id: host window lifecycle
//   - GET  /windows/:id/bootstrap, /windows/:id/preload: bootstrap URL and hints
//   - POST /windows/:id/sentinels: mint a sentinel
//   - POST|GET /windows/:id/sandboxes, DELETE /windows/:id/sandboxes/:sid: sandboxes
//   - POST /windows/:id/messages: route inbound channel traffic
//   - POST /messages/serialize, /messages/deserialize: codec access
//
// Configuration errors answer 422, unknown windows and sandboxes 404.
package http
