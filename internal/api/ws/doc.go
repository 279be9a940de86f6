// Package ws provides a WebSocket channel per host window.
//
// A host that relays sandbox traffic continuously opens one channel per
// window instead of posting each message. Every client frame is a JSON
// envelope; every reply carries the same op.
//
// Ops (Client → Server):
//   - dispatch: route {data} to the sandbox whose sentinel it carries
//   - serialize: encode {type, sentinel, payload, version}
//   - ping: keep-alive
//
// Ops (Server → Client):
//   - ready: channel open, carries the window id
//   - dispatch: {result} with accepted, reason, sandbox_id and message
//   - serialize: {message}
//   - pong
//   - error: {error}
//
// Example Usage:
//
//	handler := ws.NewHandler(windows, sandboxes, codec)
//	router.GET("/windows/:id/channel", handler.HandleConnection)
package ws
