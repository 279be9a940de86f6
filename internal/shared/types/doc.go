// Package types provides shared data structures for the frame host.
//
// Core Types:
//   - Sandbox: descriptor of a created third-party iframe sandbox
//   - PreloadHint: a (url, resource type) pair for preconnect/preload sinks
//   - ErrConfiguration: root of all fatal embed configuration errors
//
// Request Types:
//   - RegisterWindowRequest, CreateSandboxRequest: window and sandbox setup
//   - SerializeRequest, DeserializeRequest, InboundMessageRequest: codec access
package types
