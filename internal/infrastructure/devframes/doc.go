// Package devframes serves a local build of the bootstrap frames.
//
// In local development the resolver points sandboxes at
// <dev base>/dist.3p/current/frame.max.html and friends. Pointing the dev
// frame base at this service and setting DEV_FRAME_DIR to the build output
// lets one process serve both the API and the frames.
//
// Only files matching the configured doublestar patterns are served, with
// gzip for clients that accept it. Index lists the servable files.
package devframes
