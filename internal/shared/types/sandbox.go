package types

import "time"

// Resource types accepted by preload sinks
const (
	ResourceDocument = "document"
	ResourceScript   = "script"
)

// PreloadHint asks the host to warm a connection for url
type PreloadHint struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Sandbox describes a third-party iframe sandbox created in a host window
type Sandbox struct {
	ID         string         `json:"id"`
	WindowID   string         `json:"window_id"`
	Type       string         `json:"type"`
	Count      int            `json:"count"`
	Sentinel   string         `json:"sentinel"`
	Src        string         `json:"src"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Stats contains sandbox manager statistics
type Stats struct {
	Windows   int            `json:"windows"`
	Sandboxes int            `json:"sandboxes"`
	PerType   map[string]int `json:"per_type"`
}
