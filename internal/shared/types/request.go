package types

// RegisterWindowRequest registers a host window
type RegisterWindowRequest struct {
	URL        string  `json:"url" binding:"required"`
	ParentID   *string `json:"parent_id,omitempty"`
	HTML       string  `json:"html,omitempty"`
	Referrer   string  `json:"referrer,omitempty"`
	WeakRandom bool    `json:"weak_random,omitempty"`
	// Fetch loads the document from URL when no HTML snapshot is given
	Fetch      bool    `json:"fetch,omitempty"`
}

// CreateSandboxRequest creates a sandbox from embed markup
type CreateSandboxRequest struct {
	Markup string `json:"markup" binding:"required"`
	Type   string `json:"type,omitempty"`
	Strict bool   `json:"strict,omitempty"`
}

// SerializeRequest encodes a protocol message
type SerializeRequest struct {
	Type     string         `json:"type" binding:"required"`
	Sentinel string         `json:"sentinel" binding:"required"`
	Data     map[string]any `json:"data,omitempty"`
	Version  string         `json:"version,omitempty"`
}

// DeserializeRequest decodes arbitrary channel traffic
type DeserializeRequest struct {
	Message any `json:"message"`
}

// InboundMessageRequest delivers channel traffic received by a host window
type InboundMessageRequest struct {
	Data any `json:"data"`
}
