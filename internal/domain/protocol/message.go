package protocol

// Prefix tags every message of this protocol on a shared string channel.
const Prefix = "amp-"

// MessageType enumerates the control messages exchanged with a sandbox.
type MessageType string

const (
	SendEmbedState    MessageType = "send-embed-state"
	EmbedState        MessageType = "embed-state"
	SendEmbedContext  MessageType = "send-embed-context"
	EmbedContext      MessageType = "embed-context"
	SendIntersections MessageType = "send-intersections"
	Intersection      MessageType = "intersection"
	EmbedSize         MessageType = "embed-size"
	EmbedSizeChanged  MessageType = "embed-size-changed"
	EmbedSizeDenied   MessageType = "embed-size-denied"
	SendPositions     MessageType = "send-positions"
	Position          MessageType = "position"
)

var knownTypes = map[MessageType]struct{}{
	SendEmbedState:    {},
	EmbedState:        {},
	SendEmbedContext:  {},
	EmbedContext:      {},
	SendIntersections: {},
	Intersection:      {},
	EmbedSize:         {},
	EmbedSizeChanged:  {},
	EmbedSizeDenied:   {},
	SendPositions:     {},
	Position:          {},
}

// Types returns the enumeration in wire order.
func Types() []MessageType {
	return []MessageType{
		SendEmbedState, EmbedState,
		SendEmbedContext, EmbedContext,
		SendIntersections, Intersection,
		EmbedSize, EmbedSizeChanged, EmbedSizeDenied,
		SendPositions, Position,
	}
}

// Known reports whether t is part of the enumeration.
func (t MessageType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

func (t MessageType) String() string { return string(t) }

const (
	KeyType     = "type"
	KeySentinel = "sentinel"
)

// Message is a decoded protocol message: type, sentinel and any payload fields.
// Values follow JSON decoding rules (numbers are float64).
type Message map[string]any

// Type returns the message type, or "" when absent or not a string.
func (m Message) Type() MessageType {
	s, _ := m[KeyType].(string)
	return MessageType(s)
}

// Sentinel returns the sender's sentinel, or "".
func (m Message) Sentinel() string {
	s, _ := m[KeySentinel].(string)
	return s
}

// Known reports whether the message type is part of the enumeration.
func (m Message) Known() bool {
	return m.Type().Known()
}
