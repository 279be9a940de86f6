package protocol

import (
	"fmt"
	"maps"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Outcome classifies a decode attempt.
type Outcome string

const (
	OutcomeDecoded   Outcome = "decoded"
	OutcomeForeign   Outcome = "foreign"
	OutcomeMalformed Outcome = "malformed"
)

// maxLoggedPayload bounds how much of a malformed payload is logged.
const maxLoggedPayload = 256

// Observer is notified of every serialize and decode.
type Observer interface {
	Serialized(t MessageType)
	Decoded(o Outcome)
}

// Codec encodes and decodes protocol messages. It is stateless apart from its
// logger and observer and is safe for concurrent use.
type Codec struct {
	logger   *zap.Logger
	observer Observer
	json     sonic.API
}

// Option configures a Codec
type Option func(*Codec)

// WithLogger sets the diagnostic logger for malformed payloads
func WithLogger(logger *zap.Logger) Option {
	return func(c *Codec) { c.logger = logger }
}

// WithObserver sets the outcome observer
func WithObserver(o Observer) Option {
	return func(c *Codec) { c.observer = o }
}

// NewCodec creates a codec
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		logger: zap.NewNop(),
		json:   sonic.ConfigStd,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Serialize encodes a message with the default codec.
func Serialize(t MessageType, sentinel string, data map[string]any, version string) (string, error) {
	return defaultCodec.Serialize(t, sentinel, data, version)
}

// Deserialize decodes a message with the default codec.
func Deserialize(v any) (Message, bool) {
	return defaultCodec.Deserialize(v)
}

// IsAmpMessage reports whether v is a string carrying the protocol prefix.
func IsAmpMessage(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, Prefix)
}

// Serialize returns Prefix + version + JSON(data ∪ {type, sentinel}).
//
// data is copied; the caller's map is left untouched. type and sentinel
// overwrite fields of the same name in data. An error is returned only when a
// payload value cannot be represented as JSON.
func (c *Codec) Serialize(t MessageType, sentinel string, data map[string]any, version string) (string, error) {
	payload := make(map[string]any, len(data)+2)
	maps.Copy(payload, data)
	payload[KeyType] = string(t)
	payload[KeySentinel] = sentinel

	body, err := c.json.MarshalToString(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s message: %w", t, err)
	}
	if c.observer != nil {
		c.observer.Serialized(t)
	}
	return Prefix + version + body, nil
}

// Deserialize decodes channel traffic. ok is false for foreign traffic
// (non-string or untagged) and for tagged payloads whose JSON body is
// missing or malformed. It never panics.
//
// The decoded message is not validated: callers check Type against the
// enumeration and Sentinel against the expected value before acting.
func (c *Codec) Deserialize(v any) (msg Message, ok bool) {
	msg, outcome := c.decode(v)
	if c.observer != nil {
		c.observer.Decoded(outcome)
	}
	return msg, outcome == OutcomeDecoded
}

func (c *Codec) decode(v any) (Message, Outcome) {
	if !IsAmpMessage(v) {
		return nil, OutcomeForeign
	}
	s := v.(string)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		c.logger.Debug("Protocol message has no JSON body",
			zap.String("payload", truncate(s)))
		return nil, OutcomeMalformed
	}

	var msg Message
	if err := c.json.UnmarshalFromString(s[start:], &msg); err != nil {
		c.logger.Debug("Failed to parse protocol message",
			zap.String("payload", truncate(s)),
			zap.Error(err))
		return nil, OutcomeMalformed
	}
	if msg == nil {
		return nil, OutcomeMalformed
	}
	return msg, OutcomeDecoded
}

func truncate(s string) string {
	if len(s) <= maxLoggedPayload {
		return s
	}
	return s[:maxLoggedPayload] + "..."
}
