package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxHTMLSize    = 2 * 1024 * 1024 // host document snapshot
	MaxMarkupSize  = 64 * 1024       // single embed element
	MaxMessageSize = 256 * 1024      // one channel message
	MaxURLLength   = 8 * 1024
	MaxIDLength    = 128
	MaxTypeLength  = 64
	MaxJSONDepth   = 32
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// EmbedTypePattern matches third-party integration names such as "a9" or "24smi"
	EmbedTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateWindowURL checks that a window location is an absolute http(s) or
// about: URL.
func ValidateWindowURL(raw string) error {
	if err := ValidateString(raw, "url", 1, MaxURLLength, true); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is invalid: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "about":
	default:
		return fmt.Errorf("url scheme %q is not supported", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must be absolute")
	}
	return nil
}

// ValidateEmbedType validates an integration type name. Empty is allowed;
// the embed element's own type attribute is used then.
func ValidateEmbedType(typ string) error {
	if err := ValidateString(typ, "type", 1, MaxTypeLength, false); err != nil {
		return err
	}
	if typ != "" && !EmbedTypePattern.MatchString(typ) {
		return fmt.Errorf("type %q contains invalid characters", typ)
	}
	return nil
}

// ValidateSize checks a payload against a byte limit
func ValidateSize(value, fieldName string, maxSize int) error {
	if len(value) > maxSize {
		return fmt.Errorf("%s size %d bytes exceeds maximum %d bytes", fieldName, len(value), maxSize)
	}
	return nil
}

// ValidateJSONDepth rejects decoded JSON nested deeper than maxDepth
// containers.
func ValidateJSONDepth(data any, maxDepth int) error {
	if d := depth(data, maxDepth+1); d > maxDepth {
		return fmt.Errorf("JSON nesting exceeds maximum depth %d", maxDepth)
	}
	return nil
}

// depth measures container nesting, giving up once limit is reached.
func depth(v any, limit int) int {
	var children []any
	switch t := v.(type) {
	case map[string]any:
		for _, c := range t {
			children = append(children, c)
		}
	case []any:
		children = t
	default:
		return 0
	}
	if limit <= 0 {
		return 1
	}

	deepest := 0
	for _, c := range children {
		if d := depth(c, limit-1); d > deepest {
			deepest = d
			if deepest >= limit {
				break
			}
		}
	}
	return deepest + 1
}
