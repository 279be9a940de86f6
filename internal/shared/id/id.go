// Package id provides identifier generation for the frame host.
//
// Two families of identifiers live here:
//   - Random digit strings: the building block of sentinels and randomized
//     bootstrap subdomains. Prefers a strong entropy source, falls back to a
//     pseudo-random float when none is available.
//   - Typed ULIDs: window and sandbox identifiers used as registry and cache
//     keys (win_*, sbx_*). Lexicographically sortable, debuggable in logs.
package id

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Random Digits
// ============================================================================

// Source is an optional strong entropy source. A nil Source selects the
// pseudo-random fallback.
type Source = io.Reader

// Float is a pseudo-random [0,1) source used when no strong source exists.
type Float func() float64

// RandomDigits returns a non-negative decimal string with no sign.
//
// With a strong source it draws two uint32 values and concatenates their
// decimal forms. Without one (or if the source fails to fill the buffer) it
// strips "0." from a [0,1) float and appends "0".
func RandomDigits(src Source) string {
	return RandomDigitsWithFallback(src, mrand.Float64)
}

// RandomDigitsWithFallback is RandomDigits with an explicit weak source.
func RandomDigitsWithFallback(src Source, weak Float) string {
	if src != nil {
		var buf [8]byte
		if _, err := io.ReadFull(src, buf[:]); err == nil {
			a := binary.LittleEndian.Uint32(buf[:4])
			b := binary.LittleEndian.Uint32(buf[4:])
			return strconv.FormatUint(uint64(a), 10) + strconv.FormatUint(uint64(b), 10)
		}
	}
	return weakDigits(weak())
}

func weakDigits(f float64) string {
	if f < 0 || f >= 1 {
		f = 0
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	// An exact zero formats as "0" with no fractional part.
	s = strings.TrimPrefix(s, "0.")
	if s == "0" {
		s = ""
	}
	return s + "0"
}

// StrongSource returns the process-wide cryptographic entropy source.
func StrongSource() Source {
	return rand.Reader
}

// ============================================================================
// Typed ULIDs
// ============================================================================

// WindowID identifies a registered host window
type WindowID string

// SandboxID identifies a sandbox created inside a host window
type SandboxID string

const (
	WindowPrefix  = "win"
	SandboxPrefix = "sbx"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewWindowID generates a new window ID
func NewWindowID() WindowID {
	return WindowID(Default().GenerateWithPrefix(WindowPrefix))
}

// NewSandboxID generates a new sandbox ID
func NewSandboxID() SandboxID {
	return SandboxID(Default().GenerateWithPrefix(SandboxPrefix))
}

func (id WindowID) String() string  { return string(id) }
func (id SandboxID) String() string { return string(id) }

// IsValid checks if an ID string is a prefixed ULID with the given prefix
func IsValid(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.Parse(rest)
	return err == nil
}
