// Package sentinel mints the per-sandbox identity tokens that correlate
// postMessage traffic with the sandbox that produced it.
//
// A sentinel has the form "<depth>-<random>": depth is the number of ancestor
// frames between the minting window and the top window, random is a decimal
// string from the window's entropy. Sentinels disambiguate sandboxes open on
// the same page; they are not secrets and are not globally unique.
package sentinel

import (
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

var ErrMalformed = errors.New("malformed sentinel")

// Generate returns a fresh sentinel for a sandbox created in w.
func Generate(w frame.Window) string {
	return strconv.Itoa(frame.Depth(w)) + "-" + id.RandomDigits(w.Entropy())
}

// Parse splits a sentinel into its depth and random components.
func Parse(s string) (depth int, random string, err error) {
	head, tail, ok := strings.Cut(s, "-")
	if !ok || head == "" || tail == "" {
		return 0, "", ErrMalformed
	}
	depth, err = strconv.Atoi(head)
	if err != nil || depth < 0 || strings.HasPrefix(head, "+") {
		return 0, "", ErrMalformed
	}
	for _, c := range tail {
		if c < '0' || c > '9' {
			return 0, "", ErrMalformed
		}
	}
	return depth, tail, nil
}

// Match reports whether got equals the expected sentinel. Empty values never
// match.
func Match(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
