package id

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func TestRandomDigitsStrongSource(t *testing.T) {
	// Two little-endian uint32 values: 1 and 4294967295.
	src := bytes.NewReader([]byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff})

	got := RandomDigits(src)
	if got != "14294967295" {
		t.Errorf("RandomDigits = %q, want %q", got, "14294967295")
	}
}

func TestRandomDigitsWeakFallback(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		f    float64
		want string
	}{
		{"nil source", nil, 0.25, "250"},
		{"failing source", failingReader{}, 0.123, "1230"},
		{"short source", bytes.NewReader([]byte{1, 2}), 0.5, "50"},
		{"zero", nil, 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RandomDigitsWithFallback(tt.src, func() float64 { return tt.f })
			if got != tt.want {
				t.Errorf("RandomDigitsWithFallback = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRandomDigitsAlwaysDigits(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if s := RandomDigits(StrongSource()); !isDigits(s) {
			t.Fatalf("strong output not digits: %q", s)
		}
		if s := RandomDigits(nil); !isDigits(s) {
			t.Fatalf("weak output not digits: %q", s)
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	winID := NewWindowID()
	sbxID := NewSandboxID()

	if !strings.HasPrefix(string(winID), "win_") {
		t.Errorf("WindowID should start with 'win_', got: %s", winID)
	}
	if !strings.HasPrefix(string(sbxID), "sbx_") {
		t.Errorf("SandboxID should start with 'sbx_', got: %s", sbxID)
	}
	if !IsValid(winID.String(), WindowPrefix) {
		t.Errorf("WindowID should be valid: %s", winID)
	}
	if IsValid(winID.String(), SandboxPrefix) {
		t.Errorf("WindowID should not validate as a sandbox ID: %s", winID)
	}
}

func TestIsValid(t *testing.T) {
	invalid := []string{"", "win_", "win_invalid", "sbx_01ARZ3NDEKTSV4RRFFQ69G5FAV", "01ARZ3NDEKTSV4RRFFQ69G5FAV"}
	for _, s := range invalid {
		if IsValid(s, WindowPrefix) {
			t.Errorf("ID should be invalid: %s", s)
		}
	}
}

func TestGeneratorUnique(t *testing.T) {
	gen := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := gen.GenerateWithPrefix(WindowPrefix)
		if seen[s] {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = true
	}
}
