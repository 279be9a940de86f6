package sentinel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
)

func TestGenerateTopWindow(t *testing.T) {
	w, err := frame.New("https://publisher.example/",
		frame.WithEntropy(bytes.NewReader([]byte{7, 0, 0, 0, 9, 0, 0, 0})))
	require.NoError(t, err)

	assert.Equal(t, "0-79", Generate(w))
}

func TestGenerateNestedDepth(t *testing.T) {
	top, err := frame.New("https://publisher.example/")
	require.NoError(t, err)
	var cur frame.Window = top
	for i := 0; i < 3; i++ {
		child, err := frame.New("https://publisher.example/nested", frame.WithParent(cur))
		require.NoError(t, err)
		cur = child
	}

	depth, random, err := Parse(Generate(cur))
	require.NoError(t, err)
	assert.Equal(t, 3, depth)
	assert.NotEmpty(t, random)
}

func TestGenerateUnique(t *testing.T) {
	for _, opt := range []frame.Option{nil, frame.WithoutEntropy()} {
		var opts []frame.Option
		if opt != nil {
			opts = append(opts, opt)
		}
		w, err := frame.New("https://publisher.example/", opts...)
		require.NoError(t, err)

		seen := make(map[string]struct{}, 10000)
		for i := 0; i < 10000; i++ {
			s := Generate(w)
			require.True(t, strings.HasPrefix(s, "0-"), "depth must be stable: %s", s)
			_, dup := seen[s]
			require.False(t, dup, "duplicate sentinel %s", s)
			seen[s] = struct{}{}
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		depth   int
		random  string
		wantErr bool
	}{
		{"0-34821193", 0, "34821193", false},
		{"12-1", 12, "1", false},
		{"", 0, "", true},
		{"0", 0, "", true},
		{"-123", 0, "", true},
		{"a-123", 0, "", true},
		{"+1-123", 0, "", true},
		{"1-12a", 0, "", true},
		{"1-", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			depth, random, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.depth, depth)
			assert.Equal(t, tt.random, random)
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("0-123", "0-123"))
	assert.False(t, Match("0-123", "0-124"))
	assert.False(t, Match("0-123", "1-123"))
	assert.False(t, Match("", ""))
	assert.False(t, Match("0-123", ""))
}
