package protocol

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingObserver struct {
	mu         sync.Mutex
	serialized map[MessageType]int
	decoded    map[Outcome]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		serialized: make(map[MessageType]int),
		decoded:    make(map[Outcome]int),
	}
}

func (o *countingObserver) Serialized(t MessageType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.serialized[t]++
}

func (o *countingObserver) Decoded(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decoded[out]++
}

func TestRoundTrip(t *testing.T) {
	data := map[string]any{
		"width":  300,
		"height": 250,
		"nested": map[string]any{"a": "b"},
		"list":   []any{1, "two", true},
		"flag":   false,
		"none":   nil,
	}

	for _, mt := range Types() {
		t.Run(string(mt), func(t *testing.T) {
			raw, err := Serialize(mt, "0-34821193", data, "")
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(raw, Prefix))

			msg, ok := Deserialize(raw)
			require.True(t, ok)
			assert.Equal(t, mt, msg.Type())
			assert.Equal(t, "0-34821193", msg.Sentinel())
			assert.True(t, msg.Known())
			assert.Equal(t, float64(300), msg["width"])
			assert.Equal(t, float64(250), msg["height"])
			assert.Equal(t, map[string]any{"a": "b"}, msg["nested"])
			assert.Equal(t, []any{float64(1), "two", true}, msg["list"])
			assert.Equal(t, false, msg["flag"])
			assert.Contains(t, msg, "none")
			assert.Nil(t, msg["none"])
		})
	}
}

func TestRoundTripWithVersion(t *testing.T) {
	raw, err := Serialize(EmbedSize, "1-42", map[string]any{"width": 300}, "1.0")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "amp-1.0{"))

	msg, ok := Deserialize(raw)
	require.True(t, ok)
	assert.Equal(t, EmbedSize, msg.Type())
	assert.Equal(t, "1-42", msg.Sentinel())
	assert.Len(t, msg, 3)
}

func TestSerializeWireFormat(t *testing.T) {
	raw, err := Serialize(EmbedSize, "0-34821193", map[string]any{"width": 300, "height": 250}, "1.0")
	require.NoError(t, err)
	assert.Equal(t, `amp-1.0{"height":250,"sentinel":"0-34821193","type":"embed-size","width":300}`, raw)
}

func TestSerializeDoesNotMutateInput(t *testing.T) {
	data := map[string]any{"type": "spoofed", "width": 1}

	raw, err := Serialize(Position, "0-1", data, "")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"type": "spoofed", "width": 1}, data)

	msg, ok := Deserialize(raw)
	require.True(t, ok)
	assert.Equal(t, Position, msg.Type(), "type argument overrides payload field")
}

func TestSerializeNilData(t *testing.T) {
	raw, err := Serialize(SendEmbedState, "0-1", nil, "")
	require.NoError(t, err)
	assert.Equal(t, `amp-{"sentinel":"0-1","type":"send-embed-state"}`, raw)
}

func TestSerializeUnencodable(t *testing.T) {
	_, err := Serialize(EmbedSize, "0-1", map[string]any{"ch": make(chan int)}, "")
	assert.Error(t, err)
}

func TestForeignTrafficRejected(t *testing.T) {
	inputs := []any{
		nil,
		42,
		map[string]any{"type": "embed-size"},
		[]byte(`amp-{"type":"embed-size"}`),
		"",
		"hello",
		`{"type":"embed-size","sentinel":"0-1"}`,
		` amp-{"type":"embed-size"}`,
		`AMP-{"type":"embed-size"}`,
		`xamp-{"type":"embed-size"}`,
	}

	for _, in := range inputs {
		assert.False(t, IsAmpMessage(in), "%#v", in)
		msg, ok := Deserialize(in)
		assert.False(t, ok, "%#v", in)
		assert.Nil(t, msg)
	}
}

func TestMalformedPayloadTolerated(t *testing.T) {
	inputs := []string{
		Prefix + "{not json",
		Prefix,
		Prefix + "1.0",
		Prefix + `{"type":`,
		Prefix + "1.0{'single':'quotes'}",
	}

	for _, in := range inputs {
		assert.True(t, IsAmpMessage(in), in)
		assert.NotPanics(t, func() {
			msg, ok := Deserialize(in)
			assert.False(t, ok, in)
			assert.Nil(t, msg)
		})
	}
}

func TestMalformedPayloadLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	codec := NewCodec(WithLogger(zap.New(core)))

	_, ok := codec.Deserialize(Prefix + "{not json")
	assert.False(t, ok)
	_, ok = codec.Deserialize(Prefix + "no body")
	assert.False(t, ok)
	_, ok = codec.Deserialize("foreign")
	assert.False(t, ok)

	assert.Equal(t, 2, logs.Len(), "foreign traffic is not logged")
}

func TestObserverOutcomes(t *testing.T) {
	obs := newCountingObserver()
	codec := NewCodec(WithObserver(obs))

	raw, err := codec.Serialize(Intersection, "0-1", nil, "")
	require.NoError(t, err)
	codec.Deserialize(raw)
	codec.Deserialize("foreign")
	codec.Deserialize(Prefix + "{bad")

	assert.Equal(t, 1, obs.serialized[Intersection])
	assert.Equal(t, 1, obs.decoded[OutcomeDecoded])
	assert.Equal(t, 1, obs.decoded[OutcomeForeign])
	assert.Equal(t, 1, obs.decoded[OutcomeMalformed])
}

func TestUnknownTypeStillDecodes(t *testing.T) {
	raw, err := Serialize(MessageType("custom-kind"), "0-1", nil, "")
	require.NoError(t, err)

	msg, ok := Deserialize(raw)
	require.True(t, ok)
	assert.Equal(t, MessageType("custom-kind"), msg.Type())
	assert.False(t, msg.Known())
}

func TestMessageAccessorsOnWrongTypes(t *testing.T) {
	msg := Message{"type": 5, "sentinel": []any{"x"}}
	assert.Equal(t, MessageType(""), msg.Type())
	assert.Equal(t, "", msg.Sentinel())
	assert.False(t, msg.Known())
}

func TestTypesEnumeration(t *testing.T) {
	want := []string{
		"send-embed-state", "embed-state", "send-embed-context", "embed-context",
		"send-intersections", "intersection", "embed-size", "embed-size-changed",
		"embed-size-denied", "send-positions", "position",
	}

	var got []string
	for _, mt := range Types() {
		assert.True(t, mt.Known())
		got = append(got, mt.String())
	}
	assert.Equal(t, want, got)
	assert.False(t, MessageType("embed").Known())
}
