package frame

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nested(t *testing.T, levels int) Window {
	t.Helper()

	w, err := New("https://publisher.example/")
	require.NoError(t, err)
	var cur Window = w
	for i := 0; i < levels; i++ {
		child, err := New("https://publisher.example/frame", WithParent(cur))
		require.NoError(t, err)
		cur = child
	}
	return cur
}

func TestDepth(t *testing.T) {
	tests := []struct {
		levels int
	}{
		{0}, {1}, {3}, {10},
	}

	for _, tt := range tests {
		w := nested(t, tt.levels)
		assert.Equal(t, tt.levels, Depth(w))
	}
}

type loopWindow struct {
	*Frame
	next Window
}

func (l *loopWindow) Parent() Window { return l.next }

func TestDepthBoundedOnCycle(t *testing.T) {
	f1, _ := New("https://a.example/")
	f2, _ := New("https://b.example/")
	a := &loopWindow{Frame: f1}
	b := &loopWindow{Frame: f2, next: a}
	a.next = b

	assert.Equal(t, maxDepth, Depth(a))
}

func TestTop(t *testing.T) {
	top, err := New("https://publisher.example/")
	require.NoError(t, err)
	child, err := New("https://ads.example/", WithParent(top))
	require.NoError(t, err)

	assert.Same(t, top, Top(child))
	assert.Same(t, top, Top(top))
}

func TestNewValidation(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)

	_, err = New("/relative/path")
	assert.Error(t, err)

	f, err := New("https://publisher.example/")
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID())
	assert.NotNil(t, f.Entropy())
	assert.NotNil(t, f.Document())

	weak, err := New("https://publisher.example/", WithoutEntropy())
	require.NoError(t, err)
	assert.Nil(t, weak.Entropy())
}

func TestLocationIsCopied(t *testing.T) {
	f, err := New("https://publisher.example:8443/a")
	require.NoError(t, err)

	loc := f.Location()
	loc.Host = "evil.example"
	assert.Equal(t, "publisher.example:8443", f.Location().Host)
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://Example.com/path?q=1", "https://example.com"},
		{"https://example.com:443/", "https://example.com"},
		{"http://example.com:80/", "http://example.com"},
		{"http://localhost:8000/x", "http://localhost:8000"},
		{"https://[::1]:9000/", "https://[::1]:9000"},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, Origin(u), tt.raw)
	}
	assert.Equal(t, "", Origin(nil))
}

func TestDocumentMeta(t *testing.T) {
	doc, err := ParseDocumentString(`<html><head>
		<meta name="viewport" content="width=device-width">
		<meta name="amp-3p-iframe-src" content="https://3p.example/frame.html">
		<link rel="canonical" href="https://publisher.example/canonical">
	</head><body></body></html>`)
	require.NoError(t, err)

	content, ok := doc.MetaContent("amp-3p-iframe-src")
	assert.True(t, ok)
	assert.Equal(t, "https://3p.example/frame.html", content)

	_, ok = doc.MetaContent("missing")
	assert.False(t, ok)

	assert.Equal(t, "https://publisher.example/canonical", doc.CanonicalURL())
}

func TestEmptyDocument(t *testing.T) {
	doc := EmptyDocument()
	_, ok := doc.MetaContent("amp-3p-iframe-src")
	assert.False(t, ok)
	assert.Equal(t, "", doc.CanonicalURL())
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'plain'`, xpathLiteral("plain"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('a', "'", 'b"c')`, xpathLiteral(`a'b"c`))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	w, err := New("https://publisher.example/")
	require.NoError(t, err)

	require.NoError(t, reg.Register(w))
	assert.ErrorIs(t, reg.Register(w), ErrWindowExists)
	assert.Equal(t, 1, reg.Count())

	got, err := reg.Get(w.ID())
	require.NoError(t, err)
	assert.Same(t, w, got)

	assert.True(t, reg.Remove(w.ID()))
	assert.False(t, reg.Remove(w.ID()))
	_, err = reg.Get(w.ID())
	assert.ErrorIs(t, err, ErrWindowNotFound)
}
