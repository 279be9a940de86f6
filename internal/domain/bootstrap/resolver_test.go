package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/cache"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
)

var prodConfig = Config{
	Mode: Mode{Version: "0123456789"},
	Hosts: Hosts{
		ThirdPartyURL:       "https://3p.ampproject.net",
		ThirdPartyFrameHost: "ampproject.net",
	},
}

var devConfig = Config{
	Mode: Mode{LocalDev: true, Version: "0123456789"},
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[Source]int
}

func (o *countingObserver) Resolved(src Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[Source]int)
	}
	o.counts[src]++
}

type failingStore struct{}

func (failingStore) Get(context.Context, id.WindowID) (string, bool, error) {
	return "", false, errors.New("store down")
}

func (failingStore) SetIfAbsent(context.Context, id.WindowID, string) (string, error) {
	return "", errors.New("store down")
}

func (failingStore) Delete(context.Context, id.WindowID) error { return nil }

func newWindow(t *testing.T, rawURL, html string, opts ...frame.Option) *frame.Frame {
	t.Helper()
	if html != "" {
		doc, err := frame.ParseDocumentString(html)
		require.NoError(t, err)
		opts = append(opts, frame.WithDocument(doc))
	}
	w, err := frame.New(rawURL, opts...)
	require.NoError(t, err)
	return w
}

func metaDoc(content string) string {
	return `<html><head><meta name="amp-3p-iframe-src" content="` + content + `"></head><body></body></html>`
}

func TestDefaultDevelopment(t *testing.T) {
	r := NewResolver(devConfig)
	w := newWindow(t, "http://localhost:8000/page.html", "")

	assert.Equal(t, "http://ads.localhost:8000/dist.3p/current/frame.max.html", r.Default(w, ""))
	assert.Equal(t, "http://ads.localhost:8000/dist.3p/current/nameframe.max.html", r.Default(w, "nameframe"))
}

func TestDefaultDevelopmentMinified(t *testing.T) {
	cfg := devConfig
	cfg.Mode.Minified = true
	r := NewResolver(cfg)
	w := newWindow(t, "http://localhost:8000/page.html", "")

	assert.Equal(t, "http://ads.localhost:8000/dist.3p/0123456789/frame.html", r.Default(w, ""))
}

func TestDefaultDevelopmentParentPort(t *testing.T) {
	r := NewResolver(Config{Mode: Mode{Test: true}})
	parent := newWindow(t, "http://localhost:9876/context.html", "")
	child := newWindow(t, "about://srcdoc", "", frame.WithParent(parent))

	assert.Equal(t, "http://ads.localhost:9876/dist.3p/current/frame.max.html", r.Default(child, ""))
}

func TestDefaultDevelopmentNoPort(t *testing.T) {
	r := NewResolver(devConfig)
	w := newWindow(t, "http://localhost/page.html", "")

	assert.Equal(t, "http://ads.localhost/dist.3p/current/frame.max.html", r.Default(w, ""))
}

func TestDefaultDevFrameBase(t *testing.T) {
	cfg := devConfig
	cfg.Hosts.DevFrameBase = "http://frames.test:4000/"
	r := NewResolver(cfg)
	w := newWindow(t, "http://localhost:8000/page.html", "")

	assert.Equal(t, "http://frames.test:4000/dist.3p/current/frame.max.html", r.Default(w, ""))
	assert.Equal(t, "http://frames.test:4000/dist.3p/current/integration.js", r.IntegrationScriptURL(w))
}

func TestDefaultOverride(t *testing.T) {
	r := NewResolver(devConfig)
	w := newWindow(t, "http://localhost:8000/page.html", "")

	r.SetOverrideURL("http://override.test/frame.html")
	assert.Equal(t, "http://override.test/frame.html", r.Default(w, ""))

	r.ResetOverrideURL()
	assert.Equal(t, "http://ads.localhost:8000/dist.3p/current/frame.max.html", r.Default(w, ""))
}

func TestDefaultOverrideIgnoredInProduction(t *testing.T) {
	r := NewResolver(prodConfig, WithRandom(func(frame.Window) string { return "42" }))
	w := newWindow(t, "https://publisher.example/", "")

	r.SetOverrideURL("http://override.test/frame.html")
	assert.Equal(t, "https://d-42.ampproject.net/0123456789/frame.html", r.Default(w, ""))
}

func TestDefaultProductionSubdomainStablePerWindow(t *testing.T) {
	calls := 0
	r := NewResolver(prodConfig, WithRandom(func(frame.Window) string {
		calls++
		return []string{"111", "222"}[calls-1]
	}))
	a := newWindow(t, "https://publisher.example/a", "")
	b := newWindow(t, "https://publisher.example/b", "")

	assert.Equal(t, "https://d-111.ampproject.net/0123456789/frame.html", r.Default(a, ""))
	assert.Equal(t, "https://d-111.ampproject.net/0123456789/frame.html", r.Default(a, ""))
	assert.Equal(t, "https://d-111.ampproject.net/0123456789/nameframe.html", r.Default(a, "nameframe"))
	assert.Equal(t, "https://d-222.ampproject.net/0123456789/frame.html", r.Default(b, ""))
	assert.Equal(t, 2, calls)
}

func TestCustom(t *testing.T) {
	r := NewResolver(prodConfig)
	w := newWindow(t, "https://publisher.example/", metaDoc("https://frames.cdn.example/boot.html"))

	u, found, err := r.Custom(w, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://frames.cdn.example/boot.html?0123456789", u)
}

func TestCustomAbsent(t *testing.T) {
	r := NewResolver(prodConfig)
	w := newWindow(t, "https://publisher.example/", "<html><head></head></html>")

	u, found, err := r.Custom(w, false)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, u)
}

func TestCustomViolations(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		content string
		strict  bool
		want    error
	}{
		{"http scheme", "https://publisher.example/", "http://frames.cdn.example/boot.html", false, ErrNotHTTPS},
		{"relative", "https://publisher.example/", "/boot.html", false, ErrInvalidURL},
		{"query string", "https://publisher.example/", "https://frames.cdn.example/boot.html?a=1", false, ErrQueryString},
		{"empty query", "https://publisher.example/", "https://frames.cdn.example/boot.html?", false, ErrQueryString},
		{"same origin", "https://publisher.example/page", "https://publisher.example/boot.html", false, ErrSameOrigin},
		{"same origin explicit port", "https://publisher.example/page", "https://publisher.example:443/boot.html", false, ErrSameOrigin},
		{"localhost strict", "https://localhost:8000/page", "https://localhost:8000/boot.html", true, ErrSameOrigin},
		{"loopback not relaxed", "https://127.0.0.1:8000/page", "https://127.0.0.1:8000/boot.html", false, ErrSameOrigin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(prodConfig)
			w := newWindow(t, tt.host, metaDoc(tt.content))

			_, found, err := r.Custom(w, tt.strict)
			assert.True(t, found)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}

func TestCustomLocalhostRelaxed(t *testing.T) {
	r := NewResolver(prodConfig)
	w := newWindow(t, "https://localhost:8000/page", metaDoc("https://localhost:8000/boot.html"))

	u, found, err := r.Custom(w, false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://localhost:8000/boot.html?0123456789", u)
}

func TestResolveCachesPerWindow(t *testing.T) {
	obs := &countingObserver{}
	calls := 0
	r := NewResolver(prodConfig, WithObserver(obs), WithRandom(func(frame.Window) string {
		calls++
		return "7"
	}))
	w := newWindow(t, "https://publisher.example/", "")
	ctx := context.Background()

	first, err := r.Resolve(ctx, w, false)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, w, false)
	require.NoError(t, err)

	assert.Equal(t, "https://d-7.ampproject.net/0123456789/frame.html", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, obs.counts[SourceDefault])
	assert.Equal(t, 1, obs.counts[SourceCache])
}

func TestResolvePrefersCustom(t *testing.T) {
	obs := &countingObserver{}
	r := NewResolver(prodConfig, WithObserver(obs))
	w := newWindow(t, "https://publisher.example/", metaDoc("https://frames.cdn.example/boot.html"))

	u, err := r.Resolve(context.Background(), w, false)
	require.NoError(t, err)
	assert.Equal(t, "https://frames.cdn.example/boot.html?0123456789", u)
	assert.Equal(t, 1, obs.counts[SourceCustom])
}

func TestResolveConfigurationErrorNotCached(t *testing.T) {
	store := cache.NewMemory()
	r := NewResolver(prodConfig, WithStore(store))
	w := newWindow(t, "https://publisher.example/", metaDoc("https://frames.cdn.example/boot.html?x"))

	_, err := r.Resolve(context.Background(), w, false)
	assert.ErrorIs(t, err, ErrQueryString)
	assert.Equal(t, 0, store.Len())
}

func TestResolveStoreFailure(t *testing.T) {
	r := NewResolver(prodConfig, WithStore(failingStore{}))
	w := newWindow(t, "https://publisher.example/", "")

	_, err := r.Resolve(context.Background(), w, false)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrConfiguration)
}

func TestResolveConcurrentSingleValue(t *testing.T) {
	r := NewResolver(prodConfig)
	w := newWindow(t, "https://publisher.example/", "")

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := r.Resolve(context.Background(), w, false)
			if err == nil {
				results[i] = u
			}
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, results[0])
	for _, u := range results {
		assert.Equal(t, results[0], u)
	}
}

func TestResetCache(t *testing.T) {
	calls := 0
	r := NewResolver(prodConfig, WithRandom(func(frame.Window) string {
		calls++
		return []string{"1", "2"}[calls-1]
	}))
	w := newWindow(t, "https://publisher.example/", "")
	ctx := context.Background()

	first, err := r.Resolve(ctx, w, false)
	require.NoError(t, err)
	require.NoError(t, r.ResetCache(ctx, w))
	second, err := r.Resolve(ctx, w, false)
	require.NoError(t, err)

	assert.Equal(t, "https://d-1.ampproject.net/0123456789/frame.html", first)
	assert.Equal(t, "https://d-2.ampproject.net/0123456789/frame.html", second)
}

func TestIntegrationScriptURL(t *testing.T) {
	w := newWindow(t, "http://localhost:8000/page.html", "")

	assert.Equal(t, "https://3p.ampproject.net/0123456789/f.js", NewResolver(prodConfig).IntegrationScriptURL(w))
	assert.Equal(t, "http://ads.localhost:8000/dist.3p/current/integration.js", NewResolver(devConfig).IntegrationScriptURL(w))

	minified := devConfig
	minified.Mode.Minified = true
	assert.Equal(t, "http://ads.localhost:8000/dist.3p/0123456789/f.js", NewResolver(minified).IntegrationScriptURL(w))
}

func TestPreload(t *testing.T) {
	r := NewResolver(prodConfig, WithRandom(func(frame.Window) string { return "5" }))
	w := newWindow(t, "https://publisher.example/", metaDoc("https://frames.cdn.example/boot.html"))

	c := &Collector{}
	require.NoError(t, r.Preload(context.Background(), w, c, false))
	assert.Equal(t, []types.PreloadHint{
		{URL: "https://frames.cdn.example/boot.html?0123456789", Type: types.ResourceDocument},
		{URL: "https://3p.ampproject.net/0123456789/f.js", Type: types.ResourceScript},
	}, c.Hints)

	var hinted []string
	sink := HintSinkFunc(func(u, _ string) { hinted = append(hinted, u) })
	require.NoError(t, r.Preload(context.Background(), w, sink, true))
	assert.Equal(t, []string{
		"https://d-5.ampproject.net/0123456789/frame.html",
		"https://3p.ampproject.net/0123456789/f.js",
	}, hinted)
}

func TestPreloadConfigurationError(t *testing.T) {
	r := NewResolver(prodConfig)
	w := newWindow(t, "https://publisher.example/", metaDoc("http://frames.cdn.example/boot.html"))

	c := &Collector{}
	err := r.Preload(context.Background(), w, c, false)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	assert.Empty(t, c.Hints)
}
