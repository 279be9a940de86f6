package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/cache"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

const (
	// MetaName is the host document declaration carrying a custom URL.
	MetaName = "amp-3p-iframe-src"
	// DefaultBasename is the bootstrap page served by the frame host.
	DefaultBasename = "frame"

	adsLocalhost = "http://ads.localhost"
)

// Source says where a resolved URL came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceCustom   Source = "custom"
	SourceDefault  Source = "default"
	SourceOverride Source = "override"
)

// Observer is notified of every successful resolution.
type Observer interface {
	Resolved(src Source)
}

// Mode is the build the host runs.
type Mode struct {
	LocalDev bool
	Test     bool
	Minified bool
	Version  string
}

// Development reports whether dev-server URLs apply
func (m Mode) Development() bool {
	return m.LocalDev || m.Test
}

// Hosts are the URLs bootstrap pages are served from.
type Hosts struct {
	// ThirdPartyURL serves the integration script, e.g. https://3p.ampproject.net
	ThirdPartyURL string
	// ThirdPartyFrameHost is the parent domain of per-window frame subdomains.
	ThirdPartyFrameHost string
	// DevFrameBase replaces http://ads.localhost:<port> in development.
	DevFrameBase string
}

// Config configures a Resolver
type Config struct {
	Mode  Mode
	Hosts Hosts
}

// Resolver resolves and caches bootstrap URLs. It is safe for concurrent use.
type Resolver struct {
	cfg      Config
	store    cache.Store
	logger   *zap.Logger
	observer Observer
	random   func(frame.Window) string

	mu          sync.Mutex
	subdomains  map[id.WindowID]string
	overrideURL string
}

// Option configures a Resolver
type Option func(*Resolver)

// WithStore sets the URL cache
func WithStore(s cache.Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithObserver sets the resolution observer
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithRandom replaces the subdomain random source
func WithRandom(fn func(frame.Window) string) Option {
	return func(r *Resolver) { r.random = fn }
}

// NewResolver creates a resolver backed by an in-memory cache unless a store
// is given.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:        cfg,
		logger:     zap.NewNop(),
		random:     func(w frame.Window) string { return id.RandomDigits(w.Entropy()) },
		subdomains: make(map[id.WindowID]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = cache.NewMemory()
	}
	return r
}

// Config returns the resolver configuration
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve returns the bootstrap URL for w, computing it on first use. A custom
// URL declared by the document wins over the default. Configuration errors
// from the custom URL are returned unchanged and nothing is cached.
func (r *Resolver) Resolve(ctx context.Context, w frame.Window, strict bool) (string, error) {
	cached, ok, err := r.store.Get(ctx, w.ID())
	if err != nil {
		return "", fmt.Errorf("read bootstrap cache: %w", err)
	}
	if ok {
		r.observe(SourceCache)
		return cached, nil
	}

	u, found, err := r.Custom(w, strict)
	if err != nil {
		r.logger.Warn("Rejected custom bootstrap URL",
			zap.String("window_id", w.ID().String()),
			zap.Error(err))
		return "", err
	}
	src := SourceCustom
	if !found {
		u, src = r.defaultURL(w, DefaultBasename)
	}

	stored, err := r.store.SetIfAbsent(ctx, w.ID(), u)
	if err != nil {
		return "", fmt.Errorf("write bootstrap cache: %w", err)
	}
	if stored != u {
		src = SourceCache
	}

	r.logger.Debug("Resolved bootstrap URL",
		zap.String("window_id", w.ID().String()),
		zap.String("source", string(src)),
		zap.String("url", stored))
	r.observe(src)
	return stored, nil
}

// Custom returns the document's custom bootstrap URL with "?<version>"
// appended. found is false when the document declares none.
func (r *Resolver) Custom(w frame.Window, strict bool) (u string, found bool, err error) {
	raw, ok := w.Document().MetaContent(MetaName)
	if !ok {
		return "", false, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", true, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return "", true, fmt.Errorf("%w: %q", ErrNotHTTPS, raw)
	}
	if strings.Contains(raw, "?") {
		return "", true, fmt.Errorf("%w: %q", ErrQueryString, raw)
	}
	localhost := parsed.Hostname() == "localhost" && !strict
	if !localhost && frame.Origin(parsed) == frame.Origin(w.Location()) {
		return "", true, fmt.Errorf("%w: %q", ErrSameOrigin, raw)
	}

	return raw + "?" + r.cfg.Mode.Version, true, nil
}

// Default returns the default bootstrap URL for w. basename selects the page
// served by the frame host; "" means DefaultBasename.
func (r *Resolver) Default(w frame.Window, basename string) string {
	u, _ := r.defaultURL(w, basename)
	return u
}

func (r *Resolver) defaultURL(w frame.Window, basename string) (string, Source) {
	if basename == "" {
		basename = DefaultBasename
	}
	mode := r.cfg.Mode

	if mode.Development() {
		r.mu.Lock()
		override := r.overrideURL
		r.mu.Unlock()
		if override != "" {
			return override, SourceOverride
		}

		seg := "current/" + basename + ".max"
		if mode.Minified {
			seg = mode.Version + "/" + basename
		}
		return r.devBase(w) + "/dist.3p/" + seg + ".html", SourceDefault
	}

	return "https://" + r.subdomain(w) + "." + r.cfg.Hosts.ThirdPartyFrameHost +
		"/" + mode.Version + "/" + basename + ".html", SourceDefault
}

// IntegrationScriptURL returns the script a bootstrap page loads to run the
// integration.
func (r *Resolver) IntegrationScriptURL(w frame.Window) string {
	mode := r.cfg.Mode
	if !mode.Development() {
		return strings.TrimSuffix(r.cfg.Hosts.ThirdPartyURL, "/") + "/" + mode.Version + "/f.js"
	}
	if mode.Minified {
		return r.devBase(w) + "/dist.3p/" + mode.Version + "/f.js"
	}
	return r.devBase(w) + "/dist.3p/current/integration.js"
}

// devBase is the configured dev frame base or http://ads.localhost:<port>,
// with the port taken from w or, failing that, its parent.
func (r *Resolver) devBase(w frame.Window) string {
	if base := r.cfg.Hosts.DevFrameBase; base != "" {
		return strings.TrimSuffix(base, "/")
	}
	port := w.Location().Port()
	if port == "" {
		if parent := w.Parent(); parent != nil {
			port = parent.Location().Port()
		}
	}
	if port == "" {
		return adsLocalhost
	}
	return adsLocalhost + ":" + port
}

// subdomain returns the window's "d-<rand>" label, minting it on first use.
func (r *Resolver) subdomain(w frame.Window) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subdomains[w.ID()]; ok {
		return s
	}
	s := "d-" + r.random(w)
	r.subdomains[w.ID()] = s
	return s
}

// Forget drops everything cached for w. Called when the window goes away.
func (r *Resolver) Forget(ctx context.Context, w frame.Window) error {
	r.mu.Lock()
	delete(r.subdomains, w.ID())
	r.mu.Unlock()
	if err := r.store.Delete(ctx, w.ID()); err != nil {
		return fmt.Errorf("delete bootstrap cache entry: %w", err)
	}
	return nil
}

func (r *Resolver) observe(src Source) {
	if r.observer != nil {
		r.observer.Resolved(src)
	}
}
