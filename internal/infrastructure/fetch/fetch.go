package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/resilience"
)

// Fetch errors
var (
	ErrHostNotAllowed = errors.New("host not allowed")
	ErrNotHTML        = errors.New("response is not an html document")
	ErrTooLarge       = errors.New("document too large")
	ErrStatus         = errors.New("unexpected status")
)

// Config configures a Fetcher
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	MaxBytes   int64
	// RequestsPerSecond bounds outbound fetches. Zero is unlimited.
	RequestsPerSecond float64
	// AllowedHosts restricts fetches to these hostnames. Empty allows any.
	AllowedHosts []string
	UserAgent    string
}

// DefaultConfig returns production-ready fetch configuration
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		MaxRetries:        2,
		MaxBytes:          2 * 1024 * 1024,
		RequestsPerSecond: 10,
		UserAgent:         "sandbox3p-frame-host/1.0",
	}
}

// Fetcher loads and reduces host documents. It is safe for concurrent use.
type Fetcher struct {
	cfg     Config
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	policy  *bluemonday.Policy
	logger  *zap.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithBreaker replaces the default circuit breaker
func WithBreaker(b *resilience.Breaker) Option {
	return func(f *Fetcher) { f.breaker = b }
}

// New creates a Fetcher
func New(cfg Config, opts ...Option) *Fetcher {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetDoNotParseResponse(true)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	f := &Fetcher{
		cfg:     cfg,
		resty:   client,
		limiter: limiter,
		breaker: resilience.New("document-fetch", resilience.Settings{
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		policy: headPolicy(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// headPolicy keeps meta declarations and link elements only
func headPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("meta", "link")
	p.AllowAttrs("name", "content").OnElements("meta")
	p.AllowAttrs("rel", "href").OnElements("link")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return p
}

// Breaker exposes the fetch circuit breaker for health reporting
func (f *Fetcher) Breaker() *resilience.Breaker {
	return f.breaker
}

// Document fetches rawURL and returns its head metadata as HTML markup.
// Hosts outside the allow list are rejected before the breaker is consulted.
func (f *Fetcher) Document(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid document url %q", rawURL)
	}
	if len(f.cfg.AllowedHosts) > 0 && !slices.Contains(f.cfg.AllowedHosts, u.Hostname()) {
		return "", fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	body, err := resilience.Do(f.breaker, func() (string, error) {
		return f.get(ctx, u.String())
	})
	if err != nil {
		f.logger.Warn("Document fetch failed", zap.String("url", u.String()), zap.Error(err))
		return "", err
	}

	reduced := f.policy.Sanitize(body)
	f.logger.Debug("Document fetched",
		zap.String("url", u.String()),
		zap.Int("bytes", len(body)),
		zap.Int("kept", len(reduced)))
	return reduced, nil
}

func (f *Fetcher) get(ctx context.Context, target string) (string, error) {
	resp, err := f.resty.R().SetContext(ctx).Get(target)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", target, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("%w: %s", ErrStatus, resp.Status())
	}
	contentType := resp.Header().Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); contentType != "" &&
		(err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml")) {
		return "", fmt.Errorf("%w: %s", ErrNotHTML, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(raw, f.cfg.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return "", fmt.Errorf("%w: over %d bytes", ErrTooLarge, f.cfg.MaxBytes)
	}
	return decode(data, contentType)
}

// decode converts data to UTF-8 using the declared charset, or a detected one
// when the response declares none.
func decode(data []byte, contentType string) (string, error) {
	var (
		r   io.Reader
		err error
	)
	if _, params, perr := mime.ParseMediaType(contentType); perr == nil && params["charset"] != "" {
		r, err = charset.NewReader(bytes.NewReader(data), contentType)
	} else {
		r, err = charset.NewReaderLabel(DetectCharset(data), bytes.NewReader(data))
	}
	if err != nil {
		return string(data), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}
	return string(out), nil
}

// DetectCharset guesses the charset of an HTML body, defaulting to utf-8
func DetectCharset(data []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
