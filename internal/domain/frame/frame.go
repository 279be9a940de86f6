package frame

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

// maxDepth bounds the ancestor walk for hierarchies that fail to terminate.
const maxDepth = 256

// Window is the host-side view of a browsing context.
type Window interface {
	ID() id.WindowID
	// Parent returns the enclosing window. The top window returns itself.
	Parent() Window
	Location() *url.URL
	// Entropy returns the strong random source, or nil if the context has none.
	Entropy() id.Source
	Document() *Document
}

// Frame is a static Window built from data the rendering runtime extracted.
type Frame struct {
	id       id.WindowID
	parent   Window
	location *url.URL
	entropy  id.Source
	document *Document
	referrer string
}

// Option configures a Frame
type Option func(*Frame)

// WithParent nests the frame inside parent
func WithParent(parent Window) Option {
	return func(f *Frame) { f.parent = parent }
}

// WithEntropy sets the strong random source
func WithEntropy(src id.Source) Option {
	return func(f *Frame) { f.entropy = src }
}

// WithoutEntropy models a context that exposes no strong random source
func WithoutEntropy() Option {
	return func(f *Frame) { f.entropy = nil }
}

// WithDocument attaches the parsed host document
func WithDocument(doc *Document) Option {
	return func(f *Frame) { f.document = doc }
}

// WithReferrer records the document referrer
func WithReferrer(referrer string) Option {
	return func(f *Frame) { f.referrer = referrer }
}

// WithID pins the window identifier
func WithID(wid id.WindowID) Option {
	return func(f *Frame) { f.id = wid }
}

// New creates a frame located at rawURL.
func New(rawURL string, opts ...Option) (*Frame, error) {
	loc, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid window location %q: %w", rawURL, err)
	}
	if loc.Scheme == "" || loc.Host == "" {
		return nil, fmt.Errorf("invalid window location %q: absolute URL required", rawURL)
	}

	f := &Frame{
		location: loc,
		entropy:  id.StrongSource(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.id == "" {
		f.id = id.NewWindowID()
	}
	if f.document == nil {
		f.document = EmptyDocument()
	}
	return f, nil
}

func (f *Frame) ID() id.WindowID { return f.id }

func (f *Frame) Parent() Window {
	if f.parent == nil {
		return f
	}
	return f.parent
}

func (f *Frame) Location() *url.URL {
	u := *f.location
	return &u
}

func (f *Frame) Entropy() id.Source  { return f.entropy }
func (f *Frame) Document() *Document { return f.document }
func (f *Frame) Referrer() string    { return f.referrer }

// Depth counts the steps from w up to the top window, the first ancestor that
// is its own parent. The top window has depth 0.
func Depth(w Window) int {
	depth := 0
	for cur := w; cur != nil && depth < maxDepth; depth++ {
		parent := cur.Parent()
		if parent == nil || parent == cur {
			return depth
		}
		cur = parent
	}
	return depth
}

// Top returns the top window of w's hierarchy.
func Top(w Window) Window {
	cur := w
	for i := 0; cur != nil && i < maxDepth; i++ {
		parent := cur.Parent()
		if parent == nil || parent == cur {
			return cur
		}
		cur = parent
	}
	return cur
}

// Origin returns scheme://host[:port] for u, omitting the scheme's default port.
func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return scheme + "://" + host + ":" + port
	}
	return scheme + "://" + host
}
