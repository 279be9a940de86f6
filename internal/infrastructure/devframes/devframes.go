package devframes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
)

// DefaultPatterns are the servable build artifacts
var DefaultPatterns = []string{"**/*.html", "**/*.js", "**/*.css", "**/*.map"}

// Entry is a servable file
type Entry struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	ModTime     time.Time `json:"mod_time"`
}

// Server serves files below root
type Server struct {
	root     string
	patterns []string
	logger   *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithPatterns replaces DefaultPatterns
func WithPatterns(patterns ...string) Option {
	return func(s *Server) { s.patterns = patterns }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server for the directory root
func New(root string, opts ...Option) (*Server, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("dev frame dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("dev frame dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dev frame dir %s is not a directory", abs)
	}

	s := &Server{
		root:     abs,
		patterns: DefaultPatterns,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range s.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}
	return s, nil
}

// Root returns the absolute directory being served
func (s *Server) Root() string {
	return s.root
}

func (s *Server) match(rel string) bool {
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Index lists servable files sorted by path
func (s *Server) Index(ctx context.Context) ([]Entry, error) {
	var (
		mu      sync.Mutex
		entries []Entry
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, s.root, func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !s.match(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		entry := Entry{
			Path:        rel,
			Size:        info.Size(),
			ContentType: contentType(p),
			ModTime:     info.ModTime(),
		}
		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", s.root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Handler serves files by their slash-separated path relative to root
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(http.HandlerFunc(s.serve))
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if rel == "" || !s.match(rel) {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	f, err := os.Open(full)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to open dev frame", zap.String("path", rel), zap.Error(err))
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType(full))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// contentType prefers the registered extension type and sniffs otherwise
func contentType(file string) string {
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	mt, err := mimetype.DetectFile(file)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}
