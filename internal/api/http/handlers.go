package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/sandbox"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/utils"
)

// Version is reported by the status endpoints
const Version = "0.1.0"

// DocumentSource loads a host document's head metadata by URL
type DocumentSource interface {
	Document(ctx context.Context, rawURL string) (string, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	windows   *frame.Registry
	sandboxes *sandbox.Manager
	resolver  *bootstrap.Resolver
	codec     *protocol.Codec
	documents DocumentSource
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	logger    *zap.Logger
	checks    map[string]func() string
}

// Deps are the collaborators handlers need. Metrics, Tracer and Logger are
// optional.
type Deps struct {
	Windows   *frame.Registry
	Sandboxes *sandbox.Manager
	Resolver  *bootstrap.Resolver
	Codec     *protocol.Codec
	// Documents enables registering windows with fetch set. Nil disables it.
	Documents DocumentSource
	Metrics   *monitoring.Metrics
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
	// Checks report dependency state for /health, e.g. the cache breaker.
	Checks map[string]func() string
}

// NewHandlers creates a new handler set
func NewHandlers(d Deps) *Handlers {
	h := &Handlers{
		windows:   d.Windows,
		sandboxes: d.Sandboxes,
		resolver:  d.Resolver,
		codec:     d.Codec,
		documents: d.Documents,
		metrics:   d.Metrics,
		tracer:    d.Tracer,
		logger:    d.Logger,
		checks:    d.Checks,
	}
	if h.codec == nil {
		h.codec = protocol.NewCodec()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)

	windows := r.Group("/windows")
	windows.POST("", h.RegisterWindow)
	windows.DELETE("/:id", h.RemoveWindow)
	windows.GET("/:id/bootstrap", h.Bootstrap)
	windows.GET("/:id/preload", h.Preload)
	windows.POST("/:id/sentinels", h.MintSentinel)
	windows.POST("/:id/sandboxes", h.CreateSandbox)
	windows.GET("/:id/sandboxes", h.ListSandboxes)
	windows.DELETE("/:id/sandboxes/:sid", h.RemoveSandbox)
	windows.POST("/:id/messages", h.InboundMessage)

	messages := r.Group("/messages")
	messages.POST("/serialize", h.Serialize)
	messages.POST("/deserialize", h.Deserialize)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "3p frame host",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	deps := gin.H{}
	for name, check := range h.checks {
		deps[name] = check()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"windows":      h.windows.Count(),
		"sandboxes":    h.sandboxes.Stats(),
		"dependencies": deps,
	})
}

// Stats returns sandbox statistics and the metrics snapshot
func (h *Handlers) Stats(c *gin.Context) {
	stats := h.sandboxes.Stats()
	stats.Windows = h.windows.Count()
	resp := gin.H{"stats": stats}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// window resolves the :id path parameter, answering the request itself when
// the window is unknown.
func (h *Handlers) window(c *gin.Context) (frame.Window, bool) {
	wid := c.Param("id")
	if err := utils.ValidateID(wid, "window_id", true); err != nil {
		badRequest(c, err)
		return nil, false
	}
	w, err := h.windows.Get(id.WindowID(wid))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return w, true
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func (h *Handlers) trace(ctx context.Context, name string, tags map[string]string, fn func(context.Context) error) error {
	if h.tracer == nil {
		return fn(ctx)
	}
	return h.tracer.Trace(ctx, name, func(ctx context.Context, span *tracing.Span) error {
		for k, v := range tags {
			span.SetTag(k, v)
		}
		return fn(ctx)
	})
}

func (h *Handlers) windowsChanged() {
	if h.metrics != nil {
		h.metrics.SetWindowsActive(h.windows.Count())
	}
}
