package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/utils"
)

// RegisterWindow registers a host window, optionally nested in a registered
// parent and carrying a snapshot of its document, either posted inline or
// fetched from the window URL.
func (h *Handlers) RegisterWindow(c *gin.Context) {
	var req types.RegisterWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateWindowURL(req.URL); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateSize(req.HTML, "html", utils.MaxHTMLSize); err != nil {
		badRequest(c, err)
		return
	}

	var opts []frame.Option
	if req.ParentID != nil {
		if err := utils.ValidateID(*req.ParentID, "parent_id", true); err != nil {
			badRequest(c, err)
			return
		}
		parent, err := h.windows.Get(id.WindowID(*req.ParentID))
		if err != nil {
			h.fail(c, fmt.Errorf("parent %s: %w", *req.ParentID, err))
			return
		}
		opts = append(opts, frame.WithParent(parent))
	}
	if req.Fetch && req.HTML == "" {
		if h.documents == nil {
			badRequest(c, errors.New("document fetching is disabled"))
			return
		}
		html, err := h.documents.Document(c.Request.Context(), req.URL)
		if err != nil {
			h.fail(c, err)
			return
		}
		req.HTML = html
	}
	if req.HTML != "" {
		doc, err := frame.ParseDocumentString(req.HTML)
		if err != nil {
			badRequest(c, fmt.Errorf("html: %w", err))
			return
		}
		opts = append(opts, frame.WithDocument(doc))
	}
	if req.Referrer != "" {
		opts = append(opts, frame.WithReferrer(req.Referrer))
	}
	if req.WeakRandom {
		opts = append(opts, frame.WithoutEntropy())
	}

	w, err := frame.New(req.URL, opts...)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.windows.Register(w); err != nil {
		h.fail(c, err)
		return
	}
	h.windowsChanged()

	h.logger.Info("Window registered",
		zap.String("window_id", w.ID().String()),
		zap.Int("depth", frame.Depth(w)))

	c.JSON(http.StatusCreated, gin.H{
		"id":    w.ID(),
		"depth": frame.Depth(w),
	})
}

// RemoveWindow unregisters a window, destroying its sandboxes and cached
// bootstrap URL. Child windows keep working with their own reference.
func (h *Handlers) RemoveWindow(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	if err := h.sandboxes.RemoveWindow(c.Request.Context(), w); err != nil {
		h.fail(c, err)
		return
	}
	h.windows.Remove(w.ID())
	h.windowsChanged()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      w.ID(),
	})
}

// Bootstrap resolves the window's bootstrap URL
func (h *Handlers) Bootstrap(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	strict, err := queryBool(c, "strict")
	if err != nil {
		badRequest(c, fmt.Errorf("strict: %w", err))
		return
	}

	var u string
	err = h.trace(c.Request.Context(), "bootstrap.resolve",
		map[string]string{"window_id": w.ID().String()},
		func(ctx context.Context) error {
			var err error
			u, err = h.resolver.Resolve(ctx, w, strict)
			return err
		})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": u})
}

// Preload lists the hints a host should warm before creating a sandbox
func (h *Handlers) Preload(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	disallowCustom, err := queryBool(c, "disallow_custom")
	if err != nil {
		badRequest(c, fmt.Errorf("disallow_custom: %w", err))
		return
	}

	hints := &bootstrap.Collector{}
	if err := h.resolver.Preload(c.Request.Context(), w, hints, disallowCustom); err != nil {
		h.fail(c, err)
		return
	}
	if hints.Hints == nil {
		hints.Hints = []types.PreloadHint{}
	}

	c.JSON(http.StatusOK, gin.H{"hints": hints.Hints})
}

// MintSentinel returns a fresh sentinel for the window
func (h *Handlers) MintSentinel(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"sentinel": h.sandboxes.MintSentinel(w)})
}
