package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/sandbox"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/utils"
)

// CreateSandbox creates a sandbox from embed markup
func (h *Handlers) CreateSandbox(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}

	var req types.CreateSandboxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateSize(req.Markup, "markup", utils.MaxMarkupSize); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateEmbedType(req.Type); err != nil {
		badRequest(c, err)
		return
	}

	var sb *types.Sandbox
	err := h.trace(c.Request.Context(), "sandbox.create",
		map[string]string{"window_id": w.ID().String(), "type": req.Type},
		func(ctx context.Context) error {
			var err error
			sb, err = h.sandboxes.Create(ctx, w, req.Markup, sandbox.CreateOptions{
				Type:   req.Type,
				Strict: req.Strict,
			})
			return err
		})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, sb)
}

// ListSandboxes lists the window's sandboxes in creation order
func (h *Handlers) ListSandboxes(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"sandboxes": h.sandboxes.List(w.ID())})
}

// RemoveSandbox destroys one of the window's sandboxes
func (h *Handlers) RemoveSandbox(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}
	sid := c.Param("sid")
	if err := utils.ValidateID(sid, "sandbox_id", true); err != nil {
		badRequest(c, err)
		return
	}

	sb, found := h.sandboxes.Get(sid)
	if !found || sb.WindowID != w.ID().String() {
		h.fail(c, sandbox.ErrSandboxNotFound)
		return
	}
	if err := h.sandboxes.Remove(sid); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      sid,
	})
}
