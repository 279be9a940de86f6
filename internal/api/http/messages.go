package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/utils"
)

func validateTraffic(v any) error {
	if s, ok := v.(string); ok {
		return utils.ValidateSize(s, "message", utils.MaxMessageSize)
	}
	return nil
}

// InboundMessage routes channel traffic received by the window to the
// sandbox whose sentinel it carries.
func (h *Handlers) InboundMessage(c *gin.Context) {
	w, ok := h.window(c)
	if !ok {
		return
	}

	var req types.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validateTraffic(req.Data); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.sandboxes.Dispatch(w, req.Data))
}

// Serialize encodes a protocol message
func (h *Handlers) Serialize(c *gin.Context) {
	var req types.SerializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	mt := protocol.MessageType(req.Type)
	if !mt.Known() {
		badRequest(c, errors.New("unknown message type: "+req.Type))
		return
	}
	if err := utils.ValidateJSONDepth(req.Data, utils.MaxJSONDepth); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.codec.Serialize(mt, req.Sentinel, req.Data, req.Version)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Deserialize decodes arbitrary channel traffic. Foreign and malformed
// traffic is not an error: the answer is simply "no message".
func (h *Handlers) Deserialize(c *gin.Context) {
	var req types.DeserializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validateTraffic(req.Message); err != nil {
		badRequest(c, err)
		return
	}

	msg, ok := h.codec.Deserialize(req.Message)
	resp := gin.H{
		"amp":     protocol.IsAmpMessage(req.Message),
		"message": nil,
	}
	if ok {
		resp["message"] = msg
	}
	c.JSON(http.StatusOK, resp)
}
