package ws

import (
	"net/http"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/sandbox"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/utils"
)

// Channel ops
const (
	OpReady     = "ready"
	OpDispatch  = "dispatch"
	OpSerialize = "serialize"
	OpPing      = "ping"
	OpPong      = "pong"
	OpError     = "error"
)

const (
	// idleTimeout closes channels that send nothing, pings included
	idleTimeout  = 2 * time.Minute
	writeTimeout = 10 * time.Second
	// envelope overhead on top of the largest accepted message
	maxFrameSize = utils.MaxMessageSize + 4096
)

// Envelope is a client frame
type Envelope struct {
	Op       string         `json:"op"`
	Data     any            `json:"data,omitempty"`
	Type     string         `json:"type,omitempty"`
	Sentinel string         `json:"sentinel,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Version  string         `json:"version,omitempty"`
}

// Reply is a server frame
type Reply struct {
	Op       string                  `json:"op"`
	WindowID string                  `json:"window_id,omitempty"`
	Result   *sandbox.DispatchResult `json:"result,omitempty"`
	Message  string                  `json:"message,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Handler manages window channels
type Handler struct {
	windows   *frame.Registry
	sandboxes *sandbox.Manager
	codec     *protocol.Codec
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithAllowedOrigins restricts the Origin header of upgrade requests. A "*"
// entry or an empty list allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		if len(origins) == 0 || slices.Contains(origins, "*") {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return slices.Contains(origins, r.Header.Get("Origin"))
		}
	}
}

// NewHandler creates a new WebSocket handler
func NewHandler(windows *frame.Registry, sandboxes *sandbox.Manager, codec *protocol.Codec, opts ...Option) *Handler {
	h := &Handler{
		windows:   windows,
		sandboxes: sandboxes,
		codec:     codec,
		logger:    zap.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if h.codec == nil {
		h.codec = protocol.NewCodec()
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConnection upgrades the request and serves the window's channel
// until the client goes away, the window is removed or the channel idles.
func (h *Handler) HandleConnection(c *gin.Context) {
	wid := c.Param("id")
	if err := utils.ValidateID(wid, "window_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.windows.Get(id.WindowID(wid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	log := h.logger.With(zap.String("window_id", wid))
	log.Debug("Channel opened")

	if err := h.send(conn, Reply{Op: OpReady, WindowID: wid}); err != nil {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("Channel read failed", zap.Error(err))
			}
			break
		}
		if kind != websocket.TextMessage {
			if h.sendError(conn, "binary frames are not supported") != nil {
				break
			}
			continue
		}

		// The window may have been removed while the channel was open.
		if _, err := h.windows.Get(w.ID()); err != nil {
			_ = h.sendError(conn, err.Error())
			break
		}

		if err := h.send(conn, h.handle(w, raw)); err != nil {
			break
		}
	}

	log.Debug("Channel closed")
}

func (h *Handler) handle(w frame.Window, raw []byte) Reply {
	var env Envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return Reply{Op: OpError, Error: "invalid envelope: " + err.Error()}
	}

	switch env.Op {
	case OpDispatch:
		if s, ok := env.Data.(string); ok {
			if err := utils.ValidateSize(s, "data", utils.MaxMessageSize); err != nil {
				return Reply{Op: OpError, Error: err.Error()}
			}
		}
		result := h.sandboxes.Dispatch(w, env.Data)
		return Reply{Op: OpDispatch, Result: &result}
	case OpSerialize:
		mt := protocol.MessageType(env.Type)
		if !mt.Known() {
			return Reply{Op: OpError, Error: "unknown message type: " + env.Type}
		}
		if err := utils.ValidateJSONDepth(env.Payload, utils.MaxJSONDepth); err != nil {
			return Reply{Op: OpError, Error: err.Error()}
		}
		msg, err := h.codec.Serialize(mt, env.Sentinel, env.Payload, env.Version)
		if err != nil {
			return Reply{Op: OpError, Error: err.Error()}
		}
		return Reply{Op: OpSerialize, Message: msg}
	case OpPing:
		return Reply{Op: OpPong}
	default:
		return Reply{Op: OpError, Error: "unknown op: " + env.Op}
	}
}

func (h *Handler) send(conn *websocket.Conn, reply Reply) error {
	data, err := sonic.Marshal(reply)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) sendError(conn *websocket.Conn, msg string) error {
	return h.send(conn, Reply{Op: OpError, Error: msg})
}
