package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/embed"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/frame"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/sentinel"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
)

var ErrSandboxNotFound = errors.New("sandbox not found")

// Observer is notified of sandbox lifecycle events.
type Observer interface {
	SentinelMinted()
	SandboxCreated(sandboxType string)
	SandboxRemoved(sandboxType string)
	Dispatched(accepted bool)
}

// CreateOptions tunes a single Create call
type CreateOptions struct {
	// Type replaces the embed element's type attribute.
	Type string
	// Strict disables the localhost relaxation of the custom URL check.
	Strict bool
}

// Dispatch rejection reasons
const (
	ReasonNotProtocol      = "not a protocol message"
	ReasonUnknownType      = "unknown message type"
	ReasonSentinelMismatch = "no sandbox with this sentinel"
)

// DispatchResult describes what happened to inbound traffic.
type DispatchResult struct {
	Accepted  bool             `json:"accepted"`
	Reason    string           `json:"reason,omitempty"`
	SandboxID string           `json:"sandbox_id,omitempty"`
	Message   protocol.Message `json:"message,omitempty"`
}

// Manager creates sandboxes and routes their traffic. It is safe for
// concurrent use.
type Manager struct {
	resolver *bootstrap.Resolver
	codec    *protocol.Codec
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	mu        sync.RWMutex
	sandboxes map[id.SandboxID]*types.Sandbox
	byWindow  map[id.WindowID][]id.SandboxID
	pageViews map[id.WindowID]string
	counters  map[string]int
}

// Option configures a Manager
type Option func(*Manager)

// WithCodec sets the protocol codec
func WithCodec(c *protocol.Codec) Option {
	return func(m *Manager) { m.codec = c }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithObserver sets the lifecycle observer
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a sandbox manager resolving bootstrap URLs with resolver
func NewManager(resolver *bootstrap.Resolver, opts ...Option) *Manager {
	m := &Manager{
		resolver:  resolver,
		codec:     protocol.NewCodec(),
		logger:    zap.NewNop(),
		now:       time.Now,
		sandboxes: make(map[id.SandboxID]*types.Sandbox),
		byWindow:  make(map[id.WindowID][]id.SandboxID),
		pageViews: make(map[id.WindowID]string),
		counters:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MintSentinel returns a fresh sentinel for a sandbox in w
func (m *Manager) MintSentinel(w frame.Window) string {
	s := sentinel.Generate(w)
	if m.observer != nil {
		m.observer.SentinelMinted()
	}
	return s
}

// Create builds a sandbox from embed markup. Configuration errors abort
// creation and leave no trace: no counter increment, no recorded sandbox.
func (m *Manager) Create(ctx context.Context, w frame.Window, markup string, opts CreateOptions) (*types.Sandbox, error) {
	el, err := embed.ExtractAttributes(markup, opts.Type)
	if err != nil {
		return nil, err
	}

	src, err := m.resolver.Resolve(ctx, w, opts.Strict)
	if err != nil {
		return nil, err
	}
	scriptURL := m.resolver.IntegrationScriptURL(w)
	sent := m.MintSentinel(w)
	now := m.now()

	attrs := embed.ContextMetadata(w, el, sent, embed.ContextOptions{
		Mode:       m.resolver.Config().Mode,
		PageViewID: m.pageView(w.ID()),
		ScriptURL:  scriptURL,
		StartTime:  now,
	})

	// The count is only consumed once the name encodes.
	m.mu.Lock()
	count := m.counters[el.Type] + 1
	name, err := frameName(src, scriptURL, el.Type, count, attrs)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.counters[el.Type] = count

	sb := &types.Sandbox{
		ID:         id.NewSandboxID().String(),
		WindowID:   w.ID().String(),
		Type:       el.Type,
		Count:      count,
		Sentinel:   sent,
		Src:        src,
		Name:       name,
		Attributes: attrs,
		CreatedAt:  now,
	}
	m.sandboxes[id.SandboxID(sb.ID)] = sb
	m.byWindow[w.ID()] = append(m.byWindow[w.ID()], id.SandboxID(sb.ID))
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.SandboxCreated(sb.Type)
	}
	m.logger.Info("Sandbox created",
		zap.String("sandbox_id", sb.ID),
		zap.String("window_id", sb.WindowID),
		zap.String("type", sb.Type),
		zap.Int("count", sb.Count))

	return sb, nil
}

// frameName encodes the iframe name attribute read by the bootstrap page.
func frameName(src, scriptURL, sandboxType string, count int, attrs map[string]any) (string, error) {
	host := ""
	if u, err := url.Parse(src); err == nil {
		host = u.Hostname()
	}
	name, err := sonic.MarshalString(map[string]any{
		"host":       host,
		"bootstrap":  scriptURL,
		"type":       sandboxType,
		"count":      count,
		"attributes": attrs,
	})
	if err != nil {
		return "", fmt.Errorf("encode frame name: %w", err)
	}
	return name, nil
}

func (m *Manager) pageView(wid id.WindowID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	pv, ok := m.pageViews[wid]
	if !ok {
		pv = uuid.NewString()
		m.pageViews[wid] = pv
	}
	return pv
}

// Dispatch decodes traffic received by w and matches it to one of w's
// sandboxes by sentinel.
func (m *Manager) Dispatch(w frame.Window, raw any) DispatchResult {
	res := m.dispatch(w, raw)
	if m.observer != nil {
		m.observer.Dispatched(res.Accepted)
	}
	return res
}

func (m *Manager) dispatch(w frame.Window, raw any) DispatchResult {
	msg, ok := m.codec.Deserialize(raw)
	if !ok {
		return DispatchResult{Reason: ReasonNotProtocol}
	}
	if !msg.Known() {
		return DispatchResult{Reason: ReasonUnknownType, Message: msg}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sid := range m.byWindow[w.ID()] {
		sb := m.sandboxes[sid]
		if sb != nil && sentinel.Match(sb.Sentinel, msg.Sentinel()) {
			return DispatchResult{Accepted: true, SandboxID: sb.ID, Message: msg}
		}
	}

	m.logger.Debug("Dropped message with unmatched sentinel",
		zap.String("window_id", w.ID().String()),
		zap.String("type", string(msg.Type())))
	return DispatchResult{Reason: ReasonSentinelMismatch, Message: msg}
}

// Get returns a sandbox by ID
func (m *Manager) Get(sid string) (*types.Sandbox, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sb, ok := m.sandboxes[id.SandboxID(sid)]
	return sb, ok
}

// List returns w's sandboxes in creation order
func (m *Manager) List(wid id.WindowID) []*types.Sandbox {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Sandbox, 0, len(m.byWindow[wid]))
	for _, sid := range m.byWindow[wid] {
		if sb, ok := m.sandboxes[sid]; ok {
			out = append(out, sb)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Remove destroys a sandbox. Counters are not rewound.
func (m *Manager) Remove(sid string) error {
	m.mu.Lock()
	sb, ok := m.sandboxes[id.SandboxID(sid)]
	if !ok {
		m.mu.Unlock()
		return ErrSandboxNotFound
	}
	m.removeLocked(sb)
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.SandboxRemoved(sb.Type)
	}
	return nil
}

func (m *Manager) removeLocked(sb *types.Sandbox) {
	sid := id.SandboxID(sb.ID)
	delete(m.sandboxes, sid)

	wid := id.WindowID(sb.WindowID)
	ids := m.byWindow[wid]
	for i, cur := range ids {
		if cur == sid {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.byWindow, wid)
	} else {
		m.byWindow[wid] = ids
	}
}

// RemoveWindow destroys every sandbox of w and forgets its bootstrap URL.
func (m *Manager) RemoveWindow(ctx context.Context, w frame.Window) error {
	m.mu.Lock()
	var removed []*types.Sandbox
	for _, sid := range m.byWindow[w.ID()] {
		if sb, ok := m.sandboxes[sid]; ok {
			removed = append(removed, sb)
			delete(m.sandboxes, sid)
		}
	}
	delete(m.byWindow, w.ID())
	delete(m.pageViews, w.ID())
	m.mu.Unlock()

	if m.observer != nil {
		for _, sb := range removed {
			m.observer.SandboxRemoved(sb.Type)
		}
	}
	return m.resolver.Forget(ctx, w)
}

// ResetCounters zeroes the per-type frame counters. Test harness only.
func (m *Manager) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int)
}

// Stats returns manager statistics. Windows counts windows hosting at least
// one sandbox.
func (m *Manager) Stats() types.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	perType := make(map[string]int)
	for _, sb := range m.sandboxes {
		perType[sb.Type]++
	}
	return types.Stats{
		Windows:   len(m.byWindow),
		Sandboxes: len(m.sandboxes),
		PerType:   perType,
	}
}
