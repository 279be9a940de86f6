package tracing

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/id"
)

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

const spanBuffer = 1000

type (
	TraceID string
	SpanID  string
)

// SpanContext is the part of a span that travels with a request.
type SpanContext struct {
	TraceID TraceID
	SpanID  SpanID
}

type spanContextKey struct{}

// WithSpanContext returns ctx carrying sc.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanContextKey{}, sc)
}

// SpanContextFrom returns the span context carried by ctx, zero if none.
func SpanContextFrom(ctx context.Context) SpanContext {
	sc, _ := ctx.Value(spanContextKey{}).(SpanContext)
	return sc
}

// GetTraceID returns the trace carried by ctx
func GetTraceID(ctx context.Context) TraceID { return SpanContextFrom(ctx).TraceID }

// GetSpanID returns the innermost span carried by ctx
func GetSpanID(ctx context.Context) SpanID { return SpanContextFrom(ctx).SpanID }

// Span is one timed operation.
type Span struct {
	SpanContext
	ParentID   SpanID
	Name       string
	Service    string
	StartTime  time.Time
	Duration   time.Duration
	Tags       map[string]string
	Error      error
	StatusCode int
}

// Finish fixes the span duration
func (s *Span) Finish() { s.Duration = time.Since(s.StartTime) }

func (s *Span) SetTag(key, value string) { s.Tags[key] = value }

// SetError marks the span failed; an unset status becomes 500.
func (s *Span) SetError(err error) {
	s.Error = err
	if s.StatusCode == 0 {
		s.StatusCode = http.StatusInternalServerError
	}
}

func (s *Span) SetStatus(code int) { s.StatusCode = code }

func (s *Span) fields() []zap.Field {
	fields := make([]zap.Field, 0, 6+len(s.Tags))
	fields = append(fields,
		zap.String("trace_id", string(s.TraceID)),
		zap.String("span_id", string(s.SpanID)),
		zap.String("operation", s.Name),
		zap.String("service", s.Service),
		zap.Duration("duration", s.Duration),
	)
	if s.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(s.ParentID)))
	}
	for k, v := range s.Tags {
		fields = append(fields, zap.String(k, v))
	}
	return fields
}

// Observer receives every finished span, e.g. to feed a latency histogram.
type Observer interface {
	SpanFinished(operation string, d time.Duration, failed bool)
}

// Tracer hands finished spans to a background collector that logs them and
// notifies the observer. Submit never blocks; a full buffer drops the span.
type Tracer struct {
	service  string
	logger   *zap.Logger
	observer Observer

	mu     sync.RWMutex
	queue  chan *Span
	closed bool
	done   chan struct{}
}

// Option configures a Tracer
type Option func(*Tracer)

// WithObserver sets the span observer
func WithObserver(o Observer) Option {
	return func(t *Tracer) { t.observer = o }
}

// New starts a tracer. A nil logger discards span logs.
func New(service string, logger *zap.Logger, opts ...Option) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		queue:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.collect()
	return t
}

// StartSpan opens a span under the one carried by ctx, or a new trace.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	parent := SpanContextFrom(ctx)
	sc := SpanContext{TraceID: parent.TraceID, SpanID: SpanID(id.Default().Generate().String())}
	if sc.TraceID == "" {
		sc.TraceID = TraceID(id.Default().Generate().String())
	}

	span := &Span{
		SpanContext: sc,
		ParentID:    parent.SpanID,
		Name:        name,
		Service:     t.service,
		StartTime:   time.Now(),
		Tags:        make(map[string]string),
	}
	return span, WithSpanContext(ctx, sc)
}

// Trace runs fn inside a span named name and submits it.
func (t *Tracer) Trace(ctx context.Context, name string, fn func(ctx context.Context, span *Span) error) error {
	span, ctx := t.StartSpan(ctx, name)
	defer func() {
		span.Finish()
		t.Submit(span)
	}()

	err := fn(ctx, span)
	if err != nil {
		span.SetError(err)
	}
	return err
}

// Submit queues a finished span. Spans submitted after Close are dropped.
func (t *Tracer) Submit(span *Span) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	select {
	case t.queue <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("operation", span.Name),
			zap.String("trace_id", string(span.TraceID)))
	}
}

// Close drains the queue and stops the collector. Safe to call twice.
func (t *Tracer) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.queue {
		if t.observer != nil {
			t.observer.SpanFinished(span.Name, span.Duration, span.Error != nil)
		}
		if span.Error != nil {
			t.logger.Error("span failed", append(span.fields(), zap.Error(span.Error))...)
			continue
		}
		t.logger.Debug("span completed", span.fields()...)
	}
}

// Extract reads the propagation headers
func Extract(h http.Header) SpanContext {
	return SpanContext{
		TraceID: TraceID(h.Get(HeaderTraceID)),
		SpanID:  SpanID(h.Get(HeaderSpanID)),
	}
}

// Inject writes ctx's span context into h
func Inject(ctx context.Context, h http.Header) {
	sc := SpanContextFrom(ctx)
	if sc.TraceID != "" {
		h.Set(HeaderTraceID, string(sc.TraceID))
	}
	if sc.SpanID != "" {
		h.Set(HeaderSpanID, string(sc.SpanID))
	}
}
