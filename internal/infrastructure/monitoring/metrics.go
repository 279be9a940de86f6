package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
)

const namespace = "sandbox3p"

// Metrics holds all Prometheus metrics. It implements the observer
// interfaces of the protocol, bootstrap and sandbox packages.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Protocol metrics
	MessagesSerialized *prometheus.CounterVec
	MessagesDecoded    *prometheus.CounterVec

	// Bootstrap metrics
	Resolutions *prometheus.CounterVec

	// Sandbox metrics
	SentinelsMinted  prometheus.Counter
	SandboxesCreated *prometheus.CounterVec
	SandboxesActive  prometheus.Gauge
	Dispatches       *prometheus.CounterVec

	// Window metrics
	WindowsActive prometheus.Gauge

	// Traced operations
	SpanDuration *prometheus.HistogramVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	TotalDuration   float64 `json:"total_duration_seconds"`
	ActiveWindows   int64   `json:"active_windows"`
	ActiveSandboxes int64   `json:"active_sandboxes"`
	Resolutions     int64   `json:"resolutions"`
	Accepted        int64   `json:"messages_accepted"`
	Rejected        int64   `json:"messages_rejected"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// NewMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in the server and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Protocol metrics
		MessagesSerialized: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_serialized_total",
				Help:      "Protocol messages serialized by type",
			},
			[]string{"type"},
		),
		MessagesDecoded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_decoded_total",
				Help:      "Inbound channel traffic by decode outcome",
			},
			[]string{"outcome"},
		),

		// Bootstrap metrics
		Resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bootstrap_resolutions_total",
				Help:      "Bootstrap URL resolutions by source",
			},
			[]string{"source"},
		),

		// Sandbox metrics
		SentinelsMinted: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sentinels_minted_total",
				Help:      "Total number of sentinels generated",
			},
		),
		SandboxesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sandboxes_created_total",
				Help:      "Sandboxes created by embed type",
			},
			[]string{"type"},
		),
		SandboxesActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sandboxes_active",
				Help:      "Number of live sandboxes",
			},
		),
		Dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Inbound messages routed to sandboxes",
			},
			[]string{"result"},
		),

		// Window metrics
		WindowsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "windows_active",
				Help:      "Number of registered host windows",
			},
		),

		SpanDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "span_duration_seconds",
				Help:      "Duration of traced operations",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	f.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Frame host uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// SpanFinished implements tracing.Observer
func (m *Metrics) SpanFinished(operation string, d time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.SpanDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// Serialized implements protocol.Observer
func (m *Metrics) Serialized(t protocol.MessageType) {
	label := string(t)
	if !t.Known() {
		label = "unknown"
	}
	m.MessagesSerialized.WithLabelValues(label).Inc()
}

// Decoded implements protocol.Observer
func (m *Metrics) Decoded(o protocol.Outcome) {
	m.MessagesDecoded.WithLabelValues(string(o)).Inc()
}

// Resolved implements bootstrap.Observer
func (m *Metrics) Resolved(src bootstrap.Source) {
	m.Resolutions.WithLabelValues(string(src)).Inc()
	m.mu.Lock()
	m.snapshot.Resolutions++
	m.mu.Unlock()
}

// SentinelMinted implements sandbox.Observer
func (m *Metrics) SentinelMinted() {
	m.SentinelsMinted.Inc()
}

// SandboxCreated implements sandbox.Observer
func (m *Metrics) SandboxCreated(sandboxType string) {
	m.SandboxesCreated.WithLabelValues(sandboxType).Inc()
	m.SandboxesActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSandboxes++
	m.mu.Unlock()
}

// SandboxRemoved implements sandbox.Observer
func (m *Metrics) SandboxRemoved(string) {
	m.SandboxesActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSandboxes--
	m.mu.Unlock()
}

// Dispatched implements sandbox.Observer
func (m *Metrics) Dispatched(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.Dispatches.WithLabelValues(result).Inc()

	m.mu.Lock()
	if accepted {
		m.snapshot.Accepted++
	} else {
		m.snapshot.Rejected++
	}
	m.mu.Unlock()
}

// SetWindowsActive sets the number of registered windows
func (m *Metrics) SetWindowsActive(count int) {
	m.WindowsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveWindows = int64(count)
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
