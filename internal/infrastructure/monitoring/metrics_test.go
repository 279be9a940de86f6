package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/bootstrap"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/domain/protocol"
)

func TestNewMetricsTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}

func TestObservers(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Serialized(protocol.EmbedSize)
	m.Serialized(protocol.MessageType("custom"))
	m.Decoded(protocol.OutcomeMalformed)
	m.Resolved(bootstrap.SourceCustom)
	m.SentinelMinted()
	m.SandboxCreated("a9")
	m.SandboxCreated("a9")
	m.SandboxRemoved("a9")
	m.Dispatched(true)
	m.Dispatched(false)
	m.SetWindowsActive(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSerialized.WithLabelValues("embed-size")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSerialized.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesDecoded.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("custom")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SentinelsMinted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SandboxesCreated.WithLabelValues("a9")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SandboxesActive))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.WindowsActive))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ActiveSandboxes)
	assert.Equal(t, int64(3), snap.ActiveWindows)
	assert.Equal(t, int64(1), snap.Resolutions)
	assert.Equal(t, int64(1), snap.Accepted)
	assert.Equal(t, int64(1), snap.Rejected)
}

func TestSpanFinished(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SpanFinished("resolve", 2*time.Millisecond, false)
	m.SpanFinished("resolve", time.Millisecond, true)
	m.SpanFinished("dispatch", time.Millisecond, false)

	assert.Equal(t, 3, testutil.CollectAndCount(m.SpanDuration, "sandbox3p_span_duration_seconds"))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/windows/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/windows/a", "/windows/b", "/missing"} {
		w := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, path, nil)
		require.NoError(t, err)
		router.ServeHTTP(w, req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/windows/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}
