package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens a span per request, continuing the caller's trace
// when the propagation headers are present, and echoes the ids back.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if upstream := Extract(c.Request.Header); upstream.TraceID != "" {
			ctx = WithSpanContext(ctx, upstream)
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.url", c.Request.URL.String())
		defer func() {
			span.Finish()
			tracer.Submit(span)
		}()

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		status := c.Writer.Status()
		span.SetStatus(status)
		span.SetTag("http.status", strconv.Itoa(status))
		if err := c.Errors.Last(); err != nil {
			span.SetError(err)
		}
	}
}
