/*
Package tracing provides lightweight request tracing for the frame host.

Spans are created per HTTP request and around bootstrap resolution and sandbox
creation, collected on a buffered channel and logged through zap when they
finish. Trace context travels in the X-Trace-ID and X-Span-ID headers.

# Usage

	tracer := tracing.New("sandbox3p", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "bootstrap.resolve", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("window_id", wid)
		_, err := resolver.Resolve(ctx, w, false)
		return err
	})
*/
package tracing
