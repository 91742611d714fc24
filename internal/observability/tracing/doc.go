// Package tracing provides OpenTelemetry tracing integration.
//
// Every pipeline run opens a root span and one child span per stage
// (collect, curate, dispatch). Setup installs an SDK tracer provider whose
// finished spans are written to the structured log; tests install their own
// provider with a tracetest.SpanRecorder.
//
// Example usage:
//
//	shutdown := tracing.Setup("tech-newsletter", logger)
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.GetTracer().Start(ctx, "collect")
//	err := collect(ctx)
//	tracing.EndSpan(span, err, "")
package tracing
