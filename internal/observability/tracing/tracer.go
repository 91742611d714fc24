package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used across the pipeline.
const InstrumentationName = "tech-newsletter"

// tracer is the global tracer instance for the newsletter pipeline.
var tracer = otel.Tracer(InstrumentationName)

// GetTracer returns the global tracer for creating spans.
// This tracer can be used throughout the application to create new spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}

// EndSpan marks span as failed when err is non-nil and ends it.
// errorKind is attached as the "error.kind" attribute so spans can be grouped by failure class.
func EndSpan(span trace.Span, err error, errorKind string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errorKind != "" {
			span.SetAttributes(attribute.String("error.kind", errorKind))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
