package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs an SDK tracer provider as the global provider.
// Finished spans are written to logger at debug level; no exporter is configured.
// The returned function flushes and shuts the provider down.
func Setup(serviceName string, logger *slog.Logger) func(context.Context) error {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(NewLogSpanProcessor(logger)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown
}

// LogSpanProcessor is a sdktrace.SpanProcessor that logs every finished span.
type LogSpanProcessor struct {
	logger *slog.Logger
}

// NewLogSpanProcessor creates a LogSpanProcessor writing to logger.
func NewLogSpanProcessor(logger *slog.Logger) *LogSpanProcessor {
	return &LogSpanProcessor{logger: logger}
}

// OnStart implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := []any{
		slog.String("span", s.Name()),
		slog.String("trace_id", s.SpanContext().TraceID().String()),
		slog.Duration("duration", s.EndTime().Sub(s.StartTime())),
		slog.String("status", s.Status().Code.String()),
	}
	for _, kv := range s.Attributes() {
		attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
	}
	p.logger.Debug("span finished", attrs...)
}

// Shutdown implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (p *LogSpanProcessor) ForceFlush(context.Context) error { return nil }

var _ sdktrace.SpanProcessor = (*LogSpanProcessor)(nil)

// StageAttributes returns the common attributes attached to stage spans.
func StageAttributes(stage, runID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pipeline.stage", stage),
		attribute.String("pipeline.run_id", runID),
	}
}
