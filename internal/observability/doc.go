// Package observability groups the newsletter pipeline's observability infrastructure:
// structured logging, Prometheus metrics and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog and run ID propagation
//   - metrics: Prometheus metrics for pipeline runs and stages
//   - tracing: OpenTelemetry tracer and provider setup
//
// Example usage:
//
//	import (
//	    "tech-newsletter/internal/observability/logging"
//	    "tech-newsletter/internal/observability/metrics"
//	)
//
//	func finish(ctx context.Context, result entity.RunResult) {
//	    logging.FromContext(ctx).Info("run finished", slog.Bool("success", result.Success))
//	    metrics.RecordRun(result)
//	}
package observability
