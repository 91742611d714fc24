// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the pipeline metrics:
//   - Run metrics (count by stage reached and outcome, duration, last success)
//   - Stage metrics (duration by stage and status)
//   - Collector, Curator and Dispatcher counters
//   - Circuit breaker state per named circuit
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	import "tech-newsletter/internal/observability/metrics"
//
//	func finish(result entity.RunResult) {
//	    metrics.RecordRun(result)
//	}
package metrics
