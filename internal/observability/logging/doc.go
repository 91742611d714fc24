// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the pipeline.
//
// Key features:
//   - JSON and text output formats (LOG_FORMAT)
//   - Run ID propagation
//   - Context-aware logging
//   - Configurable log levels (LOG_LEVEL)
//
// Example usage:
//
//	import "tech-newsletter/internal/observability/logging"
//
//	func main() {
//	    logger := logging.New(os.Stderr, logging.OptionsFromEnv())
//	    slog.SetDefault(logger)
//	}
//
//	func runStage(ctx context.Context) {
//	    logger := logging.WithRunID(ctx, logging.FromContext(ctx))
//	    logger.Info("stage started")
//	}
package logging
