// Package notifier reports pipeline run outcomes to chat webhooks.
//
// Slack and Discord implementations share the same delivery policy: a token
// bucket per webhook, one retry for server errors, and honoring 429
// retry hints. NoOpNotifier is used when no webhook is configured.
package notifier

import (
	"context"
	"errors"

	"tech-newsletter/internal/domain/entity"
)

// Notifier sends a notification about a finished pipeline run.
type Notifier interface {
	// NotifyRun reports the terminal result of one run. Implementations
	// respect ctx cancellation and never modify the result.
	NotifyRun(ctx context.Context, result entity.RunResult) error
}

// Multi fans a run result out to several notifiers.
// Every notifier is attempted; the returned error joins all failures.
type Multi []Notifier

// NotifyRun implements Notifier.
func (m Multi) NotifyRun(ctx context.Context, result entity.RunResult) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyRun(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FailuresOnly forwards only failed runs to the wrapped notifier.
type FailuresOnly struct {
	Next Notifier
}

// NotifyRun implements Notifier.
func (f FailuresOnly) NotifyRun(ctx context.Context, result entity.RunResult) error {
	if result.Success {
		return nil
	}
	return f.Next.NotifyRun(ctx, result)
}
