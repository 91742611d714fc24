package notifier

import (
	"context"

	"tech-newsletter/internal/domain/entity"
)

// NoOpNotifier discards every notification.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyRun implements Notifier.
func (n *NoOpNotifier) NotifyRun(ctx context.Context, result entity.RunResult) error {
	return nil
}
