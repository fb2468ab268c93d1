package notifier

import (
	"context"

	"trendpost/internal/domain/entity"
)

// NoOpNotifier is a no-operation implementation of the Notifier interface.
// It is used when notifications are disabled to avoid nil checks in the
// code. This follows the Null Object pattern.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier instance.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// NotifyReport does nothing and returns nil immediately.
func (n *NoOpNotifier) NotifyReport(ctx context.Context, report *entity.CycleReport) error {
	return nil
}
