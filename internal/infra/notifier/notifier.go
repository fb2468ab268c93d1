// Package notifier delivers cycle reports to external webhooks. It defines
// the Notifier interface which allows different notification mechanisms
// (Discord, Slack) to be used interchangeably through dependency injection,
// plus a no-op implementation for when notifications are disabled.
package notifier

import (
	"context"

	"trendpost/internal/domain/entity"
)

// Notifier is an interface for sending cycle outcome notifications.
// Implementations should handle rate limiting, retries, and error logging
// internally.
type Notifier interface {
	// NotifyReport sends a notification about a finished posting cycle.
	// Implementations should generate a request ID for tracing, apply
	// rate limiting, retry transient failures, and respect context
	// cancellation. Returns a non-nil error only after all retry
	// attempts failed.
	NotifyReport(ctx context.Context, report *entity.CycleReport) error
}
