// Package notify dispatches cycle reports across multiple delivery channels
// (Discord, Slack) with per-channel circuit breaking, worker pooling, and
// observability. Dispatch is fire-and-forget: a failing webhook never
// blocks or fails the posting cycle that produced the report.
package notify

import (
	"context"

	"trendpost/internal/domain/entity"
)

// Channel represents a notification delivery channel.
// Each channel implementation handles its own rate limiting, retries, and
// error handling.
//
// Retry Policy Contract:
//   - Transient failures (5xx, network errors): retry with backoff (max 2 attempts)
//   - Rate limits (429): sleep for retry_after, then retry
//   - Client errors (4xx except 429): no retry
//   - Context timeout: no retry
//
// All methods must be safe for concurrent use.
type Channel interface {
	// Name returns the channel identifier (lowercase, alphanumeric),
	// used for logging, metrics, and health endpoints.
	Name() string

	// IsEnabled reports whether this channel is enabled via configuration.
	// Disabled channels are skipped during dispatch.
	IsEnabled() bool

	// Send delivers one cycle report to this channel. Implementations
	// must respect context cancellation, apply rate limiting, and retry
	// transient failures per the retry policy contract.
	Send(ctx context.Context, report *entity.CycleReport) error
}
