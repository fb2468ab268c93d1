package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidReport indicates a nil or empty cycle report.
	ErrInvalidReport = errors.New("invalid cycle report")

	// ErrNotificationDropped indicates that a notification was dropped due
	// to goroutine pool saturation or timeout waiting for a worker slot.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen indicates that the circuit breaker is open for
	// this channel and notifications are being rejected. The breaker
	// closes automatically after the timeout period.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
