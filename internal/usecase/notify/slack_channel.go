package notify

import (
	"context"

	"trendpost/internal/domain/entity"
	"trendpost/internal/infra/notifier"
)

// SlackChannel adapts the infrastructure SlackNotifier to the Channel
// interface.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewSlackChannel creates a Slack channel. When disabled, a NoOpNotifier
// backs the channel so the interface contract always holds.
func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &SlackChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns the channel identifier "slack".
func (c *SlackChannel) Name() string {
	return "slack"
}

// IsEnabled reports whether Slack notifications are enabled.
func (c *SlackChannel) IsEnabled() bool {
	return c.enabled
}

// Send delivers a cycle report to Slack. Rate limiting and retry live in
// the underlying notifier.
func (c *SlackChannel) Send(ctx context.Context, report *entity.CycleReport) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if report == nil {
		return ErrInvalidReport
	}
	return c.notifier.NotifyReport(ctx, report)
}
