package notify

import (
	"context"

	"trendpost/internal/domain/entity"
	"trendpost/internal/infra/notifier"
)

// DiscordChannel adapts the infrastructure DiscordNotifier to the Channel
// interface so it plugs into the multi-channel dispatcher.
type DiscordChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewDiscordChannel creates a Discord channel. When disabled, a
// NoOpNotifier backs the channel so the interface contract always holds.
func NewDiscordChannel(config notifier.DiscordConfig) *DiscordChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &DiscordChannel{
		notifier: n,
		enabled:  config.Enabled,
	}
}

// Name returns the channel identifier "discord".
func (c *DiscordChannel) Name() string {
	return "discord"
}

// IsEnabled reports whether Discord notifications are enabled.
func (c *DiscordChannel) IsEnabled() bool {
	return c.enabled
}

// Send delivers a cycle report to Discord. Rate limiting and retry live in
// the underlying notifier.
func (c *DiscordChannel) Send(ctx context.Context, report *entity.CycleReport) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if report == nil {
		return ErrInvalidReport
	}
	return c.notifier.NotifyReport(ctx, report)
}
