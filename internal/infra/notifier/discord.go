package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trendpost/internal/domain/entity"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// Enabled indicates whether Discord notifications are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// DiscordNotifier sends cycle reports to Discord via webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier creates a DiscordNotifier. The rate limiter is set to
// 0.5 requests/second with burst of 3 (Discord webhook limit: 30 req/min).
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(0.5, 3),
	}
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url,omitempty"`
	Color       int                `json:"color"`
	Footer      discordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	truncationSuffix     = "..."

	// Embed colors per outcome.
	discordGreen  = 5763719  // #57F287: published
	discordBlue   = 5793266  // #5865F2: dry run
	discordYellow = 16705372 // #FEE75C: duplicate exhaustion
	discordRed    = 15548997 // #ED4245: failure
)

func discordStatusColor(status entity.CycleStatus) int {
	switch status {
	case entity.StatusPublished:
		return discordGreen
	case entity.StatusDryRun:
		return discordBlue
	case entity.StatusExhausted:
		return discordYellow
	default:
		return discordRed
	}
}

// buildEmbedPayload creates a Discord webhook payload from a cycle report.
// The embed title carries the outcome, the description the generated text
// or the failure reason, and the footer the attempt count.
func (d *DiscordNotifier) buildEmbedPayload(report *entity.CycleReport) discordWebhookPayload {
	title := truncateText(statusHeadline(report), maxTitleLength, truncationSuffix)

	description := report.Text
	if description == "" {
		description = report.Reason
	}
	description = truncateText(description, maxDescriptionLength, truncationSuffix)

	embed := discordEmbed{
		Title:       title,
		Description: description,
		URL:         report.Permalink,
		Color:       discordStatusColor(report.Status),
		Footer: discordEmbedFooter{
			Text: fmt.Sprintf("attempts: %d", report.Attempts),
		},
		Timestamp: report.FinishedAt.Format(time.RFC3339),
	}

	return discordWebhookPayload{
		Embeds: []discordEmbed{embed},
	}
}

// sendWebhookRequest sends one Discord webhook request, classifying the
// response into the shared webhook error types.
func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, report *entity.CycleReport) error {
	payload := d.buildEmbedPayload(report)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API client error: %s", string(body)),
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API server error: %s", string(body)),
		}
	}

	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// NotifyReport sends a Discord notification for a finished cycle.
// This method implements the Notifier interface.
func (d *DiscordNotifier) NotifyReport(ctx context.Context, report *entity.CycleReport) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Discord notification",
		slog.String("request_id", requestID),
		slog.String("status", string(report.Status)),
		slog.String("mode", string(report.Mode)))

	if err := d.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return sendWithRetry(ctx, "discord", report, func(ctx context.Context) error {
		return d.sendWebhookRequest(ctx, report)
	})
}
