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

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier sends cycle reports to Slack via Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier creates a SlackNotifier. The rate limiter is set to
// 1 request/second with burst of 1 (Slack webhook limit: 1 msg/s).
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

type slackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string            `json:"type"`
	Text     *slackTextObject  `json:"text,omitempty"`
	Elements []slackTextObject `json:"elements,omitempty"`
}

type slackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	maxSectionTextLength  = 3000
	maxFallbackLength     = 150
	slackTruncationSuffix = "..."
)

// buildBlockKitPayload creates a Slack Block Kit payload from a cycle
// report: a section block with the outcome headline and the generated text
// (or failure reason), and a context block with attempts and finish time.
func (s *SlackNotifier) buildBlockKitPayload(report *entity.CycleReport) slackWebhookPayload {
	headline := statusHeadline(report)
	fallbackText := truncateText(headline, maxFallbackLength, slackTruncationSuffix)

	body := report.Text
	if body == "" {
		body = report.Reason
	}

	sectionText := fmt.Sprintf("*%s*\n\n%s", headline, body)
	if report.Permalink != "" {
		sectionText = fmt.Sprintf("*<%s|%s>*\n\n%s", report.Permalink, headline, body)
	}
	sectionText = truncateText(sectionText, maxSectionTextLength, slackTruncationSuffix)

	contextText := fmt.Sprintf("attempts: %d • %s", report.Attempts, report.FinishedAt.Format(time.RFC3339))

	sectionBlock := slackBlock{
		Type: "section",
		Text: &slackTextObject{
			Type: "mrkdwn",
			Text: sectionText,
		},
	}

	contextBlock := slackBlock{
		Type: "context",
		Elements: []slackTextObject{
			{
				Type: "mrkdwn",
				Text: contextText,
			},
		},
	}

	return slackWebhookPayload{
		Text:   fallbackText,
		Blocks: []slackBlock{sectionBlock, contextBlock},
	}
}

// sendWebhookRequest sends one Slack webhook request, classifying the
// response into the shared webhook error types.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, report *entity.CycleReport) error {
	payload := s.buildBlockKitPayload(report)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
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
			Message:    "Slack rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API client error: %s", string(body)),
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Slack API server error: %s", string(body)),
		}
	}

	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// NotifyReport sends a Slack notification for a finished cycle.
// This method implements the Notifier interface.
func (s *SlackNotifier) NotifyReport(ctx context.Context, report *entity.CycleReport) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Slack notification",
		slog.String("request_id", requestID),
		slog.String("status", string(report.Status)),
		slog.String("mode", string(report.Mode)))

	if err := s.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return sendWithRetry(ctx, "slack", report, func(ctx context.Context) error {
		return s.sendWebhookRequest(ctx, report)
	})
}
