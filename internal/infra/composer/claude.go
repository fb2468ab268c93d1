package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"trendpost/internal/domain/entity"
	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"
	"trendpost/internal/utils/text"
)

const (
	claudeModel          = string(anthropic.ModelClaudeSonnet4_5_20250929)
	claudeMaxTokens      = 256
	claudeRequestTimeout = 60 * time.Second
)

// Claude drafts post candidates through Anthropic's Claude API. It is the
// alternative provider, selected with COMPOSER_TYPE=claude.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	metricsRecorder ComposeMetricsRecorder
}

// NewClaude creates a Claude composer with the given API key.
func NewClaude(apiKey string) *Claude {
	slog.Info("Initialized Claude composer",
		slog.String("model", claudeModel))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ComposerAPIConfig("claude-api")),
		retryConfig:     retry.ComposerAPIConfig(),
		metricsRecorder: NewPrometheusComposeMetrics(),
	}
}

// ComposeDigest drafts a post reacting to the trending bundle as a whole.
func (c *Claude) ComposeDigest(ctx context.Context, bundle entity.TopicBundle, recentPosts []string) (string, error) {
	prompt := fmt.Sprintf("%s\n\n%s", digestSystemPrompt, buildDigestPrompt(bundle, recentPosts))
	return c.compose(ctx, prompt)
}

// ComposeComment drafts a reaction to a single topic.
func (c *Claude) ComposeComment(ctx context.Context, topic entity.Topic, recentPosts []string) (string, error) {
	prompt := fmt.Sprintf("%s\n\n%s", commentSystemPrompt, buildCommentPrompt(topic))
	return c.compose(ctx, prompt)
}

func (c *Claude) compose(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, claudeRequestTimeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doCompose(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude compose failed after retries: %w", retryErr)
	}

	return result, nil
}

// doCompose performs the actual API call without retry or circuit breaker.
func (c *Claude) doCompose(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()

	slog.InfoContext(ctx, "Starting composition",
		slog.String("request_id", requestID),
		slog.String("model", claudeModel))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(claudeModel),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Composition failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		slog.ErrorContext(ctx, "Claude API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		slog.ErrorContext(ctx, "Claude API returned unexpected response type",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	candidate := cleanCandidate(textBlock.Text)
	length := text.CountRunes(candidate)

	slog.InfoContext(ctx, "Composition completed",
		slog.String("request_id", requestID),
		slog.Int("length", length),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordLength(length)
	c.metricsRecorder.RecordDuration(duration)
	if length > 280 {
		c.metricsRecorder.RecordLimitExceeded()
	}

	return candidate, nil
}
