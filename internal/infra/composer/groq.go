// Package composer provides the AI implementations that draft post
// candidates: Groq (default), Claude, and a no-op fallback. Providers are
// selected at startup via the COMPOSER_TYPE environment variable.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"trendpost/internal/domain/entity"
	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"
	"trendpost/internal/utils/text"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"

	// groqModel is fast and cheap, which matters when a cycle may burn
	// several candidates before the dedup cache accepts one.
	groqModel = "llama-3.1-8b-instant"

	groqTemperature      = 0.9
	groqDigestMaxTokens  = 100
	groqCommentMaxTokens = 80
	groqRequestTimeout   = 60 * time.Second
)

// Groq drafts post candidates through Groq's OpenAI-compatible chat API.
// It includes circuit breaker and retry logic for improved reliability.
type Groq struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	metricsRecorder ComposeMetricsRecorder
}

// NewGroq creates a Groq composer with the given API key.
func NewGroq(apiKey string) *Groq {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL

	slog.Info("Initialized Groq composer",
		slog.String("model", groqModel))

	return &Groq{
		client:          openai.NewClientWithConfig(cfg),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ComposerAPIConfig("groq-api")),
		retryConfig:     retry.ComposerAPIConfig(),
		metricsRecorder: NewPrometheusComposeMetrics(),
	}
}

// ComposeDigest drafts a post reacting to the trending bundle as a whole.
func (g *Groq) ComposeDigest(ctx context.Context, bundle entity.TopicBundle, recentPosts []string) (string, error) {
	prompt := buildDigestPrompt(bundle, recentPosts)
	return g.compose(ctx, digestSystemPrompt, prompt, groqDigestMaxTokens)
}

// ComposeComment drafts a reaction to a single topic.
func (g *Groq) ComposeComment(ctx context.Context, topic entity.Topic, recentPosts []string) (string, error) {
	prompt := buildCommentPrompt(topic)
	return g.compose(ctx, commentSystemPrompt, prompt, groqCommentMaxTokens)
}

func (g *Groq) compose(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, groqRequestTimeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, g.retryConfig, func() error {
		cbResult, err := g.circuitBreaker.Execute(func() (interface{}, error) {
			return g.doCompose(ctx, system, prompt, maxTokens)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("groq api circuit breaker open, request rejected",
					slog.String("service", "groq-api"),
					slog.String("state", g.circuitBreaker.State().String()))
				return fmt.Errorf("groq api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("groq compose failed after retries: %w", retryErr)
	}

	return result, nil
}

// doCompose performs the actual API call without retry or circuit breaker.
func (g *Groq) doCompose(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	requestID := uuid.New().String()

	slog.InfoContext(ctx, "Starting composition",
		slog.String("request_id", requestID),
		slog.String("model", groqModel))

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: groqModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: groqTemperature,
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Composition failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("groq api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.ErrorContext(ctx, "Groq API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", fmt.Errorf("groq api returned empty response")
	}

	candidate := cleanCandidate(resp.Choices[0].Message.Content)
	length := text.CountRunes(candidate)

	slog.InfoContext(ctx, "Composition completed",
		slog.String("request_id", requestID),
		slog.Int("length", length),
		slog.Duration("duration", duration))

	g.metricsRecorder.RecordLength(length)
	g.metricsRecorder.RecordDuration(duration)
	if length > 280 {
		g.metricsRecorder.RecordLimitExceeded()
	}

	return candidate, nil
}

// cleanCandidate strips whitespace and the quote characters models love to
// wrap their output in despite being told not to.
func cleanCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, `'`)
	return s
}
