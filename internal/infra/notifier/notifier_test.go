package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpost/internal/domain/entity"
)

func publishedReport() *entity.CycleReport {
	return &entity.CycleReport{
		Status:     entity.StatusPublished,
		Mode:       entity.ModeDigest,
		Text:       "tried the new cursor update. honestly? not bad.",
		TweetID:    "12345",
		Permalink:  "https://x.com/i/web/status/12345",
		Attempts:   2,
		FinishedAt: time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC),
	}
}

func failedReport() *entity.CycleReport {
	return &entity.CycleReport{
		Status:     entity.StatusFailed,
		Mode:       entity.ModeComment,
		Attempts:   5,
		Reason:     "composer never produced a candidate",
		FinishedAt: time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC),
	}
}

func TestDiscordNotifyReport(t *testing.T) {
	var got discordWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordNotifier(DiscordConfig{Enabled: true, WebhookURL: srv.URL, Timeout: 5 * time.Second})

	err := d.NotifyReport(context.Background(), publishedReport())
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	embed := got.Embeds[0]
	assert.Equal(t, "Posted (digest mode)", embed.Title)
	assert.Equal(t, "tried the new cursor update. honestly? not bad.", embed.Description)
	assert.Equal(t, "https://x.com/i/web/status/12345", embed.URL)
	assert.Equal(t, discordGreen, embed.Color)
	assert.Equal(t, "attempts: 2", embed.Footer.Text)
}

func TestDiscordFailureReportUsesReason(t *testing.T) {
	var got discordWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	d := NewDiscordNotifier(DiscordConfig{WebhookURL: srv.URL, Timeout: 5 * time.Second})

	require.NoError(t, d.NotifyReport(context.Background(), failedReport()))

	embed := got.Embeds[0]
	assert.Equal(t, "Cycle failed (comment mode)", embed.Title)
	assert.Equal(t, "composer never produced a candidate", embed.Description)
	assert.Equal(t, discordRed, embed.Color)
}

func TestDiscordClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDiscordNotifier(DiscordConfig{WebhookURL: srv.URL, Timeout: 5 * time.Second})

	err := d.NotifyReport(context.Background(), publishedReport())
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx errors must not be retried")

	var clientErr *ClientError
	assert.ErrorAs(t, err, &clientErr)
}

func TestSlackNotifyReport(t *testing.T) {
	var got slackWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	s := NewSlackNotifier(SlackConfig{Enabled: true, WebhookURL: srv.URL, Timeout: 5 * time.Second})

	err := s.NotifyReport(context.Background(), publishedReport())
	require.NoError(t, err)

	assert.Equal(t, "Posted (digest mode)", got.Text)
	require.Len(t, got.Blocks, 2)
	require.NotNil(t, got.Blocks[0].Text)
	assert.Contains(t, got.Blocks[0].Text.Text, "tried the new cursor update")
	assert.Contains(t, got.Blocks[0].Text.Text, "https://x.com/i/web/status/12345")
	require.Len(t, got.Blocks[1].Elements, 1)
	assert.Contains(t, got.Blocks[1].Elements[0].Text, "attempts: 2")
}

func TestStatusHeadline(t *testing.T) {
	tests := []struct {
		status entity.CycleStatus
		want   string
	}{
		{status: entity.StatusPublished, want: "Posted (digest mode)"},
		{status: entity.StatusDryRun, want: "Dry run (digest mode)"},
		{status: entity.StatusExhausted, want: "Skipped: all candidates were duplicates (digest mode)"},
		{status: entity.StatusFailed, want: "Cycle failed (digest mode)"},
	}
	for _, tt := range tests {
		report := &entity.CycleReport{Status: tt.status, Mode: entity.ModeDigest}
		assert.Equal(t, tt.want, statusHeadline(report))
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&ServerError{StatusCode: 502}))
	assert.False(t, isRetryableError(&ClientError{StatusCode: 400}))
	assert.False(t, isRetryableError(&RateLimitError{RetryAfter: time.Second}))
	assert.True(t, isRetryableError(assert.AnError))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10, "..."))
	assert.Equal(t, "abcdefg...", truncateText("abcdefghijk", 10, "..."))
}

func TestNoOpNotifier(t *testing.T) {
	n := NewNoOpNotifier()
	assert.NoError(t, n.NotifyReport(context.Background(), publishedReport()))
}
