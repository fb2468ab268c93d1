package retry_test

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"testing"
	"time"

	"trendpost/internal/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:    3,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestWithBackoffSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffRetriesTransientError(t *testing.T) {
	calls := 0
	err := retry.WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return &retry.HTTPError{StatusCode: http.StatusBadGateway, Message: "bad gateway"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := &retry.HTTPError{StatusCode: http.StatusServiceUnavailable, Message: "unavailable"}
	err := retry.WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return transient
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, error(transient))
	assert.Equal(t, 3, calls)
}

func TestWithBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	fatal := errors.New("credentials rejected")
	err := retry.WithBackoff(context.Background(), fastConfig(), func() error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestWithBackoffRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry.WithBackoff(ctx, retry.Config{
		MaxAttempts:  5,
		InitialDelay: time.Minute,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
	}, func() error {
		calls++
		cancel()
		return &retry.HTTPError{StatusCode: 500, Message: "boom"}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "http 500", err: &retry.HTTPError{StatusCode: 500}, want: true},
		{name: "http 429", err: &retry.HTTPError{StatusCode: 429}, want: true},
		{name: "http 408", err: &retry.HTTPError{StatusCode: 408}, want: true},
		{name: "http 401", err: &retry.HTTPError{StatusCode: 401}, want: false},
		{name: "http 400", err: &retry.HTTPError{StatusCode: 400}, want: false},
		{name: "plain error", err: errors.New("whatever"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retry.IsRetryable(tt.err))
		})
	}
}
