package circuitbreaker_test

import (
	"errors"
	"testing"
	"time"

	"trendpost/internal/resilience/circuitbreaker"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePassesThroughResult(t *testing.T) {
	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("test"))

	got, err := cb.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
}

func TestExecutePropagatesError(t *testing.T) {
	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("test"))
	boom := errors.New("boom")

	_, err := cb.Execute(func() (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:             "trippy",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	})

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("fail")
		})
	}

	assert.True(t, cb.IsOpen())

	_, err := cb.Execute(func() (interface{}, error) {
		t.Fatal("must not be called while open")
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerStaysClosedBelowMinRequests(t *testing.T) {
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:             "patient",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      10,
	})

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, errors.New("fail")
		})
	}

	assert.False(t, cb.IsOpen())
}
