package worker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpost/internal/infra/worker"
	"trendpost/internal/observability/logging"
)

// Metrics register globally, so the suite shares one instance.
var (
	metricsOnce sync.Once
	testMetrics *worker.WorkerMetrics
)

func sharedMetrics() *worker.WorkerMetrics {
	metricsOnce.Do(func() {
		testMetrics = worker.NewWorkerMetrics()
	})
	return testMetrics
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := worker.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "19:00=digest", cfg.Slots)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.CycleTimeout)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := worker.WorkerConfig{
		Slots:               "25:00=digest",
		Timezone:            "Mars/Olympus",
		NotifyMaxConcurrent: 0,
		CycleTimeout:        time.Second,
		HealthPort:          80,
		MetricsPort:         70000,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slots")
	assert.Contains(t, err.Error(), "timezone")
	assert.Contains(t, err.Error(), "notify max concurrent")
	assert.Contains(t, err.Error(), "cycle timeout")
	assert.Contains(t, err.Error(), "health port")
	assert.Contains(t, err.Error(), "metrics port")
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("POST_SLOTS", "03:00=digest,21:00=comment")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("NOTIFY_MAX_CONCURRENT", "5")
	t.Setenv("CYCLE_TIMEOUT", "5m")
	t.Setenv("WORKER_HEALTH_PORT", "8091")
	t.Setenv("WORKER_METRICS_PORT", "8092")

	cfg, err := worker.LoadConfigFromEnv(logging.NewLogger(), sharedMetrics())
	require.NoError(t, err)

	assert.Equal(t, "03:00=digest,21:00=comment", cfg.Slots)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 5, cfg.NotifyMaxConcurrent)
	assert.Equal(t, 5*time.Minute, cfg.CycleTimeout)
	assert.Equal(t, 8091, cfg.HealthPort)
	assert.Equal(t, 8092, cfg.MetricsPort)
}

func TestLoadConfigFromEnvFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("POST_SLOTS", "noon=digest")
	t.Setenv("TIMEZONE", "Not/AZone")
	t.Setenv("CYCLE_TIMEOUT", "2h")

	cfg, err := worker.LoadConfigFromEnv(logging.NewLogger(), sharedMetrics())
	require.NoError(t, err, "loading is fail-open and never errors")

	defaults := worker.DefaultConfig()
	assert.Equal(t, defaults.Slots, cfg.Slots)
	assert.Equal(t, defaults.Timezone, cfg.Timezone)
	assert.Equal(t, defaults.CycleTimeout, cfg.CycleTimeout)
	require.NoError(t, cfg.Validate())
}
