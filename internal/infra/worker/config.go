package worker

import (
	"fmt"
	"log/slog"
	"time"

	"trendpost/internal/pkg/config"
	"trendpost/internal/usecase/schedule"
)

// WorkerConfig controls the posting daemon: which daily slots fire, in which
// timezone, how long a cycle may run, and where the health and metrics
// servers listen.
//
// Loading is fail-open: an invalid environment value falls back to the
// default with a warning and a metrics increment, so a typo in deployment
// config degrades a single knob instead of keeping the daemon down.
type WorkerConfig struct {
	// Slots is the comma-separated daily posting schedule, each entry
	// "HH:MM=mode". Parsed by schedule.ParseSlots.
	// Default: one digest post at 19:00.
	Slots string

	// Timezone is the IANA timezone the slots fire in.
	Timezone string

	// NotifyMaxConcurrent caps concurrent notification deliveries.
	NotifyMaxConcurrent int

	// CycleTimeout bounds a single posting cycle end to end, covering the
	// trending fetch, the generation loop, and the publish call.
	CycleTimeout time.Duration

	// HealthPort is the port of the liveness/readiness HTTP server.
	HealthPort int

	// MetricsPort is the port of the Prometheus scrape endpoint.
	MetricsPort int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Slots:               "19:00=digest",
		Timezone:            "Asia/Kolkata",
		NotifyMaxConcurrent: 10,
		CycleTimeout:        10 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9092,
	}
}

// Validate checks every field and returns all violations at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if _, err := schedule.ParseSlots(c.Slots); err != nil {
		errs = append(errs, fmt.Errorf("slots: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidateDuration(c.CycleTimeout, 1*time.Minute, 1*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("cycle timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// validateSlots adapts schedule.ParseSlots to the loader's validator shape.
func validateSlots(spec string) error {
	_, err := schedule.ParseSlots(spec)
	return err
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables with fail-open fallback. Each invalid value is replaced by its
// default, logged, and counted; the returned configuration is always valid
// and the error is always nil.
//
// Environment variables:
//   - POST_SLOTS: daily schedule, e.g. "03:00=digest,21:00=comment"
//   - TIMEZONE: IANA timezone name
//   - NOTIFY_MAX_CONCURRENT: integer 1-50
//   - CYCLE_TIMEOUT: duration string, e.g. "10m"
//   - WORKER_HEALTH_PORT, WORKER_METRICS_PORT: integers 1024-65535
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordFallback(field)
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("POST_SLOTS", cfg.Slots, validateSlots)
	cfg.Slots = result.Value.(string)
	apply("slots", result)

	result = config.LoadEnvWithFallback("TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	apply("timezone", result)

	result = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.NotifyMaxConcurrent = result.Value.(int)
	apply("notify_max_concurrent", result)

	result = config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 1*time.Hour)
	})
	cfg.CycleTimeout = result.Value.(time.Duration)
	apply("cycle_timeout", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.ValidatePort)
	cfg.HealthPort = result.Value.(int)
	apply("health_port", result)

	result = config.LoadEnvInt("WORKER_METRICS_PORT", cfg.MetricsPort, config.ValidatePort)
	cfg.MetricsPort = result.Value.(int)
	apply("metrics_port", result)

	if !fallbackApplied {
		metrics.ClearFallbackActive()
	}
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
