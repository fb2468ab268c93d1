// Package config provides reusable helpers for loading configuration from
// environment variables with validate-and-fallback semantics, plus the
// Prometheus metrics that make fallback behavior observable.
//
// Components (worker, composer, poster) build their typed configuration on
// top of these helpers so that a bad value in the environment degrades to a
// documented default instead of taking the daemon down.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
// It contains the loaded value, any warnings generated during loading, and
// a flag indicating whether a fallback value was used.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString loads a string value from an environment variable.
// If the environment variable is not set, the default value is returned.
// No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value and validates it. On validation
// failure the default is used and a warning recorded; the default itself is
// assumed valid.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return ConfigLoadResult{
				Value: defaultValue,
				Warnings: []string{
					fmt.Sprintf("%s=%q is invalid (%v), using default %q", envKey, value, err, defaultValue),
				},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration loads a time.Duration from an environment variable using
// time.ParseDuration syntax ("30s", "10m"). Parse or validation failure
// falls back to the default with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is not a valid duration (%v), using default %v", envKey, raw, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return ConfigLoadResult{
				Value: defaultValue,
				Warnings: []string{
					fmt.Sprintf("%s=%v is invalid (%v), using default %v", envKey, parsed, err, defaultValue),
				},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt loads an integer from an environment variable. Parse or
// validation failure falls back to the default with a warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is not a valid integer (%v), using default %d", envKey, raw, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return ConfigLoadResult{
				Value: defaultValue,
				Warnings: []string{
					fmt.Sprintf("%s=%d is invalid (%v), using default %d", envKey, parsed, err, defaultValue),
				},
				FallbackApplied: true,
			}
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool loads a boolean from an environment variable. Accepts the
// forms strconv.ParseBool accepts ("true", "1", "false", ...). Unparseable
// values fall back to the default with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{
				fmt.Sprintf("%s=%q is not a valid boolean (%v), using default %t", envKey, raw, err, defaultValue),
			},
			FallbackApplied: true,
		}
	}

	return ConfigLoadResult{Value: parsed}
}
