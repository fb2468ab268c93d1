package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ExcerptConfig holds the configuration for article excerpt fetching.
// Excerpts are optional context for comment-mode posts; the settings
// lean towards giving up fast rather than holding a cycle open.
type ExcerptConfig struct {
	// Enabled controls whether excerpt fetching happens at all. When
	// false, comment mode uses whatever summary the feed provided.
	// Default: true
	Enabled bool

	// Timeout is the maximum duration for a single HTTP request.
	// Default: 10s
	Timeout time.Duration

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// Responses exceeding this limit are rejected to prevent memory
	// exhaustion. Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Each redirect target is re-validated against the private IP policy.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs controls whether to block URLs resolving to
	// private/loopback/link-local addresses. Should always be true in
	// production. Default: true
	DenyPrivateIPs bool

	// MaxExcerptRunes caps the extracted text handed to the composer.
	// Default: 600
	MaxExcerptRunes int
}

// DefaultExcerptConfig returns the production defaults.
func DefaultExcerptConfig() ExcerptConfig {
	return ExcerptConfig{
		Enabled:         true,
		Timeout:         10 * time.Second,
		MaxBodySize:     10 * 1024 * 1024,
		MaxRedirects:    5,
		DenyPrivateIPs:  true,
		MaxExcerptRunes: 600,
	}
}

// Validate checks the configuration values.
func (c *ExcerptConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)
	maxBodySize := int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.MaxExcerptRunes <= 0 {
		return fmt.Errorf("max excerpt runes must be positive, got %d", c.MaxExcerptRunes)
	}

	return nil
}

// LoadExcerptConfigFromEnv loads configuration from environment variables,
// falling back to defaults for anything unset. After loading, the
// configuration is validated.
//
// Environment variables:
//   - EXCERPT_FETCH_ENABLED: "true" or "false" (default: true)
//   - EXCERPT_FETCH_TIMEOUT: duration string, e.g. "10s" (default: 10s)
//   - EXCERPT_FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - EXCERPT_FETCH_MAX_REDIRECTS: integer (default: 5)
//   - EXCERPT_FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: true)
//   - EXCERPT_FETCH_MAX_RUNES: integer (default: 600)
func LoadExcerptConfigFromEnv() (ExcerptConfig, error) {
	cfg := DefaultExcerptConfig()

	if val := os.Getenv("EXCERPT_FETCH_ENABLED"); val != "" {
		cfg.Enabled = val == "true"
	}

	if val := os.Getenv("EXCERPT_FETCH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid EXCERPT_FETCH_TIMEOUT: %v (expected format: '10s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("EXCERPT_FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid EXCERPT_FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("EXCERPT_FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid EXCERPT_FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("EXCERPT_FETCH_DENY_PRIVATE_IPS"); val != "" {
		cfg.DenyPrivateIPs = val == "true"
	}

	if val := os.Getenv("EXCERPT_FETCH_MAX_RUNES"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid EXCERPT_FETCH_MAX_RUNES: %v", err)
		}
		cfg.MaxExcerptRunes = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
