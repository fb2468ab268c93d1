// Package config holds the application-level configuration of the posting
// bot: platform credentials, composer selection, cache and feed paths, and
// notification webhooks. Operational knobs of the daemon itself (schedule,
// timezone, ports) live in internal/infra/worker.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// ComposerGroq selects the Groq-hosted Llama composer.
	ComposerGroq = "groq"

	// ComposerClaude selects the Anthropic Claude composer.
	ComposerClaude = "claude"

	// ComposerNoop selects the deterministic placeholder composer,
	// useful for local smoke tests without API keys.
	ComposerNoop = "noop"
)

// BotConfig is the environment-derived application configuration.
type BotConfig struct {
	// X holds the OAuth 1.0a user-context credentials for posting.
	X XCredentials

	// ComposerType selects the AI backend: "groq" (default), "claude",
	// or "noop".
	ComposerType string

	// GroqAPIKey authenticates against the Groq API. Required when
	// ComposerType is "groq".
	GroqAPIKey string

	// AnthropicAPIKey authenticates against the Anthropic API. Required
	// when ComposerType is "claude".
	AnthropicAPIKey string

	// DryRun simulates publishing: candidates are generated and logged but
	// never delivered and never recorded.
	DryRun bool

	// CachePath is the JSON file holding published-post fingerprints.
	CachePath string

	// FeedsPath optionally points at a YAML file overriding the built-in
	// RSS feed list. Empty means built-in defaults.
	FeedsPath string

	// DiscordWebhookURL enables Discord cycle notifications when set.
	DiscordWebhookURL string

	// SlackWebhookURL enables Slack cycle notifications when set.
	SlackWebhookURL string

	// NotifyTimeout bounds a single webhook delivery.
	NotifyTimeout time.Duration
}

// XCredentials are the four OAuth 1.0a secrets of the posting account.
type XCredentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// LoadBotConfig reads the application configuration from the environment.
//
// Environment variables:
//   - X_API_KEY, X_API_SECRET, X_ACCESS_TOKEN, X_ACCESS_TOKEN_SECRET
//   - COMPOSER_TYPE: "groq", "claude", or "noop" (default "groq")
//   - GROQ_API_KEY, ANTHROPIC_API_KEY
//   - DRY_RUN: "true" to simulate publishing (default "false")
//   - CACHE_PATH: dedup cache file (default "posted_content.json")
//   - FEEDS_PATH: optional YAML feed list override
//   - DISCORD_WEBHOOK_URL, SLACK_WEBHOOK_URL
//   - NOTIFY_TIMEOUT: webhook delivery timeout (default "10s")
//
// Loading never fails; call Validate before wiring the application to get
// every configuration problem in one pass.
func LoadBotConfig() *BotConfig {
	return &BotConfig{
		X: XCredentials{
			APIKey:            os.Getenv("X_API_KEY"),
			APISecret:         os.Getenv("X_API_SECRET"),
			AccessToken:       os.Getenv("X_ACCESS_TOKEN"),
			AccessTokenSecret: os.Getenv("X_ACCESS_TOKEN_SECRET"),
		},
		ComposerType:      getEnvOrDefault("COMPOSER_TYPE", ComposerGroq),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		DryRun:            getEnvBool("DRY_RUN", false),
		CachePath:         getEnvOrDefault("CACHE_PATH", "posted_content.json"),
		FeedsPath:         os.Getenv("FEEDS_PATH"),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		SlackWebhookURL:   os.Getenv("SLACK_WEBHOOK_URL"),
		NotifyTimeout:     getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
	}
}

// Validate checks the configuration and returns every violation at once, so
// a misconfigured deployment surfaces all missing secrets in a single run.
// Dry runs skip the platform credential checks: nothing is delivered, so
// nothing needs signing.
func (c *BotConfig) Validate() error {
	var errs []error

	if !c.DryRun {
		if c.X.APIKey == "" {
			errs = append(errs, errors.New("X_API_KEY is required"))
		}
		if c.X.APISecret == "" {
			errs = append(errs, errors.New("X_API_SECRET is required"))
		}
		if c.X.AccessToken == "" {
			errs = append(errs, errors.New("X_ACCESS_TOKEN is required"))
		}
		if c.X.AccessTokenSecret == "" {
			errs = append(errs, errors.New("X_ACCESS_TOKEN_SECRET is required"))
		}
	}

	switch c.ComposerType {
	case ComposerGroq:
		if c.GroqAPIKey == "" {
			errs = append(errs, errors.New("GROQ_API_KEY is required for the groq composer"))
		}
	case ComposerClaude:
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the claude composer"))
		}
	case ComposerNoop:
	default:
		errs = append(errs, fmt.Errorf("unknown composer type %q (expected groq, claude, or noop)", c.ComposerType))
	}

	if c.CachePath == "" {
		errs = append(errs, errors.New("CACHE_PATH must not be empty"))
	}
	if c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration invalid: %w", errors.Join(errs...))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
