package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/sony/gobreaker"

	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"
)

// ExcerptFetcher extracts clean article text from a URL using the Mozilla
// Readability algorithm. It feeds comment-mode posts with context beyond
// the headline when the feed summary is empty.
//
// Thread safety: ExcerptFetcher is safe for concurrent use.
type ExcerptFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         ExcerptConfig
}

// NewExcerptFetcher creates an ExcerptFetcher with the given configuration.
// The HTTP client enforces TLS 1.2+, validates every redirect target, and
// caps total request time independently of the per-request timeout.
func NewExcerptFetcher(config ExcerptConfig) *ExcerptFetcher {
	f := &ExcerptFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		retryConfig:    retry.ContentFetchConfig(),
		config:         config,
	}

	f.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return f
}

// FetchExcerpt fetches the article at urlStr and returns its extracted
// text, capped at the configured rune limit.
func (f *ExcerptFetcher) FetchExcerpt(ctx context.Context, urlStr string) (string, error) {
	if !f.config.Enabled {
		return "", nil
	}

	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return "", err
	}

	var excerpt string

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, urlStr)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("excerpt fetch circuit breaker open, request rejected",
					slog.String("service", "content-fetch"),
					slog.String("url", urlStr),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		excerpt = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", retryErr
	}

	return excerpt, nil
}

// doFetch performs the HTTP request and readability extraction without
// retry or circuit breaker.
func (f *ExcerptFetcher) doFetch(ctx context.Context, urlStr string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "TrendPostBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	limitedReader := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	htmlBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > f.config.MaxBodySize {
		return "", fmt.Errorf("%w: response size %d bytes exceeds limit %d bytes",
			ErrBodyTooLarge, len(htmlBytes), f.config.MaxBodySize)
	}

	// Readability wants the final URL, which may differ after redirects.
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		parsedURL = nil
	}
	if resp.Request != nil && resp.Request.URL != nil {
		parsedURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), parsedURL)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return "", ErrNoContent
	}

	if r := []rune(content); len(r) > f.config.MaxExcerptRunes {
		content = strings.TrimSpace(string(r[:f.config.MaxExcerptRunes]))
	}

	return content, nil
}
