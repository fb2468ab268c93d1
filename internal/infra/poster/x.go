// Package poster publishes finished posts to the X API v2. It carries the
// OAuth 1.0a user-context signing the v2 tweet endpoints require, plus the
// rate limiting and resilience wrapping every outbound call here gets.
package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"trendpost/internal/domain/entity"
	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"
	"trendpost/internal/utils/text"
)

const (
	defaultAPIBaseURL = "https://api.x.com/2"

	// platformLimit is the hard character (rune) limit enforced before
	// any network call. The generation loop should never hand us an
	// over-limit post; this is the final guard.
	platformLimit = 280
)

// ErrPostTooLong indicates a post exceeding the platform character limit.
var ErrPostTooLong = errors.New("post exceeds platform character limit")

// Credentials holds the OAuth 1.0a user-context credentials for the X API.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Validate reports whether all four credential parts are present.
func (c Credentials) Validate() error {
	if c.APIKey == "" || c.APISecret == "" || c.AccessToken == "" || c.AccessTokenSecret == "" {
		return errors.New("x api credentials are not fully configured")
	}
	return nil
}

// XPoster publishes posts through the X API v2 tweet endpoint.
// It includes rate limiting, circuit breaker, and retry logic.
//
// Thread safety: XPoster is safe for concurrent use, though the worker
// only ever runs one cycle at a time.
type XPoster struct {
	client         *http.Client
	baseURL        string
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	logger         *slog.Logger
}

// NewXPoster creates an XPoster signing requests with the given
// credentials. The rate limiter allows one post per 30 seconds with a
// small burst, far below the platform quota but well above what a
// slot-driven bot ever needs.
func NewXPoster(creds Credentials, logger *slog.Logger) (*XPoster, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	client := config.Client(oauth1.NoContext, token)
	client.Timeout = 30 * time.Second

	return &XPoster{
		client:         client,
		baseURL:        defaultAPIBaseURL,
		limiter:        rate.NewLimiter(rate.Every(30*time.Second), 2),
		circuitBreaker: circuitbreaker.New(circuitbreaker.PostAPIConfig()),
		retryConfig:    retry.PostAPIConfig(),
		logger:         logger,
	}, nil
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type userMeResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

// Post publishes the given text and returns the receipt. The length guard
// runs before any network traffic; a post failing it is a programming
// error upstream, not a transient condition.
func (p *XPoster) Post(ctx context.Context, postText string) (*entity.PostReceipt, error) {
	length := text.CountRunes(postText)
	if length > platformLimit {
		return nil, fmt.Errorf("%w: %d characters", ErrPostTooLong, length)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var receipt *entity.PostReceipt

	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doPost(ctx, postText)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				p.logger.Warn("x api circuit breaker open, request rejected",
					slog.String("service", "x-api"),
					slog.String("state", p.circuitBreaker.State().String()))
				return fmt.Errorf("x api unavailable: circuit breaker open")
			}
			return err
		}
		receipt = cbResult.(*entity.PostReceipt)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("x post failed: %w", retryErr)
	}

	p.logger.Info("post published",
		slog.String("tweet_id", receipt.ID),
		slog.String("permalink", receipt.Permalink),
		slog.Int("length", length))

	return receipt, nil
}

// doPost performs the actual API call without retry or circuit breaker.
func (p *XPoster) doPost(ctx context.Context, postText string) (*entity.PostReceipt, error) {
	payload, err := json.Marshal(createTweetRequest{Text: postText})
	if err != nil {
		return nil, fmt.Errorf("encode tweet request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var data createTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode tweet response: %w", err)
	}
	if data.Data.ID == "" {
		return nil, errors.New("x api returned no tweet id")
	}

	return &entity.PostReceipt{
		ID:        data.Data.ID,
		Permalink: fmt.Sprintf("https://x.com/i/web/status/%s", data.Data.ID),
	}, nil
}

// VerifyCredentials fetches the authenticated user and returns the
// username. Used by the -verify startup path.
func (p *XPoster) VerifyCredentials(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/users/me", nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var data userMeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode user response: %w", err)
	}
	if data.Data.Username == "" {
		return "", errors.New("could not fetch user info")
	}

	p.logger.Info("credentials verified",
		slog.String("username", data.Data.Username),
		slog.String("user_id", data.Data.ID))

	return data.Data.Username, nil
}
