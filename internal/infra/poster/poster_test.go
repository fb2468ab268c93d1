package poster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCreds() Credentials {
	return Credentials{
		APIKey:            "key",
		APISecret:         "secret",
		AccessToken:       "token",
		AccessTokenSecret: "token-secret",
	}
}

// newTestPoster points an XPoster at a local test server with fast retry
// and an unthrottled limiter.
func newTestPoster(t *testing.T, srv *httptest.Server) *XPoster {
	t.Helper()
	p, err := NewXPoster(testCreds(), testLogger())
	require.NoError(t, err)
	// Keep the oauth1-signing client; only the target URL changes.
	p.baseURL = srv.URL
	p.limiter = rate.NewLimiter(rate.Inf, 1)
	p.retryConfig = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}
	p.circuitBreaker = circuitbreaker.New(circuitbreaker.PostAPIConfig())
	return p
}

func TestCredentialsValidate(t *testing.T) {
	assert.NoError(t, testCreds().Validate())

	creds := testCreds()
	creds.AccessToken = ""
	assert.Error(t, creds.Validate())
}

func TestPostPublishesAndBuildsPermalink(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tweets", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "OAuth")

		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"1234567890","text":"hello"}}`)
	}))
	defer srv.Close()

	p := newTestPoster(t, srv)

	receipt, err := p.Post(context.Background(), "hello dev world")
	require.NoError(t, err)

	assert.Contains(t, gotBody, `"text":"hello dev world"`)
	assert.Equal(t, "1234567890", receipt.ID)
	assert.Equal(t, "https://x.com/i/web/status/1234567890", receipt.Permalink)
	assert.False(t, receipt.Dry)
}

func TestPostRejectsOverLimitBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := newTestPoster(t, srv)

	_, err := p.Post(context.Background(), strings.Repeat("x", 281))
	assert.ErrorIs(t, err, ErrPostTooLong)
	assert.False(t, called, "over-limit post must not reach the network")
}

func TestPostCountsRunesNotBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"data":{"id":"1","text":""}}`)
	}))
	defer srv.Close()

	p := newTestPoster(t, srv)

	// 280 multibyte runes, well over 280 bytes.
	_, err := p.Post(context.Background(), strings.Repeat("あ", 280))
	assert.NoError(t, err)
}

func TestPostAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail":"duplicate content"}`)
	}))
	defer srv.Close()

	p := newTestPoster(t, srv)

	_, err := p.Post(context.Background(), "hello")
	require.Error(t, err)

	var httpErr *retry.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}

func TestVerifyCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/me", r.URL.Path)
		fmt.Fprint(w, `{"data":{"id":"42","username":"devbot"}}`)
	}))
	defer srv.Close()

	p := newTestPoster(t, srv)

	username, err := p.VerifyCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "devbot", username)
}

func TestVerifyCredentialsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newTestPoster(t, srv)

	_, err := p.VerifyCredentials(context.Background())
	assert.Error(t, err)
}

func TestDryRunPoster(t *testing.T) {
	d := NewDryRun(testLogger())

	receipt, err := d.Post(context.Background(), "a dry run post")
	require.NoError(t, err)
	assert.True(t, receipt.Dry)
	assert.Empty(t, receipt.ID)

	_, err = d.Post(context.Background(), strings.Repeat("x", 300))
	assert.ErrorIs(t, err, ErrPostTooLong)

	username, err := d.VerifyCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dry-run", username)
}
