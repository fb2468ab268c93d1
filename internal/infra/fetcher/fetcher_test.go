package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendpost/internal/resilience/retry"
)

func testConfig() ExcerptConfig {
	cfg := DefaultExcerptConfig()
	// httptest servers listen on loopback.
	cfg.DenyPrivateIPs = false
	return cfg
}

func newTestFetcher(srv *httptest.Server, cfg ExcerptConfig) *ExcerptFetcher {
	f := NewExcerptFetcher(cfg)
	f.client = srv.Client()
	f.retryConfig = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1.0}
	return f
}

func TestFetchExcerptExtractsArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<!DOCTYPE html><html><head><title>Test Article</title></head><body>
<article><h1>Test Article</h1>
<p>This is the first paragraph of a reasonably long article body that the
readability algorithm should consider actual content worth extracting.</p>
<p>And a second paragraph with more words to convince the scorer that this
page is an article and not navigation chrome.</p></article>
</body></html>`)
	}))
	defer srv.Close()

	f := newTestFetcher(srv, testConfig())

	excerpt, err := f.FetchExcerpt(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, excerpt, "first paragraph")
	assert.NotContains(t, excerpt, "<p>")
}

func TestFetchExcerptCapsLength(t *testing.T) {
	body := strings.Repeat("lots of article words here. ", 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Long</title></head><body><article><p>%s</p></article></body></html>`, body)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxExcerptRunes = 100
	f := newTestFetcher(srv, cfg)

	excerpt, err := f.FetchExcerpt(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(excerpt)), 100)
}

func TestFetchExcerptDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	f := NewExcerptFetcher(cfg)

	excerpt, err := f.FetchExcerpt(context.Background(), "https://example.com/article")
	require.NoError(t, err)
	assert.Empty(t, excerpt)
}

func TestFetchExcerptRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(srv, testConfig())

	_, err := f.FetchExcerpt(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchExcerptRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	f := newTestFetcher(srv, cfg)

	_, err := f.FetchExcerpt(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://example.com/a", wantErr: false},
		{name: "http", url: "http://example.com/a", wantErr: false},
		{name: "ftp scheme", url: "ftp://example.com/a", wantErr: true},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "empty hostname", url: "https:///path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURL(tt.url, false)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("loopback blocked when private ips denied", func(t *testing.T) {
		err := validateURL("http://127.0.0.1/article", true)
		assert.ErrorIs(t, err, ErrPrivateIP)
	})
}

func TestExcerptConfigValidate(t *testing.T) {
	t.Run("defaults valid", func(t *testing.T) {
		cfg := DefaultExcerptConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero timeout", func(t *testing.T) {
		cfg := DefaultExcerptConfig()
		cfg.Timeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("tiny body size", func(t *testing.T) {
		cfg := DefaultExcerptConfig()
		cfg.MaxBodySize = 10
		assert.Error(t, cfg.Validate())
	})

	t.Run("excessive redirects", func(t *testing.T) {
		cfg := DefaultExcerptConfig()
		cfg.MaxRedirects = 50
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadExcerptConfigFromEnv(t *testing.T) {
	t.Run("overrides applied", func(t *testing.T) {
		t.Setenv("EXCERPT_FETCH_ENABLED", "false")
		t.Setenv("EXCERPT_FETCH_TIMEOUT", "5s")
		t.Setenv("EXCERPT_FETCH_MAX_RUNES", "300")

		cfg, err := LoadExcerptConfigFromEnv()
		require.NoError(t, err)
		assert.False(t, cfg.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, 300, cfg.MaxExcerptRunes)
	})

	t.Run("invalid timeout rejected", func(t *testing.T) {
		t.Setenv("EXCERPT_FETCH_TIMEOUT", "banana")

		_, err := LoadExcerptConfigFromEnv()
		assert.Error(t, err)
	})
}
