package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trendpost/internal/domain/entity"
	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

const defaultGitHubSearchURL = "https://api.github.com/search/repositories"

// GitHubFetcher pulls recently created trending repositories via the
// GitHub search API, which requires no authentication for basic queries.
type GitHubFetcher struct {
	client         *http.Client
	baseURL        string
	maxItems       int
	now            func() time.Time
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewGitHubFetcher creates a GitHubFetcher with the given HTTP client.
func NewGitHubFetcher(client *http.Client) *GitHubFetcher {
	return &GitHubFetcher{
		client:         client,
		baseURL:        defaultGitHubSearchURL,
		maxItems:       3,
		now:            time.Now,
		circuitBreaker: circuitbreaker.New(circuitbreaker.TrendingFetchConfig("github-search")),
		retryConfig:    retry.TrendingFetchConfig(),
	}
}

type githubSearchResponse struct {
	Items []struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		HTMLURL         string `json:"html_url"`
		StargazersCount int    `json:"stargazers_count"`
		Language        string `json:"language"`
		Owner           struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"items"`
}

// Fetch returns repositories created in the last seven days, sorted by
// stars descending.
func (f *GitHubFetcher) Fetch(ctx context.Context) ([]entity.Topic, error) {
	var topics []entity.Topic

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doSearch(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("github fetch circuit breaker open, request rejected",
					slog.String("service", "github-search"),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		topics = cbResult.([]entity.Topic)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return topics, nil
}

func (f *GitHubFetcher) doSearch(ctx context.Context) ([]entity.Topic, error) {
	weekAgo := f.now().AddDate(0, 0, -7).Format("2006-01-02")

	params := url.Values{}
	params.Set("q", fmt.Sprintf("AI OR machine-learning OR LLM created:>%s", weekAgo))
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(f.maxItems))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var data githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode github response: %w", err)
	}

	topics := make([]entity.Topic, 0, len(data.Items))
	for _, repo := range data.Items {
		desc := repo.Description
		if desc == "" {
			desc = "No description"
		}
		if r := []rune(desc); len(r) > 100 {
			desc = string(r[:100])
		}
		topics = append(topics, entity.Topic{
			Title:    fmt.Sprintf("%s - %s", repo.Name, desc),
			URL:      repo.HTMLURL,
			Score:    repo.StargazersCount,
			Author:   repo.Owner.Login,
			Source:   "GitHub Trending",
			Category: "Open Source",
			Summary:  repo.Description,
		})
	}

	return topics, nil
}
