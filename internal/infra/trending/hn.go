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
	"sort"

	"trendpost/internal/domain/entity"
	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

const defaultHNSearchURL = "https://hn.algolia.com/api/v1/search"

// hnQueries are the search terms polled for trending developer discussions.
var hnQueries = []string{"AI", "LLM", "programming", "developer", "coding"}

// HNFetcher pulls trending stories from the Hacker News Algolia search API.
// It includes circuit breaker and retry logic for improved reliability.
type HNFetcher struct {
	client         *http.Client
	baseURL        string
	minPoints      int
	maxItems       int
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewHNFetcher creates an HNFetcher with the given HTTP client.
func NewHNFetcher(client *http.Client) *HNFetcher {
	return &HNFetcher{
		client:         client,
		baseURL:        defaultHNSearchURL,
		minPoints:      30,
		maxItems:       5,
		circuitBreaker: circuitbreaker.New(circuitbreaker.TrendingFetchConfig("hn-algolia")),
		retryConfig:    retry.TrendingFetchConfig(),
	}
}

// hnSearchResponse is the subset of the Algolia response we consume.
type hnSearchResponse struct {
	Hits []struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		Author      string `json:"author"`
	} `json:"hits"`
}

// Fetch returns the current trending discussions, deduplicated across
// queries and sorted by points descending. A single failing query is
// logged and skipped; the method fails only when every query fails.
func (f *HNFetcher) Fetch(ctx context.Context) ([]entity.Topic, error) {
	seen := make(map[string]bool)
	var topics []entity.Topic
	var lastErr error
	failures := 0

	for _, query := range hnQueries {
		hits, err := f.search(ctx, query)
		if err != nil {
			slog.Warn("hn query failed",
				slog.String("query", query),
				slog.Any("error", err))
			lastErr = err
			failures++
			continue
		}

		for _, t := range hits {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			topics = append(topics, t)
		}
	}

	if failures == len(hnQueries) {
		return nil, fmt.Errorf("all hn queries failed: %w", lastErr)
	}

	sort.Slice(topics, func(i, j int) bool {
		return topics[i].Score > topics[j].Score
	})
	if len(topics) > f.maxItems {
		topics = topics[:f.maxItems]
	}

	return topics, nil
}

// search runs one Algolia query through retry and circuit breaker.
func (f *HNFetcher) search(ctx context.Context, query string) ([]entity.Topic, error) {
	var topics []entity.Topic

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doSearch(ctx, query)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("hn fetch circuit breaker open, request rejected",
					slog.String("service", "hn-algolia"),
					slog.String("query", query),
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

// doSearch performs the actual API call without retry or circuit breaker.
func (f *HNFetcher) doSearch(ctx context.Context, query string) ([]entity.Topic, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("numericFilters", fmt.Sprintf("points>%d", f.minPoints))
	params.Set("hitsPerPage", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var data hnSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode hn response: %w", err)
	}

	topics := make([]entity.Topic, 0, len(data.Hits))
	for _, hit := range data.Hits {
		link := hit.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID)
		}
		topics = append(topics, entity.Topic{
			ID:       hit.ObjectID,
			Title:    hit.Title,
			URL:      link,
			Score:    hit.Points,
			Comments: hit.NumComments,
			Author:   hit.Author,
			Source:   "Hacker News",
			Category: "Dev Discussion",
		})
	}

	return topics, nil
}
