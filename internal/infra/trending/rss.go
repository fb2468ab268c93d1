package trending

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"trendpost/internal/domain/entity"
	"trendpost/internal/resilience/circuitbreaker"
	"trendpost/internal/resilience/retry"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

const (
	rssMaxAge       = 24 * time.Hour
	rssItemsPerFeed = 5
	rssMaxItems     = 5
	rssSummaryLimit = 200
)

// RSSFetcher pulls recent articles from the configured feed sources
// using the gofeed library.
type RSSFetcher struct {
	client         *http.Client
	feeds          []FeedSource
	now            func() time.Time
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewRSSFetcher creates an RSSFetcher over the given feed sources.
func NewRSSFetcher(client *http.Client, feeds []FeedSource) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		feeds:          feeds,
		now:            time.Now,
		circuitBreaker: circuitbreaker.New(circuitbreaker.TrendingFetchConfig("rss-feeds")),
		retryConfig:    retry.TrendingFetchConfig(),
	}
}

// Fetch returns articles published within the last 24 hours across all
// configured feeds, sorted by publication time descending and capped
// globally. A single failing feed is logged and skipped; the method
// fails only when every feed fails.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]entity.Topic, error) {
	cutoff := f.now().Add(-rssMaxAge)

	var topics []entity.Topic
	var lastErr error
	failures := 0

	for _, feed := range f.feeds {
		items, err := f.fetchFeed(ctx, feed)
		if err != nil {
			slog.Warn("rss feed fetch failed",
				slog.String("feed", feed.Name),
				slog.Any("error", err))
			lastErr = err
			failures++
			continue
		}

		for _, t := range items {
			if !t.PublishedAt.IsZero() && t.PublishedAt.Before(cutoff) {
				continue
			}
			topics = append(topics, t)
		}
	}

	if len(f.feeds) > 0 && failures == len(f.feeds) {
		return nil, lastErr
	}

	sort.Slice(topics, func(i, j int) bool {
		return topics[i].PublishedAt.After(topics[j].PublishedAt)
	})
	if len(topics) > rssMaxItems {
		topics = topics[:rssMaxItems]
	}

	return topics, nil
}

// fetchFeed retrieves one feed through retry and circuit breaker.
func (f *RSSFetcher) fetchFeed(ctx context.Context, feed FeedSource) ([]entity.Topic, error) {
	var topics []entity.Topic

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feed)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("rss fetch circuit breaker open, request rejected",
					slog.String("service", "rss-feeds"),
					slog.String("feed", feed.Name),
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

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feed FeedSource) ([]entity.Topic, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "TrendPostBot"
	fp.Client = f.client

	parsed, err := fp.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, err
	}

	items := parsed.Items
	if len(items) > rssItemsPerFeed {
		items = items[:rssItemsPerFeed]
	}

	topics := make([]entity.Topic, 0, len(items))
	for _, it := range items {
		var pubAt time.Time
		if it.PublishedParsed != nil {
			pubAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pubAt = *it.UpdatedParsed
		}

		summary := it.Description
		if summary == "" {
			summary = it.Content
		}

		topics = append(topics, entity.Topic{
			Title:       it.Title,
			URL:         it.Link,
			Source:      feed.Name,
			Category:    feed.Category,
			Summary:     cleanSummary(summary),
			PublishedAt: pubAt,
		})
	}

	return topics, nil
}

// cleanSummary strips HTML markup from a feed summary and caps its length.
// Feeds routinely embed markup in descriptions; the composer wants plain
// text.
func cleanSummary(s string) string {
	if s == "" {
		return ""
	}
	if r := []rune(s); len(r) > rssSummaryLimit {
		s = string(r[:rssSummaryLimit])
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
