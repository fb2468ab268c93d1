// Package trending aggregates trending developer content from Hacker News,
// GitHub, and RSS feeds into a single topic bundle per posting cycle.
package trending

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"trendpost/internal/domain/entity"
	"trendpost/internal/observability/metrics"

	"golang.org/x/sync/errgroup"
)

// categoryFetcher is one upstream source of topics.
type categoryFetcher interface {
	Fetch(ctx context.Context) ([]entity.Topic, error)
}

// Service fans out to all upstream sources concurrently and assembles a
// TopicBundle. A failing source degrades to an empty category rather than
// failing the whole fetch; a cycle with partial trending data still beats
// a cycle with none.
type Service struct {
	hn     categoryFetcher
	github categoryFetcher
	rss    categoryFetcher
	logger *slog.Logger
}

// NewService builds a Service with the production fetchers over a shared
// HTTP client.
func NewService(feeds []FeedSource, logger *slog.Logger) *Service {
	client := &http.Client{Timeout: 10 * time.Second}
	return &Service{
		hn:     NewHNFetcher(client),
		github: NewGitHubFetcher(client),
		rss:    NewRSSFetcher(client, feeds),
		logger: logger,
	}
}

// FetchAll fetches every category concurrently and returns the bundle.
// It never returns an error: each failing category is recorded and left
// empty. Callers decide what an entirely empty bundle means for them.
func (s *Service) FetchAll(ctx context.Context) entity.TopicBundle {
	var bundle entity.TopicBundle

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Discussions = s.fetchCategory(gctx, "hn", s.hn)
		return nil
	})
	g.Go(func() error {
		bundle.Repos = s.fetchCategory(gctx, "github", s.github)
		return nil
	})
	g.Go(func() error {
		bundle.Articles = s.fetchCategory(gctx, "rss", s.rss)
		return nil
	})

	_ = g.Wait()

	s.logger.Info("trending fetch complete",
		slog.Int("discussions", len(bundle.Discussions)),
		slog.Int("repos", len(bundle.Repos)),
		slog.Int("articles", len(bundle.Articles)))

	return bundle
}

func (s *Service) fetchCategory(ctx context.Context, category string, f categoryFetcher) []entity.Topic {
	start := time.Now()
	topics, err := f.Fetch(ctx)
	if err != nil {
		s.logger.Warn("trending category fetch failed",
			slog.String("category", category),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		metrics.RecordTopicFetchError(category)
		return nil
	}

	s.logger.Debug("trending category fetched",
		slog.String("category", category),
		slog.Int("count", len(topics)),
		slog.Duration("elapsed", time.Since(start)))
	metrics.RecordTopicsFetched(category, len(topics))
	return topics
}
