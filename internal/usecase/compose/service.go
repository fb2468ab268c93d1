// Package compose implements the bounded-retry generation loop: it asks the
// AI composer for candidate posts until the dedup cache accepts one, or the
// attempt budget runs out. Every run terminates in Succeeded, Exhausted, or
// Failed, and callers can branch on which one they got.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"trendpost/internal/domain/entity"
	"trendpost/internal/observability/metrics"
	"trendpost/internal/utils/text"
)

const (
	// DefaultMaxAttempts is the generation attempt budget per cycle.
	DefaultMaxAttempts = 5

	// PlatformLimit is the hard character (rune) limit of the platform.
	PlatformLimit = 280

	// recentContextLimit is how many recent post previews are handed to the
	// composer as anti-repetition context.
	recentContextLimit = 10

	// commentPoolSize caps the random topic pool for comment mode.
	commentPoolSize = 5
)

// Composer produces one candidate post per call. Implementations live in
// internal/infra/composer; they may fail on transient upstream errors, in
// which case this loop supplies the retry policy.
type Composer interface {
	// ComposeDigest writes a post reacting to the trending bundle as a whole.
	ComposeDigest(ctx context.Context, bundle entity.TopicBundle, recentPosts []string) (string, error)

	// ComposeComment writes a post reacting to a single topic.
	ComposeComment(ctx context.Context, topic entity.Topic, recentPosts []string) (string, error)
}

// DedupCache answers duplicate queries and supplies anti-repetition context.
// Satisfied by *cache.Store and trivially fakeable in tests.
type DedupCache interface {
	IsDuplicate(text string) bool
	RecentPreviews(limit int) []string
}

// ContextFetcher optionally enriches a comment-mode topic with full article
// text. Nil disables enrichment.
type ContextFetcher interface {
	FetchExcerpt(ctx context.Context, url string) (string, error)
}

// Outcome is the terminal state of one loop run.
type Outcome string

const (
	// OutcomeSucceeded means a non-duplicate candidate was produced.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeExhausted means the attempt budget ran out on duplicates.
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeFailed means the composer never produced a candidate.
	OutcomeFailed Outcome = "failed"
)

// Result describes a finished loop run. Text is only set for
// OutcomeSucceeded; Attempts counts every attempt consumed, including
// failed ones.
type Result struct {
	Outcome  Outcome
	Text     string
	Attempts int
	// Duplicates is how many attempts were rejected by the cache.
	Duplicates int
}

// Service is the generation loop controller.
type Service struct {
	Composer       Composer
	Cache          DedupCache
	ContextFetcher ContextFetcher // optional
	MaxAttempts    int            // zero means DefaultMaxAttempts

	// pick selects a random index in [0,n). Overridable for tests;
	// defaults to math/rand.
	pick func(n int) int
}

// NewService creates a generation loop with the default attempt budget.
func NewService(composer Composer, cache DedupCache, contextFetcher ContextFetcher) *Service {
	return &Service{
		Composer:       composer,
		Cache:          cache,
		ContextFetcher: contextFetcher,
		MaxAttempts:    DefaultMaxAttempts,
	}
}

// Run executes the loop for the given mode and bundle.
//
// Each attempt draws fresh anti-repetition context from the cache, asks the
// composer for a candidate, truncates it to the platform limit at a word
// boundary, and checks it against the dedup cache. Truncation happens
// before fingerprinting, so a truncated candidate and its un-truncated
// near-twin remain distinguishable.
//
// In comment mode the topic is re-drawn uniformly at random from the top of
// the most relevant category on every attempt, so a duplicate on one
// attempt can be followed by a fresh angle on the next.
//
// Terminal behavior: the first non-duplicate candidate wins. If the budget
// runs out and at least one candidate was produced, the result is
// OutcomeExhausted with ErrExhausted. If the composer never produced a
// candidate at all, the result is OutcomeFailed with ErrComposerFailed
// wrapping the last composer error.
func (s *Service) Run(ctx context.Context, mode entity.Mode, bundle entity.TopicBundle) (*Result, error) {
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	res := &Result{}
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Outcome = OutcomeFailed
			return res, fmt.Errorf("generation loop aborted: %w", err)
		}

		res.Attempts = attempt
		recent := s.Cache.RecentPreviews(recentContextLimit)

		candidate, err := s.composeOnce(ctx, mode, bundle, recent)
		if err != nil {
			if errors.Is(err, ErrNoTopics) {
				res.Outcome = OutcomeFailed
				return res, err
			}
			lastErr = err
			metrics.RecordGenerationAttempt("error")
			slog.Warn("composer attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxAttempts),
				slog.Any("error", err))
			continue
		}

		candidate = text.TruncateWords(candidate, PlatformLimit)

		if s.Cache.IsDuplicate(candidate) {
			res.Duplicates++
			metrics.RecordGenerationAttempt("duplicate")
			slog.Info("candidate rejected as duplicate",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxAttempts),
				slog.String("preview", candidate[:min(len(candidate), 60)]))
			continue
		}

		metrics.RecordGenerationAttempt("accepted")
		res.Outcome = OutcomeSucceeded
		res.Text = candidate
		slog.Info("candidate accepted",
			slog.Int("attempt", attempt),
			slog.Int("length", text.CountRunes(candidate)))
		return res, nil
	}

	if res.Duplicates == 0 && lastErr != nil {
		res.Outcome = OutcomeFailed
		return res, fmt.Errorf("%w: %w", ErrComposerFailed, lastErr)
	}

	res.Outcome = OutcomeExhausted
	return res, fmt.Errorf("%w (attempts=%d, duplicates=%d)", ErrExhausted, res.Attempts, res.Duplicates)
}

// composeOnce produces one candidate for the given mode.
func (s *Service) composeOnce(ctx context.Context, mode entity.Mode, bundle entity.TopicBundle, recent []string) (string, error) {
	if mode == entity.ModeComment {
		topic, err := s.pickTopic(ctx, bundle)
		if err != nil {
			return "", err
		}
		return s.Composer.ComposeComment(ctx, topic, recent)
	}
	return s.Composer.ComposeDigest(ctx, bundle, recent)
}

// pickTopic draws a comment-mode topic uniformly at random from the top of
// the most relevant category, optionally enriching it with article content.
func (s *Service) pickTopic(ctx context.Context, bundle entity.TopicBundle) (entity.Topic, error) {
	pool := bundle.CommentPool(commentPoolSize)
	if len(pool) == 0 {
		return entity.Topic{}, ErrNoTopics
	}

	pick := s.pick
	if pick == nil {
		pick = rand.Intn
	}
	topic := pool[pick(len(pool))]

	if s.ContextFetcher != nil && topic.Summary == "" && topic.URL != "" {
		excerpt, err := s.ContextFetcher.FetchExcerpt(ctx, topic.URL)
		if err != nil {
			// Context is a nice-to-have; the title alone is enough.
			slog.Debug("context fetch failed, commenting on title only",
				slog.String("url", topic.URL),
				slog.Any("error", err))
		} else {
			topic.Summary = excerpt
		}
	}

	return topic, nil
}
