// Package metrics provides centralized Prometheus metrics for the bot's
// business events: generation attempts, duplicate detections, publishes,
// and dedup cache state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationAttemptsTotal counts candidate generation attempts by result
	// (accepted, duplicate, error).
	GenerationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Total number of post generation attempts",
		},
		[]string{"result"},
	)

	// DuplicatesDetectedTotal counts candidates rejected by the dedup cache.
	DuplicatesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicates_detected_total",
			Help: "Total number of candidate posts rejected as duplicates",
		},
	)

	// PostsPublishedTotal counts delivered posts by delivery kind
	// (live, dry_run).
	PostsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_published_total",
			Help: "Total number of posts delivered to the platform",
		},
		[]string{"delivery"},
	)

	// PostLength measures the rune length of published posts.
	PostLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "post_length_runes",
			Help:    "Length of published posts in runes",
			Buckets: []float64{50, 100, 140, 200, 240, 280},
		},
	)

	// CacheEntries tracks the number of entries in the dedup cache file.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_cache_entries",
			Help: "Number of entries currently held in the dedup cache",
		},
	)

	// TopicsFetchedTotal counts trending topics fetched per source category.
	TopicsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topics_fetched_total",
			Help: "Total number of trending topics fetched",
		},
		[]string{"category"},
	)

	// TopicFetchErrors counts per-category fetch failures that degraded to
	// an empty category.
	TopicFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topic_fetch_errors_total",
			Help: "Total number of trending fetch failures by category",
		},
		[]string{"category"},
	)

	// ComposeDuration measures the time spent in a single composer call.
	ComposeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compose_duration_seconds",
			Help:    "Duration of individual AI composition calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// RecordGenerationAttempt records one generation attempt with its result:
// "accepted", "duplicate", or "error".
func RecordGenerationAttempt(result string) {
	GenerationAttemptsTotal.WithLabelValues(result).Inc()
	if result == "duplicate" {
		DuplicatesDetectedTotal.Inc()
	}
}

// RecordPostPublished records a delivered post. Dry deliveries are counted
// separately so dashboards distinguish rehearsals from real traffic.
func RecordPostPublished(dry bool, lengthRunes int) {
	delivery := "live"
	if dry {
		delivery = "dry_run"
	}
	PostsPublishedTotal.WithLabelValues(delivery).Inc()
	PostLength.Observe(float64(lengthRunes))
}

// UpdateCacheEntries updates the dedup cache size gauge.
func UpdateCacheEntries(count int) {
	CacheEntries.Set(float64(count))
}

// RecordTopicsFetched records the number of topics fetched for a category.
func RecordTopicsFetched(category string, count int) {
	TopicsFetchedTotal.WithLabelValues(category).Add(float64(count))
}

// RecordTopicFetchError records a degraded (empty) category fetch.
func RecordTopicFetchError(category string) {
	TopicFetchErrors.WithLabelValues(category).Inc()
}

// RecordComposeDuration records the duration of one composer call.
func RecordComposeDuration(d time.Duration) {
	ComposeDuration.Observe(d.Seconds())
}
