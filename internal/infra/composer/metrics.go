package composer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ComposeMetricsRecorder defines the interface for recording composition
// metrics. Abstracting the recorder keeps the AI providers testable: unit
// tests inject a mock instead of touching the global Prometheus registry.
type ComposeMetricsRecorder interface {
	// RecordLength records the length of a generated post in runes.
	RecordLength(length int)

	// RecordLimitExceeded increments the counter when a raw candidate
	// exceeds the platform character limit before truncation.
	RecordLimitExceeded()

	// RecordDuration records the time taken by one composition API call.
	RecordDuration(duration time.Duration)
}

// PrometheusComposeMetrics implements ComposeMetricsRecorder using
// Prometheus metrics. This is the production implementation.
type PrometheusComposeMetrics struct {
	lengthHistogram   prometheus.Histogram
	exceededCounter   prometheus.Counter
	durationHistogram prometheus.Histogram
}

var (
	prometheusMetricsInstance *PrometheusComposeMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateHistogram gets an existing histogram or creates a new one if it doesn't exist
func getOrCreateHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		return promauto.NewHistogram(opts)
	}
	return h
}

// getOrCreateCounter gets an existing counter or creates a new one if it doesn't exist
func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		return promauto.NewCounter(opts)
	}
	return c
}

// NewPrometheusComposeMetrics creates the Prometheus-based recorder.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusComposeMetrics() *PrometheusComposeMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusComposeMetrics{
			lengthHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "post_candidate_length_characters",
				Help:    "Distribution of raw candidate lengths in characters (Unicode runes)",
				Buckets: []float64{50, 100, 140, 200, 240, 280, 320, 400},
			}),
			exceededCounter: getOrCreateCounter(prometheus.CounterOpts{
				Name: "post_candidate_limit_exceeded_total",
				Help: "Total number of raw candidates exceeding the platform character limit",
			}),
			durationHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "post_composition_duration_seconds",
				Help:    "Time taken to generate a post candidate via AI API",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
		}
	})
	return prometheusMetricsInstance
}

// RecordLength implements ComposeMetricsRecorder.RecordLength
func (p *PrometheusComposeMetrics) RecordLength(length int) {
	p.lengthHistogram.Observe(float64(length))
}

// RecordLimitExceeded implements ComposeMetricsRecorder.RecordLimitExceeded
func (p *PrometheusComposeMetrics) RecordLimitExceeded() {
	p.exceededCounter.Inc()
}

// RecordDuration implements ComposeMetricsRecorder.RecordDuration
func (p *PrometheusComposeMetrics) RecordDuration(duration time.Duration) {
	p.durationHistogram.Observe(duration.Seconds())
}
