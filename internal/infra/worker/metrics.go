package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trendpost/internal/pkg/config"
)

// WorkerMetrics holds the daemon-level Prometheus metrics. It embeds
// ConfigMetrics for configuration fallback tracking and adds per-cycle
// execution metrics:
//
//   - worker_cycle_runs_total{status}: cycle outcomes by report status
//   - worker_cycle_duration_seconds: end-to-end cycle duration
//   - worker_cycle_last_success_timestamp: Unix time of last published post
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CycleRunsTotal counts finished cycles by status
	// (published, dry_run, duplicate_exhausted, failed, skipped).
	CycleRunsTotal *prometheus.CounterVec

	// CycleDurationSeconds measures the end-to-end cycle duration, covering
	// the trending fetch, the generation loop, and the publish call.
	CycleDurationSeconds prometheus.Histogram

	// CycleLastSuccessTimestamp is the Unix time of the last cycle that
	// actually published a post.
	CycleLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates and registers the daemon metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CycleRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cycle_runs_total",
			Help: "Total number of posting cycles by outcome status",
		}, []string{"status"}),

		CycleDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cycle_duration_seconds",
			Help:    "End-to-end duration of a posting cycle in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		CycleLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last cycle that published a post",
		}),
	}
}

// RecordCycleRun increments the cycle counter for the given report status.
func (m *WorkerMetrics) RecordCycleRun(status string) {
	m.CycleRunsTotal.WithLabelValues(status).Inc()
}

// RecordCycleDuration observes one cycle's duration in seconds.
func (m *WorkerMetrics) RecordCycleDuration(seconds float64) {
	m.CycleDurationSeconds.Observe(seconds)
}

// RecordLastSuccess stamps the last-success gauge with the current time.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CycleLastSuccessTimestamp.SetToCurrentTime()
}
