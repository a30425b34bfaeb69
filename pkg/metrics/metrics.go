package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarchia_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tarchia_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Commit engine metrics
	CommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tarchia_commits_total",
			Help: "Total number of committed transactions",
		},
	)

	CommitsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarchia_commits_failed_total",
			Help: "Total number of failed commit attempts by reason",
		},
		[]string{"reason"},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tarchia_commit_duration_seconds",
			Help:    "Time taken to commit a transaction in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ManifestEntriesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tarchia_manifest_entries_written_total",
			Help: "Total number of manifest entries written",
		},
	)

	ManifestEntriesPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tarchia_manifest_entries_pruned_total",
			Help: "Total number of manifest entries eliminated by pruning",
		},
	)

	// Event dispatch metrics
	EventDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarchia_event_deliveries_total",
			Help: "Total number of webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitsFailed)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(ManifestEntriesWritten)
	prometheus.MustRegister(ManifestEntriesPruned)
	prometheus.MustRegister(EventDeliveries)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
