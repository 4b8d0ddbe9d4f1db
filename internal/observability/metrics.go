// Package observability provides metrics, tracing and error reporting.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToggleTotal counts toggle outcomes by kind (like, got_it, follow) and outcome.
	ToggleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freebies_toggle_total",
		Help: "Toggle operations by kind and outcome",
	}, []string{"kind", "outcome"})

	// NotificationsTotal counts fan-out results by notification type and outcome.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freebies_notifications_total",
		Help: "Notification fan-out results by type and outcome",
	}, []string{"type", "outcome"})

	// FeedComposeSeconds records feed composition latency.
	FeedComposeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freebies_feed_compose_seconds",
		Help:    "Feed composition latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"radius"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freebies_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RedisErrors counts Redis errors by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freebies_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})
)

// Notification outcomes.
const (
	OutcomeCreated    = "created"
	OutcomeRemoved    = "removed"
	OutcomeSuppressed = "suppressed"
	OutcomeDuplicate  = "duplicate"
	OutcomeFailed     = "failed"
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackFeed returns a function that records feed composition latency.
func TrackFeed(withRadius bool) func() {
	label := "none"
	if withRadius {
		label = "radius"
	}
	start := time.Now()
	return func() {
		FeedComposeSeconds.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}
}
