// Package metrics provides Prometheus metrics for the fern service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal tracks classifier outcomes by tier ("none" for no match)
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "classifications_total",
			Help:      "Total number of candidate classifications by resulting tier",
		},
		[]string{"tier"},
	)

	// SubmissionsTotal tracks report submissions by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "reports",
			Name:      "submissions_total",
			Help:      "Total number of report submissions by outcome",
		},
		[]string{"outcome"},
	)

	// StoreConflictsTotal tracks inserts rejected by the identity constraint
	StoreConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "reports",
			Name:      "store_conflicts_total",
			Help:      "Total number of inserts rejected by the store identity constraint",
		},
	)

	// CheckInsTotal tracks self check-ins by outcome
	CheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "reports",
			Name:      "checkins_total",
			Help:      "Total number of self check-ins by outcome",
		},
		[]string{"outcome"},
	)

	// SearchDuration tracks search latency in seconds
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Duration of record searches in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// EventsPublishedTotal tracks Kafka publishes by event type and status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "Total number of events published to Kafka",
		},
		[]string{"event_type", "status"},
	)
)

// RecordClassification records the tier a classification resolved to. Zero means no match.
func RecordClassification(tier int) {
	label := "none"
	if tier > 0 {
		label = strconv.Itoa(tier)
	}
	ClassificationsTotal.WithLabelValues(label).Inc()
}

// RecordSubmission records a report submission outcome
func RecordSubmission(outcome string) {
	SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreConflict records an insert rejected by the identity constraint
func RecordStoreConflict() {
	StoreConflictsTotal.Inc()
}

// RecordCheckIn records a self check-in outcome
func RecordCheckIn(outcome string) {
	CheckInsTotal.WithLabelValues(outcome).Inc()
}

// RecordSearch records a search duration
func RecordSearch(durationSeconds float64) {
	SearchDuration.Observe(durationSeconds)
}

// RecordEventPublish records a Kafka publish attempt
func RecordEventPublish(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
