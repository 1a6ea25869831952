package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_messages_ingested_total",
			Help: "Customer messages ingested",
		},
		[]string{"source", "status"}, // source: submit, import; status: success, failed
	)

	UrgencyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "triage_urgency_score",
			Help:    "Urgency scores assigned at ingestion",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 to 100
		},
	)

	AssignmentOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_assignment_ops_total",
			Help: "Claim and unclaim operations",
		},
		[]string{"op", "status"}, // op: claim, unclaim
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_events_published_total",
			Help: "Change events published to the stream",
		},
		[]string{"routing_key", "status"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_events_consumed_total",
			Help: "Change events consumed off the stream",
		},
		[]string{"routing_key", "status"},
	)

	SlowQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_queries_total",
			Help: "Queries that exceeded the slow-query threshold",
		},
	)
)

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records one repository query.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// ObserveUrgency records the score assigned to an ingested message.
func ObserveUrgency(score int) {
	UrgencyScore.Observe(float64(score))
}
