// Package metrics provides centralized Prometheus metrics for the
// intelligence pipeline. HTTP-surface metrics live with the HTTP handlers;
// this package covers the workers, queues, LLM calls, key rotation, and
// database operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics track items moving through the analysis/archival flow
var (
	// ItemsArchivedTotal counts items successfully written to the Archive Store
	ItemsArchivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_items_archived_total",
			Help: "Total number of items archived",
		},
	)

	// ItemsDroppedTotal counts business drops by reason
	// (no_event_text, no_analyzer, invalid_response)
	ItemsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_items_dropped_total",
			Help: "Total number of items dropped before archival",
		},
		[]string{"reason"},
	)

	// ItemsErroredTotal counts items whose cache row was flagged ERROR
	ItemsErroredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_items_errored_total",
			Help: "Total number of items that failed during archival",
		},
	)

	// QueueDepth tracks the current depth of each bounded queue
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hub_queue_depth",
			Help: "Current depth of a pipeline queue",
		},
		[]string{"queue"}, // ingestion, postprocess
	)

	// AnalysisDuration measures one full Analysis Worker cycle per item
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hub_analysis_duration_seconds",
			Help:    "Time taken to analyze one collected item",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	// LLMCallsTotal counts LLM round-trips by backend and outcome
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_llm_calls_total",
			Help: "Total number of LLM calls",
		},
		[]string{"backend", "status"},
	)

	// KeyRotationsTotal counts active-key switches by the Key Rotator
	KeyRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_key_rotations_total",
			Help: "Total number of API key rotations",
		},
	)

	// RecommendationRunsTotal counts recommendation generation cycles by outcome
	RecommendationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_recommendation_runs_total",
			Help: "Total number of recommendation generation cycles",
		},
		[]string{"status"}, // generated, skipped, failed
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
