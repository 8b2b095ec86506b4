package metrics

import "time"

// RecordItemArchived records one item committed to the Archive Store.
func RecordItemArchived() {
	ItemsArchivedTotal.Inc()
}

// RecordItemDropped records one business drop. Reason is a small fixed
// vocabulary: "no_event_text", "no_analyzer", "invalid_response".
func RecordItemDropped(reason string) {
	ItemsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordItemErrored records one item that failed during archival and had
// its cache row flagged ERROR.
func RecordItemErrored() {
	ItemsErroredTotal.Inc()
}

// UpdateQueueDepth sets the current depth gauge for the named queue
// ("ingestion" or "postprocess").
func UpdateQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordAnalysisDuration records one full Analysis Worker cycle.
func RecordAnalysisDuration(duration time.Duration) {
	AnalysisDuration.Observe(duration.Seconds())
}

// RecordLLMCall records one LLM round-trip for the given backend
// ("claude" or "openai") and outcome ("success" or "failure").
func RecordLLMCall(backend string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	LLMCallsTotal.WithLabelValues(backend, status).Inc()
}

// RecordKeyRotation records one active-key switch.
func RecordKeyRotation() {
	KeyRotationsTotal.Inc()
}

// RecordRecommendationRun records one recommendation generation cycle with
// its outcome ("generated", "skipped", or "failed").
func RecordRecommendationRun(status string) {
	RecommendationRunsTotal.WithLabelValues(status).Inc()
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "insert_archive", "find_archive").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
