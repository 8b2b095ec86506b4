// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the intelligence pipeline's metrics including:
//   - Item flow metrics (archived, dropped, errored)
//   - Queue depth gauges for the ingestion and post-process queues
//   - LLM call and key-rotation counters
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "intelhub/internal/observability/metrics"
//
//	func archiveItem() {
//	    start := time.Now()
//	    // ... insert into archive store ...
//
//	    metrics.RecordItemArchived()
//	    metrics.RecordDBQuery("insert_archive", time.Since(start))
//	}
package metrics
