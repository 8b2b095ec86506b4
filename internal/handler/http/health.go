// Package http provides the Hub's HTTP surface: the submission endpoints,
// the RPC dispatch, RSS and statistics serving, health check endpoints,
// metrics collection, and shared middleware.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"intelhub/internal/infra/keyrotator"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string                 `json:"status"`            // "healthy", "degraded", or "unhealthy"
	Message string                 `json:"message,omitempty"` // Optional status message
	Details map[string]interface{} `json:"details,omitempty"` // Optional additional details
}

// QueueStats exposes a bounded queue's current depth for health reporting.
type QueueStats interface {
	Len() int
}

// KeyPool exposes the Key Rotator's status snapshot.
type KeyPool interface {
	GetStatus() keyrotator.Status
}

// HealthHandler handles health check endpoint requests. It checks database
// connectivity and reports pipeline-queue and key-pool status for
// operational monitoring.
type HealthHandler struct {
	DB      *sql.DB
	Version string

	// Pipeline components (optional)
	IngestionQueue    QueueStats
	PostProcessQueue  QueueStats
	IngestionCapacity int
	Rotator           KeyPool
}

// ServeHTTP performs health checks and returns the application health
// status. Returns 200 OK if healthy, or 503 Service Unavailable if any
// hard check fails; queue saturation and a drained key pool are reported
// as degraded, not unhealthy, since the Hub keeps serving reads either
// way.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	allHealthy := true

	// データベース接続チェック
	if h.DB != nil {
		dbCheck := h.checkDatabase(ctx)
		checks["database"] = dbCheck
		if dbCheck.Status == "unhealthy" {
			allHealthy = false
		}
	} else {
		checks["database"] = CheckStatus{
			Status:  "unhealthy",
			Message: "not configured",
		}
		allHealthy = false
	}

	if h.IngestionQueue != nil || h.PostProcessQueue != nil {
		checks["queues"] = h.checkQueues()
	}

	if h.Rotator != nil {
		checks["key_pool"] = h.checkKeyPool()
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkDatabase checks database connectivity and returns connection pool statistics.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	stats := h.DB.Stats()
	details := map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}

	// Guard against zero division when MaxOpenConnections is 0 (unlimited/unconfigured)
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilizationPercent := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilizationPercent

	if utilizationPercent >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}

// checkQueues reports the ingestion and post-process queue depths. A
// saturated ingestion queue means submitters are being refused with
// retriable errors, which is backpressure working as designed, so it is
// reported as degraded rather than unhealthy.
func (h *HealthHandler) checkQueues() CheckStatus {
	details := make(map[string]interface{})
	status := "healthy"
	message := ""

	if h.IngestionQueue != nil {
		depth := h.IngestionQueue.Len()
		details["ingestion_depth"] = depth
		if h.IngestionCapacity > 0 {
			details["ingestion_capacity"] = h.IngestionCapacity
			if depth >= h.IngestionCapacity {
				status = "degraded"
				message = "ingestion queue saturated, submissions being refused"
			}
		}
	}
	if h.PostProcessQueue != nil {
		details["postprocess_depth"] = h.PostProcessQueue.Len()
	}

	return CheckStatus{Status: status, Message: message, Details: details}
}

// checkKeyPool reports the Key Rotator's snapshot. An exhausted pool is
// degraded: submissions still queue and archive reads still work, only
// analysis stalls.
func (h *HealthHandler) checkKeyPool() CheckStatus {
	st := h.Rotator.GetStatus()
	details := map[string]interface{}{
		"running":      st.Running,
		"current_key":  st.CurrentKey,
		"balance":      st.Balance,
		"usable_count": st.UsableCount,
		"total_count":  st.TotalCount,
		"threshold":    st.Threshold,
	}
	if st.UsableCount == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "no usable api key remaining",
			Details: details,
		}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// ReadyHandler handles Kubernetes readiness probe requests.
// It checks if the database connection is established and ready to accept traffic.
type ReadyHandler struct {
	DB *sql.DB
}

// ServeHTTP performs readiness checks and returns 200 OK if ready,
// or 503 Service Unavailable if the database is not ready.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles Kubernetes liveness probe requests.
// It performs a lightweight check to verify the application is responsive.
type LiveHandler struct{}

// ServeHTTP performs a simple liveness check and always returns 200 OK
// if the application is running and able to respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
