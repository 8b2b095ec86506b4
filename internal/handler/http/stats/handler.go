// Package stats exposes the Statistics Engine as JSON over
// GET /statistics/….
package stats

import (
	"net/http"
	"strconv"
	"time"

	"intelhub/internal/handler/http/respond"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/statistics"
)

func statisticsFilter(from, to time.Time) repository.ArchiveFilter {
	return repository.ArchiveFilter{ArchivePeriodFrom: &from, ArchivePeriodTo: &to}
}

// Handler dispatches GET /statistics/{distribution,hourly,daily,weekly,monthly,top-informants}.
type Handler struct {
	Engine *statistics.Engine
}

func parseRange(r *http.Request) (from, to time.Time) {
	to = time.Now().UTC()
	from = to.Add(-24 * time.Hour)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}
	return from, to
}

func (h Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	from, to := parseRange(r)
	buckets, err := h.Engine.ScoreDistribution(r.Context(), statisticsFilter(from, to))
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, buckets)
}

func (h Handler) Hourly(w http.ResponseWriter, r *http.Request) {
	from, to := parseRange(r)
	result, err := h.Engine.Hourly(r.Context(), from, to)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h Handler) Daily(w http.ResponseWriter, r *http.Request) {
	from, to := parseRange(r)
	result, err := h.Engine.Daily(r.Context(), from, to)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	from, to := parseRange(r)
	result, err := h.Engine.Weekly(r.Context(), from, to)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	from, to := parseRange(r)
	result, err := h.Engine.Monthly(r.Context(), from, to)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h Handler) TopInformants(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	result, err := h.Engine.TopInformants(r.Context(), limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// Register wires every statistics route onto mux, each wrapped by wrap
// (typically the operator-dashboard JWT gate). A nil wrap mounts the
// routes unguarded, which only tests should do.
func (h Handler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(next http.Handler) http.Handler { return next }
	}
	routes := map[string]http.HandlerFunc{
		"GET /statistics/distribution":   h.Distribution,
		"GET /statistics/hourly":         h.Hourly,
		"GET /statistics/daily":          h.Daily,
		"GET /statistics/weekly":         h.Weekly,
		"GET /statistics/monthly":        h.Monthly,
		"GET /statistics/top-informants": h.TopInformants,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, wrap(fn))
	}
}
