// Package processed implements the POST /processed endpoint: an alternate
// ingestion path for upstream processors that have already run their own
// analysis and submit a ready-made Processed schema, bypassing the Analysis
// Worker entirely.
package processed

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"intelhub/internal/domain/entity"
	hubhttp "intelhub/internal/handler/http"
	"intelhub/internal/handler/http/respond"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/archival"
)

type response struct {
	Resp string `json:"resp"`
	UUID string `json:"uuid,omitempty"`
}

// Handler validates a submitted ProcessedItem, records a cache row for it
// (so the Archival Worker's terminal-flag update has a row to land on),
// computes the same MAX_RATE enrichment the Analysis Worker would, and
// enqueues it directly onto the Post-Process Queue.
type Handler struct {
	Cache            repository.CacheStore
	Queue            *archival.Queue
	ExcludeRateClass string
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respond.JSON(w, http.StatusBadRequest, response{Resp: "failed to read request body"})
		return
	}

	var proc entity.ProcessedItem
	if err := json.Unmarshal(body, &proc); err != nil {
		respond.JSON(w, http.StatusBadRequest, response{Resp: "invalid request body"})
		return
	}
	if err := proc.Validate(); err != nil {
		respond.JSON(w, http.StatusBadRequest, response{Resp: err.Error()})
		return
	}

	now := time.Now().UTC()
	collected := entity.CollectedItem{
		UUID:      proc.UUID,
		Source:    "processed-endpoint",
		Informant: proc.Informant,
		PubTime:   proc.PubTime,
		Content:   proc.EventText,
	}
	row := repository.CacheRow{Item: collected, ArchivedFlag: entity.FlagNone, TimeGot: now}
	if err := h.Cache.Insert(r.Context(), row); err != nil {
		respond.JSON(w, http.StatusInternalServerError, response{Resp: "cache insert failed: " + err.Error()})
		return
	}

	archivedItem := entity.ArchivedItem{
		ProcessedItem: proc,
		Submitter:     "processed-endpoint",
		Appendix: entity.Appendix{
			TimeGot:      now,
			TimePost:     now,
			TimeArchived: now,
			ArchivedFlag: entity.FlagNone,
		},
	}
	if !proc.Dropped() {
		keyOrder, _ := entity.RateKeyOrder(bytes.TrimSpace(body), proc.Rate)
		class, score := proc.Rate.MaxRate(h.ExcludeRateClass, keyOrder)
		archivedItem.Appendix.MaxRateClass = class
		archivedItem.Appendix.MaxRateScore = score
	}

	if err := h.Queue.Submit(r.Context(), archivedItem); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, response{Resp: "queue full, retry: " + err.Error(), UUID: proc.UUID.String()})
		return
	}

	hubhttp.RecordSubmission("processed")
	respond.JSON(w, http.StatusOK, response{Resp: "queued", UUID: proc.UUID.String()})
}
