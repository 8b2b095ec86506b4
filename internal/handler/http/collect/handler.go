// Package collect implements the POST /collect ingestion endpoint: the
// submitter-facing boundary for the Ingestion Queue.
package collect

import (
	"encoding/json"
	"net/http"
	"time"

	"intelhub/internal/domain/entity"
	hubhttp "intelhub/internal/handler/http"
	"intelhub/internal/handler/http/respond"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/ingest"
)

// response is the {resp, uuid} shape returned on every call, success or not.
type response struct {
	Resp string `json:"resp"`
	UUID string `json:"uuid,omitempty"`
}

// Handler accepts a Collected payload, durably records it in the Cache
// Store, then enqueues it for the Analysis Worker.
type Handler struct {
	Cache repository.CacheStore
	Queue *ingest.Queue
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var item entity.CollectedItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respond.JSON(w, http.StatusBadRequest, response{Resp: "invalid request body"})
		return
	}

	if err := item.ValidateAndNormalize(); err != nil {
		respond.JSON(w, http.StatusBadRequest, response{Resp: err.Error()})
		return
	}

	now := time.Now().UTC()
	row := repository.CacheRow{Item: item, ArchivedFlag: entity.FlagNone, TimeGot: now}
	if err := h.Cache.Insert(r.Context(), row); err != nil {
		respond.JSON(w, http.StatusInternalServerError, response{Resp: "cache insert failed: " + err.Error()})
		return
	}

	if err := h.Queue.Submit(r.Context(), item); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, response{Resp: "queue full, retry: " + err.Error(), UUID: item.UUID.String()})
		return
	}

	hubhttp.RecordSubmission("collect")
	respond.JSON(w, http.StatusOK, response{Resp: "queued", UUID: item.UUID.String()})
}
