// Package rpcapi implements POST /api: a generic JSON-RPC style dispatch
// onto the Hub's query, statistics, and recommendation operations.
package rpcapi

import (
	"encoding/json"
	"net/http"
	"time"

	"intelhub/internal/domain/stats"
	"intelhub/internal/handler/http/respond"
	"intelhub/internal/handler/http/tokenauth"
	"intelhub/internal/infra/keyrotator"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/query"
	"intelhub/internal/usecase/recommendation"
	"intelhub/internal/usecase/statistics"

	"github.com/google/uuid"
)

type request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Token  string          `json:"token"`
}

// KeyPool exposes the Key Rotator's status snapshot for hub.key_status.
type KeyPool interface {
	GetStatus() keyrotator.Status
}

// Handler dispatches a named method against the wired engines. Counters
// and Rotator are optional; their methods report "not configured" when
// absent.
type Handler struct {
	Tokens     tokenauth.Set
	Query      *query.Engine
	Statistics *statistics.Engine
	Recommend  *recommendation.Manager
	Counters   *stats.ResourceCounter
	Rotator    KeyPool
}

type findParams struct {
	repository.ArchiveFilter
	Page repository.Page `json:"page"`
}

type rangeParams struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !h.Tokens.Allows(req.Token) {
		respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	result, err := h.dispatch(r, req)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h Handler) dispatch(r *http.Request, req request) (any, error) {
	switch req.Method {
	case "query.find":
		var p findParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		return h.Query.Find(r.Context(), p.ArchiveFilter, p.Page)

	case "query.get":
		var p struct {
			UUID string `json:"uuid"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(p.UUID)
		if err != nil {
			return nil, err
		}
		return h.Query.Get(r.Context(), id)

	case "query.count":
		var p repository.ArchiveFilter
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		return h.Query.Count(r.Context(), p)

	case "statistics.hourly":
		var p rangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		return h.Statistics.Hourly(r.Context(), p.From, p.To)

	case "statistics.daily":
		var p rangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		return h.Statistics.Daily(r.Context(), p.From, p.To)

	case "statistics.top_informants":
		var p struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		return h.Statistics.TopInformants(r.Context(), p.Limit)

	case "recommendation.generate":
		var p struct {
			From      *time.Time `json:"from"`
			To        *time.Time `json:"to"`
			Threshold float64    `json:"threshold"`
			Limit     int        `json:"limit"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		if err := h.Recommend.Generate(r.Context(), p.From, p.To, p.Threshold, p.Limit); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil

	case "recommendation.count":
		var p rangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, err
		}
		return h.Recommend.CountIntelligence(p.From, p.To), nil

	case "hub.counters":
		if h.Counters == nil {
			return map[string]string{"status": "not configured"}, nil
		}
		var p struct {
			Path []string `json:"path"`
		}
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, err
			}
		}
		return h.Counters.GetClassifiedCounter(p.Path), nil

	case "hub.key_status":
		if h.Rotator == nil {
			return map[string]string{"status": "not configured"}, nil
		}
		return h.Rotator.GetStatus(), nil

	default:
		return nil, errUnknownMethod(req.Method)
	}
}

type errUnknownMethod string

func (e errUnknownMethod) Error() string { return "invalid method: " + string(e) }
