package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInputValidation(t *testing.T) {
	handler := InputValidation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("normal request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("oversized authorization header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/collect", nil)
		req.Header.Set("Authorization", "Bearer "+strings.Repeat("x", maxAuthHeaderBytes))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "authorization header too large") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("over-long path rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/intelligence/"+strings.Repeat("a", maxPathBytes), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "request path too long") {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("long but within-limit path passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("a", maxPathBytes-1), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
