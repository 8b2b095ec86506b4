package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"resp": "queued"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "queued", decodeBody(t, rec)["resp"])
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, errors.New("token is required"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token is required", decodeBody(t, rec)["error"])
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		err      error
		wantBody string
	}{
		{
			name:     "validation wording passes through",
			code:     http.StatusBadRequest,
			err:      errors.New("content is required"),
			wantBody: "content is required",
		},
		{
			name:     "invalid wording passes through",
			code:     http.StatusBadRequest,
			err:      errors.New("invalid uuid"),
			wantBody: "invalid uuid",
		},
		{
			name:     "not found passes through",
			code:     http.StatusNotFound,
			err:      errors.New("item not found"),
			wantBody: "item not found",
		},
		{
			name:     "infrastructure detail hidden",
			code:     http.StatusBadRequest,
			err:      errors.New("pq: connection refused on 10.0.0.5:5432"),
			wantBody: "internal server error",
		},
		{
			name:     "5xx always hidden even with safe wording",
			code:     http.StatusInternalServerError,
			err:      errors.New("archive insert: value is invalid"),
			wantBody: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SafeError(rec, tt.code, tt.err)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.wantBody, decodeBody(t, rec)["error"])
		})
	}
}

func TestSafeError_NilError(t *testing.T) {
	rec := httptest.NewRecorder()
	SafeError(rec, http.StatusInternalServerError, nil)
	assert.Zero(t, rec.Body.Len())
}
