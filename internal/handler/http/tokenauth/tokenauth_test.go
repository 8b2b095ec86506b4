package tokenauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_Allows(t *testing.T) {
	s := NewSet([]string{"tok1", "tok2", ""})

	assert.True(t, s.Allows("tok1"))
	assert.True(t, s.Allows("tok2"))
	assert.False(t, s.Allows("other"))
	assert.False(t, s.Allows(""))
}

func TestEmptySetDeniesEverything(t *testing.T) {
	s := NewSet(nil)
	assert.False(t, s.Allows("anything"))
	assert.False(t, s.Allows(""))
}

func TestFromHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer abc123", want: "abc123"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "bare token", header: "abc123", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/collect", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, FromHeader(r))
		})
	}
}

func TestRequire(t *testing.T) {
	s := NewSet([]string{"good"})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/collect", nil)
		r.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		Require(s, next).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/collect", nil)
		r.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		Require(s, next).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/collect", nil)
		rec := httptest.NewRecorder()
		Require(s, next).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
