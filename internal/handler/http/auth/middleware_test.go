package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret []byte, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "operator@example.com",
		"role": role,
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestAuthz(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	secret := []byte("test-secret")

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "missing token rejected",
			authHeader: "",
			method:     http.MethodGet,
			path:       "/statistics/daily",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token rejected",
			authHeader: "Bearer not.a.jwt",
			method:     http.MethodGet,
			path:       "/statistics/daily",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token rejected",
			authHeader: "Bearer " + signToken(t, secret, RoleAdmin, time.Now().Add(-time.Hour)),
			method:     http.MethodGet,
			path:       "/statistics/daily",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "viewer can read statistics",
			authHeader: "Bearer " + signToken(t, secret, RoleViewer, time.Now().Add(time.Hour)),
			method:     http.MethodGet,
			path:       "/statistics/daily",
			wantStatus: http.StatusOK,
		},
		{
			name:       "viewer cannot reach non-dashboard path",
			authHeader: "Bearer " + signToken(t, secret, RoleViewer, time.Now().Add(time.Hour)),
			method:     http.MethodGet,
			path:       "/api",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin can reach everything",
			authHeader: "Bearer " + signToken(t, secret, RoleAdmin, time.Now().Add(time.Hour)),
			method:     http.MethodPost,
			path:       "/api",
			wantStatus: http.StatusOK,
		},
		{
			name:       "token signed with wrong secret rejected",
			authHeader: "Bearer " + signToken(t, []byte("other-secret"), RoleAdmin, time.Now().Add(time.Hour)),
			method:     http.MethodGet,
			path:       "/statistics/daily",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			Authz(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCheckRolePermission(t *testing.T) {
	assert.True(t, checkRolePermission(RoleAdmin, "POST", "/api"))
	assert.True(t, checkRolePermission(RoleViewer, "GET", "/statistics/hourly"))
	assert.True(t, checkRolePermission(RoleViewer, "GET", "/intelligence/abc"))
	assert.False(t, checkRolePermission(RoleViewer, "POST", "/statistics/hourly"))
	assert.False(t, checkRolePermission(RoleViewer, "GET", "/collect"))
	assert.False(t, checkRolePermission("", "GET", "/statistics/hourly"))
	assert.False(t, checkRolePermission("unknown", "GET", "/statistics/hourly"))
}

func TestMatchesPathPattern(t *testing.T) {
	patterns := []string{"/statistics/*", "/rssfeed.xml"}
	assert.True(t, matchesPathPattern("/statistics", patterns))
	assert.True(t, matchesPathPattern("/statistics/daily", patterns))
	assert.True(t, matchesPathPattern("/rssfeed.xml", patterns))
	assert.False(t, matchesPathPattern("/rssfeed.xml/extra", patterns))
	assert.False(t, matchesPathPattern("/collect", patterns))
}
