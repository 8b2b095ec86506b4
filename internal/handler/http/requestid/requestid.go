// Package requestid assigns every inbound request a unique ID, propagated
// through the context and echoed in the X-Request-ID response header so a
// submitter's report can be matched to the Hub's logs and traces.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is unexported so no other package can collide with our key.
type contextKey struct{}

// Header is the request/response header carrying the ID.
const Header = "X-Request-ID"

// FromContext returns the request ID, or "" outside a Middleware-wrapped
// handler.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID returns ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Middleware adopts the caller's X-Request-ID when present (so an upstream
// crawler's ID survives into our logs) and generates a UUID otherwise. The
// ID is set on the response header and the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
