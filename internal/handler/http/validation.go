package http

import "net/http"

// Input size limits enforced before a request reaches any handler. They
// exist to shed pathological requests cheaply; the per-endpoint body cap
// is separate (LimitRequestBody).
const (
	maxAuthHeaderBytes = 8192    // JWTs and bearer tokens are well under this
	maxPathBytes       = 2048    // matches the crawl-record URL cap
	maxBodyBytes       = 10 << 20 // absolute body ceiling
)

// InputValidation rejects requests whose header or path sizes are outside
// the limits above, with a JSON error matching the rest of the surface.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get("Authorization")) > maxAuthHeaderBytes {
				writeValidationError(w, "authorization header too large")
				return
			}
			if len(r.URL.Path) > maxPathBytes {
				writeValidationError(w, "request path too long")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func writeValidationError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
