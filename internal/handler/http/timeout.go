package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"intelhub/internal/handler/http/respond"
)

// Timeout bounds a handler's wall-clock time. When the deadline passes
// before the handler writes anything, the client gets a 504 and whatever
// the handler writes afterwards is discarded; a handler that already
// started writing wins the race and its response stands.
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if tw.markTimedOut() {
					respond.JSON(w, http.StatusGatewayTimeout,
						map[string]string{"error": "request timeout"})
				}
				// The handler goroutine finishes against the muted
				// writer; the request returns to the client now.
			}
		})
	}
}

// timeoutWriter mutes handler writes that lose the race against the
// deadline, so the 504 response is never interleaved with late output.
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	wrote    bool
}

// markTimedOut flips the writer into the muted state. It reports false if
// the handler already wrote, in which case the 504 must not be sent.
func (w *timeoutWriter) markTimedOut() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wrote {
		return false
	}
	w.timedOut = true
	return true
}

func (w *timeoutWriter) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return
	}
	w.wrote = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *timeoutWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return len(b), nil
	}
	w.wrote = true
	return w.ResponseWriter.Write(b)
}
