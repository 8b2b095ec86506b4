package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTimeout_FastHandlerPasses(t *testing.T) {
	handler := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("done"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "done" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "done")
	}
}

func TestTimeout_SlowHandlerGets504(t *testing.T) {
	wrote := make(chan struct{})
	handler := Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Sleep well past the deadline without watching the context, then
		// write: the late output must be swallowed, not interleaved with
		// the 504.
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("too late"))
		close(wrote)
	}))

	rec := httptest.NewRecorder()
	start := time.Now()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("middleware held the request for %v after timing out", elapsed)
	}

	// Wait for the late write, then confirm it was muted
	<-wrote
	if got := rec.Body.String(); !strings.Contains(got, "request timeout") || strings.Contains(got, "too late") {
		t.Errorf("unexpected response body: %q", got)
	}
}

func TestTimeout_HandlerContextCanceled(t *testing.T) {
	canceled := make(chan bool, 1)
	handler := Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		canceled <- true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("handler context was never canceled")
	}
}

func TestTimeout_EarlyWriterWins(t *testing.T) {
	handler := Timeout(30*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// The handler wrote before the deadline: its status stands, no 504
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if rec.Body.String() != "partial" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "partial")
	}
}
