package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// withRecordingProvider installs an always-sampling provider for the test
// and restores the previous one afterwards.
func withRecordingProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(provider)
	tracer = otel.Tracer("test")
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tracer = otel.Tracer("intelhub")
	})
}

func TestMiddleware_SpanActiveInHandler(t *testing.T) {
	withRecordingProvider(t)

	var inSpan bool
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inSpan = trace.SpanFromContext(r.Context()).SpanContext().IsValid()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/collect", nil))
	assert.True(t, inSpan, "handler should run inside a recording span")
}

func TestMiddleware_SetsTraceIDHeader(t *testing.T) {
	withRecordingProvider(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	traceID := rec.Header().Get("X-Trace-Id")
	require.NotEmpty(t, traceID)
	assert.Len(t, traceID, 32, "trace ID should be 16 bytes hex-encoded")
}

func TestMiddleware_ContinuesPropagatedContext(t *testing.T) {
	withRecordingProvider(t)
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	const upstreamTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	var got string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanFromContext(r.Context()).SpanContext().TraceID().String()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-"+upstreamTraceID+"-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, upstreamTraceID, got, "span must continue the caller's trace")
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	r := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	r.WriteHeader(http.StatusBadGateway)
	assert.Equal(t, http.StatusBadGateway, r.status)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
