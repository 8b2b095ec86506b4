// Package tracing provides OpenTelemetry tracing integration.
//
// Init installs the process-wide TracerProvider and the W3C trace-context
// and baggage propagators and returns the provider's shutdown function.
// Middleware opens one server span per HTTP request, continuing any
// propagated trace context. GetTracer returns the tracer for further spans.
// No exporter is configured, and database queries are not traced.
//
// Example usage:
//
//	import "intelhub/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.Init("intelhub")
//	    defer shutdown(context.Background())
//	}
//
//	func processRequest(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "process-request")
//	    defer span.End()
//	    // ... process request ...
//	}
package tracing
