package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Init installs a TracerProvider and the W3C trace-context propagator as
// the process globals and returns the provider's shutdown function.
// Without an exporter configured the provider records spans for
// propagation and sampling decisions only; deployments attach an OTLP
// exporter via their collector sidecar.
func Init(serviceName string) func(context.Context) error {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = otel.Tracer(serviceName)
	return provider.Shutdown
}
