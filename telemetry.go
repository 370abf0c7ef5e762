package crucible

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracer is the package-level tracer used by job execution and shadow-copy
// traversal. It starts as a noop tracer so the engine can run without
// InitTracer ever being called. InitTracer replaces it with a real one.
var tracer trace.Tracer = noop.NewTracerProvider().Tracer("crucible")

// InitTracer sets up the OpenTelemetry TracerProvider. If
// OTEL_EXPORTER_OTLP_ENDPOINT is set, it creates an OTLP HTTP exporter with
// a BatchSpanProcessor; otherwise the noop tracer is kept. Returns a
// shutdown function that flushes and closes the exporter.
func InitTracer(serviceName, version string) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }
	}

	exp, err := otlptracehttp.New(context.Background())
	if err != nil {
		return func(context.Context) error { return nil }
	}

	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)

	return func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	}
}
