package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer creates the spans of the externs pipeline. It delegates to the
// global provider, so spans are dropped until SetupTracing installs one.
var Tracer trace.Tracer = otel.Tracer("github.com/gnana997/ambient")

// TracingConfig selects where spans are exported.
type TracingConfig struct {
	// Endpoint is an OTLP/gRPC collector address such as "localhost:4317".
	// Empty disables export.
	Endpoint string
	Insecure bool

	ServiceName string
}

// SetupTracing installs a global tracer provider exporting to cfg.Endpoint.
// The returned function flushes and shuts the provider down. With no
// endpoint it installs nothing and returns a no-op.
func SetupTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "ambient"
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
