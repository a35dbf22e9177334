// Package tracing owns the OpenTelemetry setup for the worker and the
// propagation of trace context through message headers. The tracer is an
// explicit object handed to each component at construction; nothing here
// mutates process-global otel state.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	metadatapkg "github.com/queueworks/tabq/internal/metadata"
)

const instrumentationName = "github.com/queueworks/tabq"

// Config describes the trace exporter target and the resource attributes
// reported with every span.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP gRPC collector URL, e.g. "http://localhost:4317".
	Endpoint string
}

// ShutdownFunc flushes and releases the tracer provider. It must be called on
// process shutdown.
type ShutdownFunc func(context.Context) error

// Tracer bundles a span factory with the propagator used to carry trace
// context across message boundaries. It is stateless and safe for concurrent
// use.
type Tracer struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// New builds a Tracer backed by an OTLP gRPC exporter with batched export.
func New(ctx context.Context, cfg Config) (*Tracer, ShutdownFunc, error) {
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}

	opts := []otlptracegrpc.Option{}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		)),
	)

	return &Tracer{
		tracer:     provider.Tracer(instrumentationName),
		propagator: defaultPropagator(),
	}, provider.Shutdown, nil
}

// NewNop returns a Tracer that records nothing but still propagates any trace
// context already present on the incoming context. Used in tests.
func NewNop() *Tracer {
	return &Tracer{
		tracer:     noop.NewTracerProvider().Tracer(instrumentationName),
		propagator: defaultPropagator(),
	}
}

func defaultPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// Start begins a span named name as a child of the context's current span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Inject attaches the context's trace context to the metadata map. Unrelated
// keys already present are left untouched.
func (t *Tracer) Inject(ctx context.Context, md metadatapkg.Metadata) {
	t.propagator.Inject(ctx, md)
}

// Extract reconstructs a context from previously injected metadata. When no
// valid trace headers are present the parent context is returned unchanged,
// yielding a fresh root for the next Start call.
func (t *Tracer) Extract(ctx context.Context, md metadatapkg.Metadata) context.Context {
	return t.propagator.Extract(ctx, md)
}
