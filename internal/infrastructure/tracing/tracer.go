// Package tracing provides OpenTelemetry-based tracing for operation dispatch.
// It supports stdout and OTLP exporters and provides span helpers for
// dispatches and note store access.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the mcpnotes tracer.
	TracerName = "github.com/jbctechsolutions/mcpnotes"

	// Version is the semantic version of the tracer.
	Version = "1.0.0"
)

// ExporterType defines the type of trace exporter.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled      bool         // Whether tracing is enabled
	ExporterType ExporterType // Type of exporter to use
	OTLPEndpoint string       // OTLP collector endpoint (for OTLP exporter)
	ServiceName  string       // Service name for traces
	Environment  string       // Deployment environment (development, production)
	SampleRate   float64      // Sampling rate (0.0 to 1.0)
	Output       io.Writer    // Output for stdout exporter (defaults to os.Stderr)
}

// DefaultConfig returns sensible default tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterNone,
		ServiceName:  "mcpnotes",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry tracer with domain-specific functionality.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

// Default returns a tracer on the process-wide otel provider. It is a no-op
// until New installs an exporting provider.
func Default() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
		config: DefaultConfig(),
	}
}

// New creates a new Tracer with the provided configuration.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}

	// Create exporter
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// Create resource without merging with Default() to avoid schema URL conflicts.
	// The default resource's schema URL may conflict with our semconv version.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create sampler
	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	// Create tracer provider
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set global propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Set global tracer provider
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(Version)),
		provider: provider,
		config:   cfg,
	}, nil
}

// createExporter creates the appropriate exporter based on configuration.
func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		// stdout carries the stdio transport; spans go to stderr unless redirected.
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithWriter(out),
		)

	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithInsecure(),
		}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Domain-specific span helpers ---

// DispatchSpan represents one operation dispatch.
type DispatchSpan struct {
	span trace.Span
}

// StartDispatchSpan starts a span for dispatching an operation.
func (t *Tracer) StartDispatchSpan(ctx context.Context, server, operation, correlationID string) (context.Context, *DispatchSpan) {
	ctx, span := t.tracer.Start(ctx, "mcp.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("mcp.server", server),
			attribute.String("mcp.operation", operation),
			attribute.String("mcp.correlation_id", correlationID),
		),
	)

	return ctx, &DispatchSpan{span: span}
}

// SetKind records the operation kind (tool or prompt).
func (ds *DispatchSpan) SetKind(kind string) {
	ds.span.SetAttributes(attribute.String("mcp.operation.kind", kind))
}

// SetArgCount records how many arguments the caller supplied.
func (ds *DispatchSpan) SetArgCount(n int) {
	ds.span.SetAttributes(attribute.Int("mcp.args.count", n))
}

// End ends the dispatch span with success status.
func (ds *DispatchSpan) End() {
	ds.span.SetStatus(codes.Ok, "dispatch completed")
	ds.span.End()
}

// EndWithEnvelopeError ends the span for a dispatch that produced an error
// envelope of the given kind.
func (ds *DispatchSpan) EndWithEnvelopeError(kind, message string) {
	ds.span.SetAttributes(attribute.String("mcp.error.kind", kind))
	ds.span.SetStatus(codes.Error, message)
	ds.span.End()
}

// StoreSpan represents a note store access.
type StoreSpan struct {
	span trace.Span
}

// StartStoreSpan starts a span for a load or save against a note store.
func (t *Tracer) StartStoreSpan(ctx context.Context, backend, action string) (context.Context, *StoreSpan) {
	ctx, span := t.tracer.Start(ctx, "store."+action,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("store.backend", backend),
		),
	)

	return ctx, &StoreSpan{span: span}
}

// SetNoteCount records the number of notes read or written.
func (ss *StoreSpan) SetNoteCount(n int) {
	ss.span.SetAttributes(attribute.Int("store.notes", n))
}

// End ends the store span with success status.
func (ss *StoreSpan) End() {
	ss.span.SetStatus(codes.Ok, "")
	ss.span.End()
}

// EndWithError ends the store span with error status.
func (ss *StoreSpan) EndWithError(err error) {
	ss.span.RecordError(err)
	ss.span.SetStatus(codes.Error, err.Error())
	ss.span.End()
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
}
