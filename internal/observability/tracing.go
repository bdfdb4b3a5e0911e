// Package observability wires tracing and context-aware logging.
package observability

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"git.home.luguber.info/inful/docportal/internal/version"
)

const tracerName = "git.home.luguber.info/inful/docportal"

// TracingOptions configures OpenTelemetry export.
type TracingOptions struct {
	ServiceName string
	// Endpoint is the OTLP/HTTP collector, e.g. http://localhost:4318. Empty keeps
	// the global no-op provider.
	Endpoint string
}

// InitTracing installs a global tracer provider and returns its shutdown func.
func InitTracing(ctx context.Context, opts TracingOptions) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if opts.Endpoint == "" {
		return noop, nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "docportal"
	}

	exporter, err := otlptracehttp.New(ctx, exporterOptions(opts.Endpoint)...)
	if err != nil {
		return noop, fmt.Errorf("telemetry: create exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(version.Version),
	))
	if err != nil {
		return noop, fmt.Errorf("telemetry: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

func exporterOptions(endpoint string) []otlptracehttp.Option {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure()}
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(parsed.Host)}
	if parsed.Path != "" && parsed.Path != "/" {
		opts = append(opts, otlptracehttp.WithURLPath(parsed.Path))
	}
	if parsed.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartBuildSpan creates the root span of a build.
func StartBuildSpan(ctx context.Context, buildID string) (context.Context, trace.Span) {
	ctx = WithBuildID(ctx, buildID)
	return Tracer().Start(ctx, "build", trace.WithAttributes(attribute.String("build.id", buildID)))
}

// StartStageSpan creates a span for a pipeline stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	ctx = WithStage(ctx, stage)
	return Tracer().Start(ctx, "stage."+stage, trace.WithAttributes(attribute.String("stage.name", stage)))
}

// EndSpan records err (if any) and ends span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
