// Package telemetry configures OpenTelemetry tracing for the bootstrap job.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Setup initialises tracing for serviceName and returns the tracer to use
// together with a shutdown function that flushes pending spans.
//
// Tracing is opt-in: with an empty endpoint no exporter is created, no global
// provider is registered and the returned tracer comes from the current
// global provider (a no-op one unless something else registered it).
func Setup(ctx context.Context, serviceName, endpoint string) (trace.Tracer, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if endpoint == "" {
		return otel.Tracer(serviceName), noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return nil, noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Tracer(serviceName), tp.Shutdown, nil
}
