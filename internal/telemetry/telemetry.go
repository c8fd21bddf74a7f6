// Package telemetry wires the global OpenTelemetry trace provider for the
// streaming service. Endpoint and sample rate come from the application
// config; this package never reads the environment itself.
package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	defaultSampleRate = 0.1
	exportTimeout     = 3 * time.Second
	setupTimeout      = 5 * time.Second
)

// Init installs the global trace provider and propagators. An empty
// collector endpoint disables tracing: the returned shutdown is a noop and
// requests carry no sampling overhead. Exporter construction failure is also
// non-fatal since the server must come up without a collector.
func Init(ctx context.Context, serviceName, endpoint string, sampleRate float64) (func(context.Context) error, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noopShutdown, nil
	}

	setupCtx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	exporter, err := otlptracehttp.New(setupCtx,
		otlptracehttp.WithEndpoint(stripScheme(endpoint)),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithTimeout(exportTimeout),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ClampSampleRate(sampleRate)))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func noopShutdown(context.Context) error { return nil }

// ClampSampleRate keeps head sampling within [0, 1], falling back to the
// default when the configured rate is out of range.
func ClampSampleRate(rate float64) float64 {
	if rate < 0 || rate > 1 {
		return defaultSampleRate
	}
	return rate
}

// stripScheme drops the URL scheme; the exporter option expects a bare
// host:port.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimPrefix(endpoint, "https://")
}
