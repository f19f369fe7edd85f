package tracing

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	serviceName string
	provider    *sdktrace.TracerProvider
)

// InitTraceProvider configures the global tracer. OTEL_GRPC_ENDPOINT or
// OTEL_JAEGER_ENDPOINT select an exporter; with neither set, spans are
// no-ops and shutdown does nothing.
func InitTraceProvider(name string) (shutdown func(), err error) {
	serviceName = name

	exp, err := newExporter()
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return func() {}, nil
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(name),
		)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return func() { provider.Shutdown(context.Background()) }, nil
}

func newExporter() (sdktrace.SpanExporter, error) {
	switch {
	case os.Getenv("OTEL_GRPC_ENDPOINT") != "":
		log.Info().Msg("New GRPC TraceProvider")
		return otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(os.Getenv("OTEL_GRPC_ENDPOINT")),
			otlptracegrpc.WithHeaders(map[string]string{
				"Authorization": os.Getenv("OTEL_AUTH_KEY"),
			}),
		)
	case os.Getenv("OTEL_JAEGER_ENDPOINT") != "":
		log.Info().Msg("New Jaeger TraceProvider")
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(os.Getenv("OTEL_JAEGER_ENDPOINT"))))
	}
	return nil, nil
}

// NewSpan starts a span under the service tracer.
func NewSpan(name string, ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(serviceName).Start(ctx, name)
}
