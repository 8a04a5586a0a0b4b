package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/config"
)

// Init installs a Jaeger-backed tracer provider as the otel global. Without an
// endpoint the global no-op provider stays in place. The returned function
// flushes pending spans.
func Init(cfg *config.Config, log *zap.Logger) (func(context.Context) error, error) {
	if cfg.Tracing.JaegerEndpoint == "" {
		log.Info("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Tracing.JaegerEndpoint)))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Server.Env),
		)),
	)
	otel.SetTracerProvider(tp)
	log.Info("Tracing enabled", zap.String("collector", cfg.Tracing.JaegerEndpoint))
	return tp.Shutdown, nil
}
