package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AltairaLabs/datazone-handlers/internal/version"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=none stdout otlp"`
	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `yaml:"endpoint" validate:"required_if=Exporter otlp"`
	Insecure bool   `yaml:"insecure"`
	// SampleRatio is the fraction of root traces kept. Unset keeps every
	// trace; 0 keeps none.
	SampleRatio *float64 `yaml:"sample_ratio" validate:"omitempty,gte=0,lte=1"`
}

// sampler honors the parent's decision and applies SampleRatio to roots.
func (c TracingConfig) sampler() sdktrace.Sampler {
	if c.SampleRatio == nil {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(*c.SampleRatio))
}

// Shutdown flushes and stops the trace provider.
type Shutdown func(context.Context) error

// SetupTracing installs a global trace provider for serviceName. Stdout spans
// go to w. With the none exporter it installs nothing and returns a no-op
// shutdown.
func SetupTracing(
	ctx context.Context, cfg TracingConfig, serviceName string, w io.Writer, log *slog.Logger,
) (Shutdown, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "", ExporterNone:
		log.Debug("tracing disabled")
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("tracing enabled", "exporter", cfg.Exporter, "endpoint", cfg.Endpoint)
	return provider.Shutdown, nil
}
