package tracing

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// ProviderConfig configures the global tracer provider
type ProviderConfig struct {
	ServiceName string
	SampleRatio float64
	OTLP        exporters.OTLPConfig
}

// Provider owns the SDK tracer provider and shuts it down on Stop
type Provider struct {
	config   ProviderConfig
	logger   ectologger.Logger
	provider *sdktrace.TracerProvider
}

func NewProvider(config ProviderConfig, logger ectologger.Logger) *Provider {
	return &Provider{config: config, logger: logger}
}

func (p *Provider) GetName() string {
	return "tracing"
}

func (p *Provider) DependsOn() []string {
	return nil
}

// Start installs the tracer. Without an OTLP endpoint spans are recorded
// and dropped by the console exporter.
func (p *Provider) Start(ctx context.Context) error {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if p.config.OTLP.Endpoint != "" {
		otlp, err := exporters.NewOTLPExporter(ctx, p.config.OTLP)
		if err != nil {
			return fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		exporter = otlp
	}

	ratio := p.config.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}

	p.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", p.config.ServiceName),
		)),
	)

	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	SetTracer(p.provider.Tracer(p.config.ServiceName))

	p.logger.WithFields(map[string]any{
		"endpoint": p.config.OTLP.Endpoint,
		"protocol": p.config.OTLP.Protocol,
	}).Info("Tracing initialized")
	return nil
}

func (p *Provider) Stop(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
