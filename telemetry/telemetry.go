// Package telemetry wires OpenTelemetry tracing and Prometheus metrics for
// the tool-loop driver, team coordinator and eval runner.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider bundles the tracer and meter this module's components pull
// spans/instruments from, plus the Prometheus registry eval/tool-loop
// counters are registered against.
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry

	Tracer trace.Tracer
}

// New builds a tracer/meter pair. When tracingEnabled is false, the SDK
// tracer provider is built with no exporter, so spans are exported
// nowhere, matching how hector gates its own observability stack behind a
// config flag.
func New(tracingEnabled bool) (*Provider, error) {
	reg := prometheus.NewRegistry()

	var tp *sdktrace.TracerProvider
	if tracingEnabled {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	} else {
		tp = sdktrace.NewTracerProvider()
	}
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(mp)

	return &Provider{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       reg,
		Tracer:         tp.Tracer("github.com/relaylabs/agentloop"),
	}, nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return p.MeterProvider.Shutdown(ctx)
}
