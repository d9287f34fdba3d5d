// Package metrics exports service counters to an OTEL collector.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/effortmap/internal/config"
)

const (
	serviceName    = "effortmap"
	serviceVersion = "1.0.0"
)

// Metrics holds the service counters. Use Disabled() when no collector is
// configured; the counters become no-ops and callers never nil-check.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	HTTPRequests  metric.Int64Counter
	ChartRenders  metric.Int64Counter
	SlackCommands metric.Int64Counter
}

// New builds an OTLP-exporting Metrics, or a disabled one when the
// endpoint is empty.
func New(ctx context.Context, cfg config.Metrics) (*Metrics, error) {
	if cfg.Endpoint == "" {
		return Disabled(), nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlpmetricgrpc.WithInsecure(),
		)
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	m, err := build(provider.Meter(serviceName))
	if err != nil {
		return nil, err
	}
	m.provider = provider
	return m, nil
}

// Disabled returns a Metrics whose counters discard everything.
func Disabled() *Metrics {
	m, _ := build(noop.NewMeterProvider().Meter(serviceName))
	return m
}

func build(meter metric.Meter) (*Metrics, error) {
	httpRequests, err := meter.Int64Counter(
		"effortmap_http_requests_total",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	chartRenders, err := meter.Int64Counter(
		"effortmap_chart_renders_total",
		metric.WithDescription("Chart images rendered (cache misses and refreshes)"),
		metric.WithUnit("{render}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating render counter: %w", err)
	}

	slackCommands, err := meter.Int64Counter(
		"effortmap_slack_commands_total",
		metric.WithDescription("Slack slash commands handled"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating slack counter: %w", err)
	}

	return &Metrics{
		HTTPRequests:  httpRequests,
		ChartRenders:  chartRenders,
		SlackCommands: slackCommands,
	}, nil
}

// Close shuts down the exporter and flushes pending metrics.
func (m *Metrics) Close(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
