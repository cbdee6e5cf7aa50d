package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	protocolGrpc = "grpc"
	protocolHttp = "http"

	defaultMetricInterval = 30 * time.Second
)

// exporterConfig is the otlp collector a single signal is sent to, the signal
// is not exported when Endpoint is empty.
type exporterConfig struct {
	// Protocol is "grpc" or "http", http when empty.
	Protocol string            `json:"protocol"`
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
}

func (e exporterConfig) enabled() bool {
	return e.Endpoint != ""
}

func (e exporterConfig) protocol() (string, error) {
	switch e.Protocol {
	case "", protocolHttp:
		return protocolHttp, nil
	case protocolGrpc:
		return protocolGrpc, nil
	}
	return "", fmt.Errorf("unknown otlp protocol %q", e.Protocol)
}

type config struct {
	// Environment is reported as deployment.environment, ex. "laptop" or "server".
	Environment string         `json:"environment"`
	Traces      exporterConfig `json:"traces"`
	Metrics     exporterConfig `json:"metrics"`
	// MetricIntervalSeconds is how often metrics are pushed, 30 when unset.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

func (c config) metricInterval() time.Duration {
	if c.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.MetricIntervalSeconds) * time.Second
}

// Service identifies the running binary in exported telemetry.
type Service struct {
	Name    string
	Version string
}

func newResource(service Service, environment string) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceName(service.Name)),
		resource.WithHost(),
		resource.WithProcessPID(),
	}
	if service.Version != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(service.Version)))
	}
	if environment != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironment(environment)))
	}
	own, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), own)
}

func newSpanExporter(ctx context.Context, c exporterConfig) (trace.SpanExporter, error) {
	protocol, err := c.protocol()
	if err != nil {
		return nil, err
	}
	slog.Info(
		"trace export enabled",
		"protocol", protocol,
		"endpoint", c.Endpoint,
		"headers", len(c.Headers) > 0,
	)
	if protocol == protocolGrpc {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.Endpoint),
			otlptracegrpc.WithHeaders(c.Headers),
		)
	}
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(c.Endpoint),
		otlptracehttp.WithHeaders(c.Headers),
	)
}

func newMetricExporter(ctx context.Context, c exporterConfig) (metric.Exporter, error) {
	protocol, err := c.protocol()
	if err != nil {
		return nil, err
	}
	slog.Info(
		"metric export enabled",
		"protocol", protocol,
		"endpoint", c.Endpoint,
		"headers", len(c.Headers) > 0,
	)
	if protocol == protocolGrpc {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.Endpoint),
			otlpmetricgrpc.WithHeaders(c.Headers),
		)
	}
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(c.Endpoint),
		otlpmetrichttp.WithHeaders(c.Headers),
	)
}

// newTraceProvider returns nil when traces are not exported.
func newTraceProvider(ctx context.Context, r *resource.Resource, c config) (*trace.TracerProvider, error) {
	if !c.Traces.enabled() {
		return nil, nil
	}
	exporter, err := newSpanExporter(ctx, c.Traces)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

// newMeterProvider returns nil when metrics are not exported.
func newMeterProvider(ctx context.Context, r *resource.Resource, c config) (*metric.MeterProvider, error) {
	if !c.Metrics.enabled() {
		return nil, nil
	}
	exporter, err := newMetricExporter(ctx, c.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(c.metricInterval()))),
		metric.WithResource(r),
	), nil
}
