package otel

import (
	"context"
	"errors"
	"net/http"

	prometheus "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	otel "go.opentelemetry.io/otel"
	attribute "go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	metric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	resource "go.opentelemetry.io/otel/sdk/resource"

	config "github.com/inference-gateway/instruct-agent/config"
)

type MeterProvider = sdkmetric.MeterProvider

//go:generate mockgen -source=otel.go -destination=../mocks/otel.go -package=mocks
type OpenTelemetry interface {
	Init(config config.Config) error
	Handler() http.Handler
	Shutdown(ctx context.Context) error
	RecordTokenUsage(ctx context.Context, model string, promptTokens, completionTokens, totalTokens int64)
	RecordToolCall(ctx context.Context, serverID, toolName, status string)
	RecordToolIterations(ctx context.Context, model string, iterations int64, truncated bool)
	RecordRequest(ctx context.Context, method, route string, status int, durationMs float64)
}

type OpenTelemetryImpl struct {
	meterProvider *MeterProvider
	registry      *prometheus.Registry
	// Token counters
	promptCounter metric.Int64Counter
	compCounter   metric.Int64Counter
	totalCounter  metric.Int64Counter
	// Orchestration
	toolCallCounter     metric.Int64Counter
	iterationsHistogram metric.Int64Histogram
	truncatedCounter    metric.Int64Counter
	// HTTP
	requestHistogram metric.Float64Histogram
}

func (o *OpenTelemetryImpl) Init(config config.Config) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", config.ApplicationName),
			attribute.String("deployment.environment", config.Environment),
		)),
	)

	otel.SetMeterProvider(mp)
	o.meterProvider = mp
	o.registry = registry

	meter := mp.Meter(config.ApplicationName)

	var errs []error
	o.promptCounter, err = meter.Int64Counter(
		"llm.usage.prompt_tokens",
		metric.WithDescription("Number of prompt tokens used"),
	)
	errs = append(errs, err)

	o.compCounter, err = meter.Int64Counter(
		"llm.usage.completion_tokens",
		metric.WithDescription("Number of completion tokens used"),
	)
	errs = append(errs, err)

	o.totalCounter, err = meter.Int64Counter(
		"llm.usage.total_tokens",
		metric.WithDescription("Total number of tokens used"),
	)
	errs = append(errs, err)

	o.toolCallCounter, err = meter.Int64Counter(
		"agent.tool_calls",
		metric.WithDescription("Number of tool calls dispatched, by server and status"),
	)
	errs = append(errs, err)

	o.iterationsHistogram, err = meter.Int64Histogram(
		"agent.tool_iterations",
		metric.WithDescription("Model requests made per user request"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
	)
	errs = append(errs, err)

	o.truncatedCounter, err = meter.Int64Counter(
		"agent.truncated_requests",
		metric.WithDescription("Requests that reached the tool iteration limit"),
	)
	errs = append(errs, err)

	// Recorded in miliseconds
	o.requestHistogram, err = meter.Float64Histogram(
		"http.server.request_duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)
	errs = append(errs, err)

	return errors.Join(errs...)
}

// Handler serves the collected metrics in the Prometheus text format
func (o *OpenTelemetryImpl) Handler() http.Handler {
	if o.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *OpenTelemetryImpl) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}

func (o *OpenTelemetryImpl) RecordTokenUsage(ctx context.Context, model string, promptTokens, completionTokens, totalTokens int64) {
	if o.promptCounter == nil || o.compCounter == nil || o.totalCounter == nil {
		return // Not initialized
	}

	attrs := metric.WithAttributes(attribute.String("model", model))
	o.promptCounter.Add(ctx, promptTokens, attrs)
	o.compCounter.Add(ctx, completionTokens, attrs)
	o.totalCounter.Add(ctx, totalTokens, attrs)
}

func (o *OpenTelemetryImpl) RecordToolCall(ctx context.Context, serverID, toolName, status string) {
	if o.toolCallCounter == nil {
		return
	}

	o.toolCallCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("server", serverID),
		attribute.String("tool", toolName),
		attribute.String("status", status),
	))
}

func (o *OpenTelemetryImpl) RecordToolIterations(ctx context.Context, model string, iterations int64, truncated bool) {
	if o.iterationsHistogram == nil || o.truncatedCounter == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("model", model))
	o.iterationsHistogram.Record(ctx, iterations, attrs)
	if truncated {
		o.truncatedCounter.Add(ctx, 1, attrs)
	}
}

func (o *OpenTelemetryImpl) RecordRequest(ctx context.Context, method, route string, status int, durationMs float64) {
	if o.requestHistogram == nil {
		return
	}

	o.requestHistogram.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}
