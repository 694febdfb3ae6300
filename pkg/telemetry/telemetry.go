package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service name for telemetry
	serviceName = "fleet-dispatcher"

	// Metric names
	metricTickExecutions     = "dispatch.ticks.total"
	metricTickDuration       = "dispatch.tick.duration"
	metricTickSuccess        = "dispatch.ticks.success.total"
	metricTickFailure        = "dispatch.ticks.failure.total"
	metricPhaseExecutions    = "dispatch.phase.executions.total"
	metricPhaseDuration      = "dispatch.phase.duration"
	metricRobotsAssigned     = "dispatch.robots.assigned.total"
	metricPoiCapacityRejects = "dispatch.poi.capacity_rejections.total"
)

// Provider manages OpenTelemetry setup and provides access to tracers and meters.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	// Metrics instruments
	tickExecutions     metric.Int64Counter
	tickDuration       metric.Float64Histogram
	tickSuccess        metric.Int64Counter
	tickFailure        metric.Int64Counter
	phaseExecutions    metric.Int64Counter
	phaseDuration      metric.Float64Histogram
	robotsAssigned     metric.Int64Counter
	poiCapacityRejects metric.Int64Counter

	mu sync.RWMutex
}

// Config holds telemetry configuration
type Config struct {
	// ServiceName is the name of the service for telemetry
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment (e.g., "production", "staging", "development")
	Environment string

	// EnableTracing enables distributed tracing
	EnableTracing bool

	// EnableMetrics enables metrics collection
	EnableMetrics bool
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider creates a new telemetry provider with Prometheus metrics exporter.
// It initializes OpenTelemetry with the given configuration and returns a provider
// that can be used to create tracers and record metrics.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	provider := &Provider{}

	// Create resource with service information
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Initialize metrics if enabled
	if config.EnableMetrics {
		if err := provider.initMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	// Initialize tracing if enabled
	if config.EnableTracing {
		provider.initTracing()
	}

	return provider, nil
}

// initMetrics initializes the metrics provider with Prometheus exporter
func (p *Provider) initMetrics(res *resource.Resource) error {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	// Create meter provider with the exporter
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	// Set as global meter provider
	otel.SetMeterProvider(p.meterProvider)

	// Create meter
	p.meter = p.meterProvider.Meter(serviceName)

	// Create metric instruments
	if err := p.createMetricInstruments(); err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}

	return nil
}

// initTracing initializes the tracing provider
func (p *Provider) initTracing() {
	// For now, use the global tracer provider
	// In production, this should be configured with appropriate exporters (OTLP, Jaeger, etc.)
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(serviceName)
}

// createMetricInstruments creates all metric instruments
func (p *Provider) createMetricInstruments() error {
	var err error

	// Tick metrics
	p.tickExecutions, err = p.meter.Int64Counter(
		metricTickExecutions,
		metric.WithDescription("Total number of dispatch ticks"),
	)
	if err != nil {
		return err
	}

	p.tickDuration, err = p.meter.Float64Histogram(
		metricTickDuration,
		metric.WithDescription("Dispatch tick duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.tickSuccess, err = p.meter.Int64Counter(
		metricTickSuccess,
		metric.WithDescription("Total number of dispatch ticks that completed without error"),
	)
	if err != nil {
		return err
	}

	p.tickFailure, err = p.meter.Int64Counter(
		metricTickFailure,
		metric.WithDescription("Total number of dispatch ticks that failed"),
	)
	if err != nil {
		return err
	}

	// Phase metrics
	p.phaseExecutions, err = p.meter.Int64Counter(
		metricPhaseExecutions,
		metric.WithDescription("Total number of assignment phase executions"),
	)
	if err != nil {
		return err
	}

	p.phaseDuration, err = p.meter.Float64Histogram(
		metricPhaseDuration,
		metric.WithDescription("Assignment phase duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	// Robot / POI metrics
	p.robotsAssigned, err = p.meter.Int64Counter(
		metricRobotsAssigned,
		metric.WithDescription("Total number of robots assigned a new edge or behaviour"),
	)
	if err != nil {
		return err
	}

	p.poiCapacityRejects, err = p.meter.Int64Counter(
		metricPoiCapacityRejects,
		metric.WithDescription("Total number of candidate assignments rejected for POI group capacity"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Tracer returns the tracer for creating spans
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

// Meter returns the meter for recording metrics
func (p *Provider) Meter() metric.Meter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meter
}

// RecordTick records metrics for one dispatch tick.
func (p *Provider) RecordTick(ctx context.Context, tickID string, duration time.Duration, success bool, robotsConsidered int) {
	if p.meter == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tick.id", tickID),
		attribute.Int("robots.considered", robotsConsidered),
	}

	p.tickExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.tickDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if success {
		p.tickSuccess.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		p.tickFailure.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordPhase records metrics for one of the four assignment phases.
func (p *Provider) RecordPhase(ctx context.Context, phase string, duration time.Duration, robotsAssigned int) {
	if p.meter == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("phase", phase),
	}

	p.phaseExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.phaseDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	p.robotsAssigned.Add(ctx, int64(robotsAssigned), metric.WithAttributes(attrs...))
}

// RecordPoiCapacityRejection records a candidate assignment that was rejected
// because the destination POI group was at capacity.
func (p *Provider) RecordPoiCapacityRejection(ctx context.Context, poiID string, robotID string) {
	if p.meter == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("poi.id", poiID),
		attribute.String("robot.id", robotID),
	}

	p.poiCapacityRejects.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// MetricsHandler returns the HTTP handler that serves the Prometheus
// scrape endpoint backed by this provider's exporter. Callers mount it
// wherever their server exposes /metrics.
func (p *Provider) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}

	return nil
}
