package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder mirrors pipeline recordings to an external metrics
// backend. The in-memory collector remains the queryable source of truth;
// this interface exists so operators can also scrape the same signals.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEventProcessed records one event processing attempt.
	RecordEventProcessed(ctx context.Context, eventType, channel string, duration time.Duration, success bool)

	// RecordBatchFlush records a batch flush with its size and duration.
	RecordBatchFlush(ctx context.Context, channel string, size int, duration time.Duration)

	// RecordValidation records one validation pass.
	RecordValidation(ctx context.Context, eventType string, valid bool, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsProcessed metric.Int64Counter
	eventLatency    metric.Float64Histogram
	eventFailures   metric.Int64Counter
	batchFlushes    metric.Int64Counter
	batchSize       metric.Int64Histogram
	validations     metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventpipe")

	eventsProcessed, err := meter.Int64Counter("eventpipe.events.processed",
		metric.WithDescription("Number of events processed"),
	)
	if err != nil {
		return nil, err
	}

	eventLatency, err := meter.Float64Histogram("eventpipe.events.latency_ms",
		metric.WithDescription("Event processing latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	eventFailures, err := meter.Int64Counter("eventpipe.events.failures",
		metric.WithDescription("Number of event processing failures"),
	)
	if err != nil {
		return nil, err
	}

	batchFlushes, err := meter.Int64Counter("eventpipe.batch.flushes",
		metric.WithDescription("Number of batch flushes"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("eventpipe.batch.size",
		metric.WithDescription("Events per flushed batch"),
	)
	if err != nil {
		return nil, err
	}

	validations, err := meter.Int64Counter("eventpipe.validations",
		metric.WithDescription("Number of validation passes"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsProcessed: eventsProcessed,
		eventLatency:    eventLatency,
		eventFailures:   eventFailures,
		batchFlushes:    batchFlushes,
		batchSize:       batchSize,
		validations:     validations,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEventProcessed records one event processing attempt.
func (m *otelMetrics) RecordEventProcessed(ctx context.Context, eventType, channel string, duration time.Duration, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
		attribute.String("channel", channel),
	}

	m.eventsProcessed.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.eventLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		m.eventFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordBatchFlush records a batch flush.
func (m *otelMetrics) RecordBatchFlush(ctx context.Context, channel string, size int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("channel", channel),
	}
	m.batchFlushes.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.batchSize.Record(ctx, int64(size), metric.WithAttributes(attrs...))
	m.eventLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordValidation records one validation pass.
func (m *otelMetrics) RecordValidation(ctx context.Context, eventType string, valid bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
		attribute.Bool("valid", valid),
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attrs...))
}
