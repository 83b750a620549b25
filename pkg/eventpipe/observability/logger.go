// Package observability provides structured logging, metrics, and tracing
// for the event pipeline.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Components receive their logger and recorder at construction; there is
// no global mutable state beyond the OTel providers the host configures.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds event context to a logger.
// Returns a new logger with event_id, event_type, and channel fields.
func EnrichLogger(logger *slog.Logger, eventID, eventType, channel string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.String("channel", channel),
	)
}

// LogEventAccepted logs an event entering a listener.
func LogEventAccepted(logger *slog.Logger, eventType, channel string, batched bool) {
	if logger == nil {
		return
	}
	logger.Debug("event accepted",
		slog.String("event_type", eventType),
		slog.String("channel", channel),
		slog.Bool("batched", batched),
	)
}

// LogEventProcessed logs successful event processing.
func LogEventProcessed(logger *slog.Logger, eventID string, durationMs float64, actions int) {
	if logger == nil {
		return
	}
	logger.Debug("event processed",
		slog.String("event_id", eventID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("triggered_actions", actions),
	)
}

// LogEventFailed logs event processing failure.
func LogEventFailed(logger *slog.Logger, eventID, code, message string) {
	if logger == nil {
		return
	}
	logger.Error("event processing failed",
		slog.String("event_id", eventID),
		slog.String("code", code),
		slog.String("message", message),
	)
}

// LogBatchFlush logs a batch flush.
func LogBatchFlush(logger *slog.Logger, channel string, size int, trigger string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("batch flushed",
		slog.String("channel", channel),
		slog.Int("size", size),
		slog.String("trigger", trigger),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogMetricsError logs a metrics recording failure (non-fatal).
// Observability must never break the processing path.
func LogMetricsError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("metrics recording failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogSweep logs a retention sweep.
func LogSweep(logger *slog.Logger, component string, removed int) {
	if logger == nil {
		return
	}
	logger.Debug("retention sweep",
		slog.String("component", component),
		slog.Int("removed", removed),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start)) / float64(time.Millisecond)
	}
}
