package eventpipe

import (
	"log/slog"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/observability"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/process"
)

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	logger   *slog.Logger
	recorder observability.MetricsRecorder
	spans    observability.SpanManager
	handlers *process.HandlerTable
}

// WithLogger sets the structured logger shared by all components.
// Default: logging disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// WithMetricsRecorder sets the external metrics mirror.
// Default: no-op.
func WithMetricsRecorder(recorder observability.MetricsRecorder) Option {
	return func(c *serviceConfig) {
		c.recorder = recorder
	}
}

// WithSpanManager sets the tracing span manager.
// Default: no-op.
func WithSpanManager(spans observability.SpanManager) Option {
	return func(c *serviceConfig) {
		c.spans = spans
	}
}

// WithHandlers replaces the stock handler table.
func WithHandlers(handlers *process.HandlerTable) Option {
	return func(c *serviceConfig) {
		c.handlers = handlers
	}
}
