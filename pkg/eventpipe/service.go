package eventpipe

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/config"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/gateway"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/metrics"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/observability"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/process"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/validate"
)

// Service composes the validator, processor, batching gateway, and
// metrics collector behind the tenant boundary. Every operation checks
// that the event's organization matches the caller's before any work.
type Service struct {
	cfg       config.Config
	validator *validate.Validator
	statuses  *process.StatusStore
	processor *process.Processor
	collector *metrics.Collector
	gateway   *gateway.Gateway

	started time.Time
}

// BatchSummary counts outcomes of a batch operation.
type BatchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchResponse is the outcome of ProcessBatch. When the whole batch is
// rejected at the boundary, Results is empty and Rejected carries the
// reason.
type BatchResponse struct {
	Results  []*process.Result       `json:"results"`
	Summary  BatchSummary            `json:"summary"`
	Rejected *errors.ProcessingError `json:"rejected,omitempty"`
}

// StatusReport is the operational snapshot returned by GetStatus.
type StatusReport struct {
	UptimeSeconds float64                `json:"uptimeSeconds"`
	Healthy       bool                   `json:"healthy"`
	Gateway       gateway.Stats          `json:"gateway"`
	Config        config.GatewayConfig   `json:"gatewayConfig"`
	StatusCounts  map[process.Status]int `json:"statusCounts"`
}

// New creates a service from a configuration. The configuration is
// normalized and validated; background sweeps start immediately, so
// callers must Shutdown when done.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sc := serviceConfig{
		recorder: observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(&sc)
	}

	validator := validate.New(validate.Options{
		MaxEventAge: cfg.Validator.MaxEventAge.Std(),
		MinEventAge: cfg.Validator.MinEventAge.Std(),
		Logger:      sc.logger,
	})

	collector := metrics.NewCollector(metrics.Options{
		Retention:     cfg.Metrics.Retention.Std(),
		SweepInterval: cfg.Metrics.SweepInterval.Std(),
		MaxEntries:    cfg.Metrics.MaxEntries,
		Logger:        sc.logger,
		Recorder:      sc.recorder,
	})

	statuses := process.NewStatusStore(process.StatusStoreOptions{
		Retention:     cfg.Status.Retention.Std(),
		SweepInterval: cfg.Status.SweepInterval.Std(),
		Logger:        sc.logger,
	})

	processor := process.New(process.Options{
		Validator: validator,
		Handlers:  sc.handlers,
		Statuses:  statuses,
		Metrics:   collector,
		Spans:     sc.spans,
		Logger:    sc.logger,
	})

	gw := gateway.New(gateway.Options{
		Processor: processor,
		Config:    cfg.Gateway,
		Metrics:   collector,
		Spans:     sc.spans,
		Logger:    sc.logger,
	})

	return &Service{
		cfg:       cfg,
		validator: validator,
		statuses:  statuses,
		processor: processor,
		collector: collector,
		gateway:   gw,
		started:   time.Now(),
	}, nil
}

// orgMismatch builds the boundary rejection for one event.
func orgMismatch(evt *event.Event, organizationID string) *errors.ProcessingError {
	ctx := map[string]any{"expected": organizationID}
	if evt != nil {
		ctx["got"] = evt.OrganizationID
	}
	return errors.NewProcessingError(errors.CodeOrgMismatch,
		"event organization does not match caller organization", ctx)
}

// ProcessEvent processes one event on behalf of an organization. An
// event claiming a different organization is rejected with ORG_MISMATCH
// before any processing.
func (s *Service) ProcessEvent(ctx context.Context, evt *event.Event, organizationID string) *process.Result {
	if evt != nil && evt.OrganizationID != organizationID {
		return &process.Result{
			Errors: []*errors.ProcessingError{orgMismatch(evt, organizationID)},
		}
	}
	return s.processor.ProcessEvent(ctx, evt)
}

// ProcessBatch processes a batch on behalf of an organization. The
// boundary check is fail-closed: if any event has a mismatched
// organization, the whole batch is rejected and nothing is processed.
func (s *Service) ProcessBatch(ctx context.Context, events []*event.Event, organizationID string) BatchResponse {
	for _, evt := range events {
		if evt != nil && evt.OrganizationID != organizationID {
			return BatchResponse{
				Summary:  BatchSummary{Total: len(events), Failed: len(events)},
				Rejected: orgMismatch(evt, organizationID),
			}
		}
	}

	results := s.processor.ProcessBatch(ctx, events)
	summary := BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return BatchResponse{Results: results, Summary: summary}
}

// ValidateEvent validates one event without processing it. The
// organization boundary applies as for ProcessEvent.
func (s *Service) ValidateEvent(evt *event.Event, organizationID string) validate.Result {
	if evt != nil && evt.OrganizationID != organizationID {
		return validate.Result{
			Errors: []errors.ValidationError{{
				Field:   "organizationId",
				Message: "event organization does not match caller organization",
				Code:    errors.CodeOrgMismatch,
			}},
		}
	}

	done := observability.TimedOperation()
	res := s.validator.Validate(evt)
	if evt != nil {
		s.collector.RecordValidation(evt.EventType, res.IsValid,
			len(res.Errors), len(res.Warnings), done())
	}
	return res
}

// ValidateBatch validates events independently, preserving order. The
// boundary check is fail-closed like ProcessBatch.
func (s *Service) ValidateBatch(events []*event.Event, organizationID string) []validate.Result {
	for _, evt := range events {
		if evt != nil && evt.OrganizationID != organizationID {
			results := make([]validate.Result, len(events))
			for i := range results {
				results[i] = validate.Result{
					Errors: []errors.ValidationError{{
						Field:   "organizationId",
						Message: "batch rejected: an event organization does not match caller organization",
						Code:    errors.CodeOrgMismatch,
					}},
				}
			}
			return results
		}
	}

	results := make([]validate.Result, len(events))
	for i, evt := range events {
		results[i] = s.ValidateEvent(evt, organizationID)
	}
	return results
}

// QuickCheck is the allocation-free structural pre-check.
func (s *Service) QuickCheck(evt *event.Event) bool {
	return s.validator.QuickCheck(evt)
}

// Per-channel webhook entry points.

// OnInventoryEvent receives one event on the inventory channel.
func (s *Service) OnInventoryEvent(ctx context.Context, evt *event.Event) *process.Result {
	return s.gateway.OnInventoryEvent(ctx, evt)
}

// OnSalesEvent receives one event on the sales channel.
func (s *Service) OnSalesEvent(ctx context.Context, evt *event.Event) *process.Result {
	return s.gateway.OnSalesEvent(ctx, evt)
}

// OnPurchaseEvent receives one event on the purchase channel.
func (s *Service) OnPurchaseEvent(ctx context.Context, evt *event.Event) *process.Result {
	return s.gateway.OnPurchaseEvent(ctx, evt)
}

// OnTransferEvent receives one event on the transfer channel.
func (s *Service) OnTransferEvent(ctx context.Context, evt *event.Event) *process.Result {
	return s.gateway.OnTransferEvent(ctx, evt)
}

// GetMetrics serializes the metrics view. detailed selects the
// comprehensive report; otherwise only the processing summary. CSV
// always carries the full history projection.
func (s *Service) GetMetrics(format metrics.Format, detailed bool) ([]byte, error) {
	if format == metrics.FormatJSON && !detailed {
		return json.MarshalIndent(s.collector.ProcessingMetrics(), "", "  ")
	}
	return s.collector.Export(format)
}

// GetTemporalMetrics returns fixed-width time buckets over the
// retention window.
func (s *Service) GetTemporalMetrics(interval time.Duration) metrics.TemporalMetrics {
	return s.collector.TemporalMetrics(interval)
}

// GetEdgeFunctionMetrics returns the per-channel summary.
func (s *Service) GetEdgeFunctionMetrics() []metrics.ChannelMetrics {
	return s.collector.ChannelMetrics()
}

// HealthCheck returns the operational health verdict.
func (s *Service) HealthCheck() metrics.HealthMetrics {
	return s.collector.HealthMetrics()
}

// GetStatus returns the component snapshot.
func (s *Service) GetStatus() StatusReport {
	return StatusReport{
		UptimeSeconds: time.Since(s.started).Seconds(),
		Healthy:       s.collector.HealthMetrics().Healthy,
		Gateway:       s.gateway.Stats(),
		Config:        s.gateway.Config(),
		StatusCounts:  s.statuses.Counts(),
	}
}

// EventStatus returns the lifecycle state of a previously seen event.
func (s *Service) EventStatus(eventID string) (process.Status, bool) {
	return s.processor.Status(eventID)
}

// UpdateConfig hot-swaps the gateway configuration.
func (s *Service) UpdateConfig(update gateway.ConfigUpdate) {
	s.gateway.UpdateConfig(update)
}

// GatewayStats exposes the gateway queues.
func (s *Service) GatewayStats() gateway.Stats {
	return s.gateway.Stats()
}

// FlushBatches forces an immediate flush of every channel queue.
func (s *Service) FlushBatches(ctx context.Context) map[event.Channel]*process.Result {
	return s.gateway.FlushBatch(ctx)
}

// ClearCache drops tracked event statuses and resets the metrics
// history. Administrative use only; pending batch queues are untouched.
func (s *Service) ClearCache() {
	s.statuses.Clear()
	s.collector.Reset()
}

// Shutdown flushes residual queued events and stops background sweeps.
func (s *Service) Shutdown(ctx context.Context) {
	s.gateway.Shutdown(ctx)
	s.collector.Close()
	s.statuses.Close()
}
