package process

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/observability"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/validate"
)

// MetricsSink receives processing observations. Satisfied by
// metrics.Collector; a narrow interface keeps the processor testable
// without a full collector.
type MetricsSink interface {
	RecordEventProcessing(eventType event.Type, channel event.Channel, durationMs float64, success bool, triggeredActions int)
}

// unknownEventCode maps a channel to its unmatched-type routing code.
var unknownEventCode = map[event.Channel]errors.Code{
	event.ChannelInventory: errors.CodeUnknownInventoryEvent,
	event.ChannelSales:     errors.CodeUnknownSalesEvent,
	event.ChannelPurchase:  errors.CodeUnknownPurchaseEvent,
	event.ChannelTransfer:  errors.CodeUnknownTransferEvent,
}

// processingCode maps a channel to its handler-failure code.
var processingCode = map[event.Channel]errors.Code{
	event.ChannelInventory: errors.CodeInventoryProcessing,
	event.ChannelSales:     errors.CodeSalesProcessing,
	event.ChannelPurchase:  errors.CodePurchaseProcessing,
	event.ChannelTransfer:  errors.CodeTransferProcessing,
}

// Options configure the processor.
type Options struct {
	// Validator checks events before dispatch. Required.
	Validator *validate.Validator

	// Handlers is the dispatch table. Defaults to DefaultHandlers().
	Handlers *HandlerTable

	// Statuses tracks per-event lifecycle. Defaults to an unswept
	// store; production callers should pass one with a sweep.
	Statuses *StatusStore

	// Metrics receives observations. Nil disables recording.
	Metrics MetricsSink

	// Spans traces event processing. Defaults to no-op.
	Spans observability.SpanManager

	// Logger receives processing output. Nil disables.
	Logger *slog.Logger
}

// Processor validates, routes, and dispatches events to channel handler
// groups, collecting triggered actions and recording metrics.
type Processor struct {
	validator *validate.Validator
	handlers  *HandlerTable
	statuses  *StatusStore
	metrics   MetricsSink
	spans     observability.SpanManager
	logger    *slog.Logger
}

// New creates a processor.
func New(opts Options) *Processor {
	if opts.Validator == nil {
		opts.Validator = validate.New(validate.Options{})
	}
	if opts.Handlers == nil {
		opts.Handlers = DefaultHandlers()
	}
	if opts.Statuses == nil {
		opts.Statuses = NewStatusStore(StatusStoreOptions{})
	}
	if opts.Spans == nil {
		opts.Spans = observability.NoopSpanManager{}
	}
	return &Processor{
		validator: opts.Validator,
		handlers:  opts.Handlers,
		statuses:  opts.Statuses,
		metrics:   opts.Metrics,
		spans:     opts.Spans,
		logger:    opts.Logger,
	}
}

// ProcessEvent validates, routes, and handles one event. It never
// panics: internal failures surface as a failed Result with a
// PROCESSING_ERROR.
func (p *Processor) ProcessEvent(ctx context.Context, evt *event.Event) (res *Result) {
	if evt == nil {
		return &Result{
			Errors: []*errors.ProcessingError{errors.NewProcessingError(
				errors.CodeMissingEvent, "event is required", nil,
			)},
		}
	}

	eventID := EventID(evt)
	done := observability.TimedOperation()

	ctx, span := p.spans.StartEventSpan(ctx, eventID, string(evt.EventType))

	defer func() {
		if r := recover(); r != nil {
			res = &Result{
				EventID: eventID,
				Errors: []*errors.ProcessingError{errors.NewProcessingError(
					errors.CodeProcessingInternal,
					fmt.Sprintf("internal processing failure: %v", r),
					nil,
				)},
			}
		}
		res.ProcessingTimeMs = done()

		status := StatusCompleted
		if !res.Success {
			status = StatusFailed
		}
		p.statuses.Set(eventID, status)
		p.record(evt, res)

		var spanErr error
		if !res.Success && len(res.Errors) > 0 {
			spanErr = res.Errors[0]
			observability.LogEventFailed(p.logger, eventID,
				string(res.Errors[0].Code), res.Errors[0].Message)
		} else {
			observability.LogEventProcessed(p.logger, eventID,
				res.ProcessingTimeMs, len(res.TriggeredActions))
		}
		p.spans.EndSpanWithError(span, spanErr)
	}()

	p.statuses.Set(eventID, StatusProcessing)

	validation := p.validator.Validate(evt)
	if !validation.IsValid {
		return &Result{
			EventID: eventID,
			Errors:  errors.FromValidation(validation.Errors),
			Metadata: map[string]any{
				"warnings": len(validation.Warnings),
			},
		}
	}

	channel, ok := evt.Channel()
	if !ok {
		// Validation admits only taxonomy types, so this means the
		// channel table lost an entry.
		return &Result{
			EventID: eventID,
			Errors: []*errors.ProcessingError{errors.NewProcessingError(
				errors.CodeUnknownEdgeFunction,
				fmt.Sprintf("no channel mapped for event type %q", evt.EventType),
				nil,
			)},
		}
	}

	handler, ok := p.handlers.Lookup(evt.EventType)
	if !ok {
		return &Result{
			EventID: eventID,
			Errors: []*errors.ProcessingError{errors.NewProcessingError(
				unknownEventCode[channel],
				fmt.Sprintf("no handler registered for event type %q", evt.EventType),
				map[string]any{"channel": string(channel)},
			)},
		}
	}

	actions, err := p.runHandler(ctx, handler, evt)
	if err != nil {
		return &Result{
			EventID:          eventID,
			TriggeredActions: actions,
			Errors: []*errors.ProcessingError{errors.NewProcessingError(
				processingCode[channel],
				err.Error(),
				map[string]any{"channel": string(channel)},
			)},
		}
	}

	return &Result{
		Success:          true,
		EventID:          eventID,
		TriggeredActions: actions,
		Metadata: map[string]any{
			"channel":  string(channel),
			"warnings": len(validation.Warnings),
		},
	}
}

// runHandler executes a handler, converting panics into errors so a bad
// handler cannot take down the batch.
func (p *Processor) runHandler(ctx context.Context, handler HandlerFunc, evt *event.Event) (actions []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, evt)
}

// ProcessBatch reorders events by descending priority (stable on ties,
// preserving arrival order) and processes them in that order. The
// returned slice matches the processed order, one result per input
// event; callers needing input order correlate by EventID.
func (p *Processor) ProcessBatch(ctx context.Context, events []*event.Event) []*Result {
	ordered := make([]*event.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return batchPriority(ordered[i]) > batchPriority(ordered[j])
	})

	results := make([]*Result, len(ordered))
	for i, evt := range ordered {
		results[i] = p.ProcessEvent(ctx, evt)
	}
	return results
}

// batchPriority orders nil batch elements after every real event so the
// comparator never dereferences them. ProcessEvent turns them into
// MISSING_EVENT results.
func batchPriority(evt *event.Event) int {
	if evt == nil {
		return -1
	}
	return event.Priority(evt.EventType)
}

// Status returns the lifecycle state of a previously seen event.
func (p *Processor) Status(eventID string) (Status, bool) {
	return p.statuses.Get(eventID)
}

// StatusCounts returns the tracked lifecycle states.
func (p *Processor) StatusCounts() map[Status]int {
	return p.statuses.Counts()
}

// Validator exposes the processor's validator for pre-check callers.
func (p *Processor) Validator() *validate.Validator {
	return p.validator
}

func (p *Processor) record(evt *event.Event, res *Result) {
	if p.metrics == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LogMetricsError(p.logger, "record_event",
				fmt.Errorf("panic: %v", r))
		}
	}()

	channel, _ := evt.Channel()
	p.metrics.RecordEventProcessing(evt.EventType, channel,
		res.ProcessingTimeMs, res.Success, len(res.TriggeredActions))
}
