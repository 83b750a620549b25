// Package gateway implements the batching webhook listeners.
//
// One entry point per channel receives events, filters them to the
// channel's supported types, and either forwards them synchronously to
// the processor or accumulates them into a per-channel batch flushed by
// size or timeout. Channel queues are independent: a slow channel never
// delays another channel's flush.
//
// While an event sits in a queue the caller holds only a provisional
// result - accepted, not processed. The actual processing happens when
// the batch fills or the timer fires.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/config"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/observability"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/process"
)

// BatchSink receives batch-flush observations. Satisfied by
// metrics.Collector.
type BatchSink interface {
	RecordBatchProcessing(channel event.Channel, batchSize int, durationMs float64, successCount, failureCount int)
}

// listenerErrorCode maps a channel to its listener-failure code.
var listenerErrorCode = map[event.Channel]errors.Code{
	event.ChannelInventory: errors.CodeInventoryListener,
	event.ChannelSales:     errors.CodeSalesListener,
	event.ChannelPurchase:  errors.CodePurchaseListener,
	event.ChannelTransfer:  errors.CodeTransferListener,
}

// ConfigUpdate is a partial configuration change. Nil fields keep their
// current value; Channels entries merge into the existing map.
type ConfigUpdate struct {
	Enabled      *bool
	BatchSize    *int
	BatchTimeout *time.Duration
	Channels     map[string]bool
}

// channelState is the mutable per-channel queue. Guarded by Gateway.mu
// except for the flushing flag, which serializes flushes on its own.
type channelState struct {
	queue    []*event.Event
	timer    *batchTimer
	flushing atomic.Bool
}

// Options configure the gateway.
type Options struct {
	// Processor handles forwarded events and flushed batches. Required.
	Processor *process.Processor

	// Config is the initial batching policy. Defaults to
	// config.Default().Gateway.
	Config config.GatewayConfig

	// Metrics receives batch observations. Nil disables recording.
	Metrics BatchSink

	// Spans traces batch flushes. Defaults to no-op.
	Spans observability.SpanManager

	// Logger receives listener output. Nil disables.
	Logger *slog.Logger
}

// Gateway owns the per-channel batch queues and their flush policy.
type Gateway struct {
	processor *process.Processor
	metrics   BatchSink
	spans     observability.SpanManager
	logger    *slog.Logger

	mu       sync.Mutex
	cfg      config.GatewayConfig
	channels map[event.Channel]*channelState

	closed atomic.Bool
}

// Stats is a point-in-time view of the gateway's queues.
type Stats struct {
	Channels     map[event.Channel]ChannelStats `json:"channels"`
	TotalQueued  int                            `json:"totalQueued"`
	BatchingOn   bool                           `json:"batchingEnabled"`
	ShuttingDown bool                           `json:"shuttingDown"`
}

// ChannelStats is the per-channel queue view.
type ChannelStats struct {
	QueueLength int  `json:"queueLength"`
	Flushing    bool `json:"flushing"`
	TimerActive bool `json:"timerActive"`
	Enabled     bool `json:"enabled"`
}

// New creates a gateway.
func New(opts Options) *Gateway {
	cfg := opts.Config
	def := config.Default().Gateway
	if cfg.BatchSize == 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	if opts.Spans == nil {
		opts.Spans = observability.NoopSpanManager{}
	}

	channels := make(map[event.Channel]*channelState, 4)
	for _, ch := range event.Channels() {
		channels[ch] = &channelState{}
	}

	return &Gateway{
		processor: opts.Processor,
		metrics:   opts.Metrics,
		spans:     opts.Spans,
		logger:    opts.Logger,
		cfg:       cfg,
		channels:  channels,
	}
}

// OnInventoryEvent receives one event on the inventory channel.
func (g *Gateway) OnInventoryEvent(ctx context.Context, evt *event.Event) *process.Result {
	return g.onEvent(ctx, event.ChannelInventory, evt)
}

// OnSalesEvent receives one event on the sales channel.
func (g *Gateway) OnSalesEvent(ctx context.Context, evt *event.Event) *process.Result {
	return g.onEvent(ctx, event.ChannelSales, evt)
}

// OnPurchaseEvent receives one event on the purchase channel.
func (g *Gateway) OnPurchaseEvent(ctx context.Context, evt *event.Event) *process.Result {
	return g.onEvent(ctx, event.ChannelPurchase, evt)
}

// OnTransferEvent receives one event on the transfer channel.
func (g *Gateway) OnTransferEvent(ctx context.Context, evt *event.Event) *process.Result {
	return g.onEvent(ctx, event.ChannelTransfer, evt)
}

// OnEvent routes an event to its own channel's listener. Convenience for
// callers that do not pre-sort by channel.
func (g *Gateway) OnEvent(ctx context.Context, evt *event.Event) *process.Result {
	if evt == nil {
		return failedResult("", errors.CodeMissingEvent, "event is required", nil)
	}
	channel, ok := evt.Channel()
	if !ok {
		return failedResult("", errors.CodeUnknownEdgeFunction,
			fmt.Sprintf("no channel mapped for event type %q", evt.EventType), nil)
	}
	return g.onEvent(ctx, channel, evt)
}

func (g *Gateway) onEvent(ctx context.Context, channel event.Channel, evt *event.Event) (res *process.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failedResult("", listenerErrorCode[channel],
				fmt.Sprintf("internal listener failure: %v", r),
				map[string]any{"channel": string(channel)})
		}
	}()

	if g.closed.Load() {
		return failedResult("", errors.CodeListenerDisabled,
			"gateway is shut down", map[string]any{"channel": string(channel)})
	}

	g.mu.Lock()
	cfg := g.cfg
	g.mu.Unlock()

	if !cfg.ChannelEnabled(string(channel)) {
		return failedResult("", errors.CodeListenerDisabled,
			fmt.Sprintf("%s listener is disabled", channel),
			map[string]any{"channel": string(channel)})
	}

	if evt == nil {
		return failedResult("", errors.CodeMissingEvent, "event is required", nil)
	}
	if evtChannel, ok := evt.Channel(); !ok || evtChannel != channel {
		return failedResult(process.EventID(evt), errors.CodeUnsupportedEventType,
			fmt.Sprintf("event type %q is not accepted on the %s channel", evt.EventType, channel),
			map[string]any{"channel": string(channel)})
	}

	observability.LogEventAccepted(g.logger, string(evt.EventType), string(channel), cfg.Enabled)

	if !cfg.Enabled {
		return g.processor.ProcessEvent(ctx, evt)
	}

	return g.enqueue(ctx, channel, evt, cfg)
}

// enqueue appends the event to the channel queue, flushing on size or
// arming the timeout timer. Returns either the aggregate flush result
// (size trigger) or a provisional acceptance.
func (g *Gateway) enqueue(ctx context.Context, channel event.Channel, evt *event.Event, cfg config.GatewayConfig) *process.Result {
	g.mu.Lock()
	state := g.channels[channel]
	state.queue = append(state.queue, evt)
	queueLen := len(state.queue)

	if queueLen >= cfg.BatchSize {
		g.mu.Unlock()
		if res, ok := g.tryFlush(ctx, channel, "size"); ok {
			return res
		}
		// An in-flight flush holds the guard and has already swapped
		// the queue out, so this event missed it. Keep it queued and
		// fall back to the timeout trigger.
		g.mu.Lock()
	}

	if state.timer == nil || !state.timer.Active() {
		timeout := cfg.BatchTimeout.Std()
		state.timer = newBatchTimer(timeout, func() {
			g.timerFlush(channel, timeout)
		})
	}
	g.mu.Unlock()

	return &process.Result{
		Success:          true,
		EventID:          process.EventID(evt),
		TriggeredActions: []string{"added_to_batch"},
		Metadata: map[string]any{
			"batchMode":   true,
			"channel":     string(channel),
			"queueLength": queueLen,
		},
	}
}

// flush drains one channel queue and processes it as a batch. A flush
// already in progress makes a concurrent trigger a no-op: the queue swap
// and the flushing guard together ensure no event is processed twice or
// lost between triggers.
func (g *Gateway) flush(ctx context.Context, channel event.Channel, trigger string) *process.Result {
	res, ok := g.tryFlush(ctx, channel, trigger)
	if !ok {
		return failedResult("", errors.CodeBatchSkip,
			fmt.Sprintf("%s batch flush already in progress", channel),
			map[string]any{"channel": string(channel), "trigger": trigger})
	}
	return res
}

// tryFlush is flush without the BATCH_SKIP result: ok is false when an
// in-flight flush holds the guard, letting the size path keep its event
// queued instead of reporting a failure.
func (g *Gateway) tryFlush(ctx context.Context, channel event.Channel, trigger string) (*process.Result, bool) {
	state := g.channels[channel]

	if !state.flushing.CompareAndSwap(false, true) {
		return nil, false
	}
	defer state.flushing.Store(false)

	g.mu.Lock()
	batch := state.queue
	state.queue = nil
	if state.timer != nil {
		state.timer.Cancel()
		state.timer = nil
	}
	g.mu.Unlock()

	if len(batch) == 0 {
		return &process.Result{
			Success:          true,
			TriggeredActions: []string{"batch_empty"},
			Metadata:         map[string]any{"channel": string(channel), "batchSize": 0},
		}, true
	}

	done := observability.TimedOperation()
	ctx, span := g.spans.StartBatchSpan(ctx, string(channel), len(batch))

	results := g.processor.ProcessBatch(ctx, batch)

	successful, failed := 0, 0
	for _, r := range results {
		if r.Success {
			successful++
		} else {
			failed++
		}
	}
	durationMs := done()

	g.recordBatch(channel, len(batch), durationMs, successful, failed)
	observability.LogBatchFlush(g.logger, string(channel), len(batch), trigger, durationMs)

	agg := &process.Result{
		Success:          failed == 0,
		ProcessingTimeMs: durationMs,
		TriggeredActions: []string{"batch_processed"},
		Metadata: map[string]any{
			"channel":    string(channel),
			"batchSize":  len(batch),
			"successful": successful,
			"failed":     failed,
			"trigger":    trigger,
		},
	}
	if failed > 0 {
		agg.Errors = []*errors.ProcessingError{errors.NewProcessingError(
			errors.CodeBatchProcessing,
			fmt.Sprintf("%d of %d events failed in %s batch", failed, len(batch), channel),
			map[string]any{"channel": string(channel)},
		)}
		g.spans.EndSpanWithError(span, agg.Errors[0])
	} else {
		g.spans.EndSpanWithError(span, nil)
	}
	return agg, true
}

// timerFlush runs the timeout trigger. Losing the flushing guard to an
// in-flight flush re-arms the timer, so a non-empty queue always keeps
// a pending trigger.
func (g *Gateway) timerFlush(channel event.Channel, timeout time.Duration) {
	if _, ok := g.tryFlush(context.Background(), channel, "timeout"); ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	state := g.channels[channel]
	if len(state.queue) > 0 && (state.timer == nil || !state.timer.Active()) {
		state.timer = newBatchTimer(timeout, func() {
			g.timerFlush(channel, timeout)
		})
	}
}

// recordBatch forwards a flush observation to the metrics sink. Sink
// failures are logged and swallowed so metrics can never fail a flush.
func (g *Gateway) recordBatch(channel event.Channel, batchSize int, durationMs float64, successful, failed int) {
	if g.metrics == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LogMetricsError(g.logger, "record_batch",
				fmt.Errorf("panic: %v", r))
		}
	}()

	g.metrics.RecordBatchProcessing(channel, batchSize, durationMs, successful, failed)
}

// FlushChannel forces an immediate flush of one channel.
func (g *Gateway) FlushChannel(ctx context.Context, channel event.Channel) *process.Result {
	if _, ok := g.channels[channel]; !ok {
		return failedResult("", errors.CodeUnknownEdgeFunction,
			fmt.Sprintf("unknown channel %q", channel), nil)
	}
	return g.flush(ctx, channel, "forced")
}

// FlushBatch forces an immediate flush of every channel. Used by health
// and shutdown paths.
func (g *Gateway) FlushBatch(ctx context.Context) map[event.Channel]*process.Result {
	out := make(map[event.Channel]*process.Result, 4)
	for _, ch := range event.Channels() {
		out[ch] = g.flush(ctx, ch, "forced")
	}
	return out
}

// ClearQueue drops all pending events and cancels the timers, returning
// the number discarded. Emergency and test use.
func (g *Gateway) ClearQueue() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	discarded := 0
	for _, state := range g.channels {
		discarded += len(state.queue)
		state.queue = nil
		if state.timer != nil {
			state.timer.Cancel()
			state.timer = nil
		}
	}
	return discarded
}

// UpdateConfig applies a partial configuration change atomically.
func (g *Gateway) UpdateConfig(update ConfigUpdate) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if update.Enabled != nil {
		g.cfg.Enabled = *update.Enabled
	}
	if update.BatchSize != nil && *update.BatchSize >= 1 {
		g.cfg.BatchSize = *update.BatchSize
	}
	if update.BatchTimeout != nil && *update.BatchTimeout > 0 {
		g.cfg.BatchTimeout = config.Duration(*update.BatchTimeout)
	}
	if update.Channels != nil {
		merged := make(map[string]bool, len(g.cfg.Channels)+len(update.Channels))
		for k, v := range g.cfg.Channels {
			merged[k] = v
		}
		for k, v := range update.Channels {
			merged[k] = v
		}
		g.cfg.Channels = merged
	}
}

// Config returns a snapshot of the current configuration.
func (g *Gateway) Config() config.GatewayConfig {
	g.mu.Lock()
	defer g.mu.Unlock()

	cfg := g.cfg
	channels := make(map[string]bool, len(cfg.Channels))
	for k, v := range cfg.Channels {
		channels[k] = v
	}
	cfg.Channels = channels
	return cfg
}

// Stats exposes queue lengths, in-flight flags, and timer presence.
func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := Stats{
		Channels:     make(map[event.Channel]ChannelStats, 4),
		BatchingOn:   g.cfg.Enabled,
		ShuttingDown: g.closed.Load(),
	}
	for ch, state := range g.channels {
		cs := ChannelStats{
			QueueLength: len(state.queue),
			Flushing:    state.flushing.Load(),
			TimerActive: state.timer != nil && state.timer.Active(),
			Enabled:     g.cfg.ChannelEnabled(string(ch)),
		}
		stats.Channels[ch] = cs
		stats.TotalQueued += cs.QueueLength
	}
	return stats
}

// Shutdown flushes any residual queued events, then refuses further
// traffic. Idempotent.
func (g *Gateway) Shutdown(ctx context.Context) {
	if g.closed.Swap(true) {
		return
	}
	for _, ch := range event.Channels() {
		g.flush(ctx, ch, "shutdown")
	}
}

func failedResult(eventID string, code errors.Code, message string, ctx map[string]any) *process.Result {
	return &process.Result{
		EventID: eventID,
		Errors:  []*errors.ProcessingError{errors.NewProcessingError(code, message, ctx)},
	}
}
