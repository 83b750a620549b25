// Package metrics implements the in-memory metrics collector.
//
// The collector keeps three independent histories - event processing,
// batch flushes, and validations - each bounded two ways: records older
// than the retention window are pruned, and each history is capped at a
// maximum entry count regardless of timing. Histories store projections
// of events, never payloads.
//
// Reports are computed on demand from the retained history. Recording is
// non-fatal by contract: a recording failure is logged and swallowed so
// observability never breaks the processing path.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/observability"
)

// ProcessingRecord is one event-processing observation.
type ProcessingRecord struct {
	Timestamp        time.Time     `json:"timestamp"`
	EventType        event.Type    `json:"eventType"`
	Channel          event.Channel `json:"channel"`
	DurationMs       float64       `json:"processingTimeMs"`
	Success          bool          `json:"success"`
	TriggeredActions int           `json:"triggeredActionsCount"`
}

// BatchRecord is one batch-flush observation.
type BatchRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	BatchSize    int       `json:"batchSize"`
	DurationMs   float64   `json:"processingTimeMs"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
}

// ValidationRecord is one validation observation.
type ValidationRecord struct {
	Timestamp     time.Time  `json:"timestamp"`
	EventType     event.Type `json:"eventType"`
	IsValid       bool       `json:"isValid"`
	ErrorsCount   int        `json:"errorsCount"`
	WarningsCount int        `json:"warningsCount"`
	DurationMs    float64    `json:"validationTimeMs"`
}

// Options configure the collector.
type Options struct {
	// Retention is how long records are kept. Default 2h.
	Retention time.Duration

	// SweepInterval is the period of the background prune. Zero
	// disables the background sweep; Sweep can still be called
	// manually and reads prune lazily.
	SweepInterval time.Duration

	// MaxEntries caps each history independently. Default 10000.
	MaxEntries int

	// Logger receives sweep and mirror-failure output. Nil disables.
	Logger *slog.Logger

	// Recorder mirrors recordings to an external backend.
	// Nil disables mirroring.
	Recorder observability.MetricsRecorder
}

// Collector retains a bounded, time-limited history of observations and
// produces point-in-time, per-channel, and time-bucketed reports.
type Collector struct {
	mu          sync.RWMutex
	processing  []ProcessingRecord
	batches     []BatchRecord
	validations []ValidationRecord

	retention  time.Duration
	maxEntries int
	startTime  time.Time

	logger   *slog.Logger
	recorder observability.MetricsRecorder

	closeOnce sync.Once
	closeCh   chan struct{}

	// now is replaceable for retention tests.
	now func() time.Time
}

// NewCollector creates a collector. A positive SweepInterval starts the
// background retention sweep; call Close to stop it.
func NewCollector(opts Options) *Collector {
	if opts.Retention <= 0 {
		opts.Retention = 2 * time.Hour
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10000
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = observability.NoopMetrics{}
	}

	c := &Collector{
		retention:  opts.Retention,
		maxEntries: opts.MaxEntries,
		startTime:  time.Now(),
		logger:     opts.Logger,
		recorder:   recorder,
		closeCh:    make(chan struct{}),
		now:        time.Now,
	}

	if opts.SweepInterval > 0 {
		go c.sweepLoop(opts.SweepInterval)
	}

	return c
}

// RecordEventProcessing appends one event-processing observation.
func (c *Collector) RecordEventProcessing(eventType event.Type, channel event.Channel, durationMs float64, success bool, triggeredActions int) {
	defer c.recoverRecording("event_processing")

	c.mu.Lock()
	c.processing = appendCapped(c.processing, ProcessingRecord{
		Timestamp:        c.now(),
		EventType:        eventType,
		Channel:          channel,
		DurationMs:       durationMs,
		Success:          success,
		TriggeredActions: triggeredActions,
	}, c.maxEntries)
	c.mu.Unlock()

	c.recorder.RecordEventProcessed(context.Background(), string(eventType), string(channel),
		time.Duration(durationMs*float64(time.Millisecond)), success)
}

// RecordBatchProcessing appends one batch-flush observation.
func (c *Collector) RecordBatchProcessing(channel event.Channel, batchSize int, durationMs float64, successCount, failureCount int) {
	defer c.recoverRecording("batch_processing")

	c.mu.Lock()
	c.batches = appendCapped(c.batches, BatchRecord{
		Timestamp:    c.now(),
		BatchSize:    batchSize,
		DurationMs:   durationMs,
		SuccessCount: successCount,
		FailureCount: failureCount,
	}, c.maxEntries)
	c.mu.Unlock()

	c.recorder.RecordBatchFlush(context.Background(), string(channel), batchSize,
		time.Duration(durationMs*float64(time.Millisecond)))
}

// RecordValidation appends one validation observation.
func (c *Collector) RecordValidation(eventType event.Type, isValid bool, errorsCount, warningsCount int, durationMs float64) {
	defer c.recoverRecording("validation")

	c.mu.Lock()
	c.validations = appendCapped(c.validations, ValidationRecord{
		Timestamp:     c.now(),
		EventType:     eventType,
		IsValid:       isValid,
		ErrorsCount:   errorsCount,
		WarningsCount: warningsCount,
		DurationMs:    durationMs,
	}, c.maxEntries)
	c.mu.Unlock()

	c.recorder.RecordValidation(context.Background(), string(eventType), isValid,
		time.Duration(durationMs*float64(time.Millisecond)))
}

// recoverRecording swallows panics from recording paths so that
// observability failures never reach the caller.
func (c *Collector) recoverRecording(op string) {
	if r := recover(); r != nil {
		if c.logger != nil {
			c.logger.Warn("metrics recording failed",
				slog.String("operation", op),
				slog.Any("panic", r))
		}
	}
}

// Reset clears all histories. Test and operational use only.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processing = nil
	c.batches = nil
	c.validations = nil
	c.startTime = time.Now()
}

// Sweep drops records past the retention window from each history
// independently. Returns the number removed.
func (c *Collector) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked()
}

// Close stops the background sweep.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
}

func (c *Collector) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := c.Sweep()
			observability.LogSweep(c.logger, "metrics", removed)
		case <-c.closeCh:
			return
		}
	}
}

// pruneLocked removes expired records. Caller holds the write lock.
func (c *Collector) pruneLocked() int {
	cutoff := c.now().Add(-c.retention)
	removed := 0

	c.processing, removed = pruneRecords(c.processing, removed, func(r ProcessingRecord) time.Time { return r.Timestamp }, cutoff)
	c.batches, removed = pruneRecords(c.batches, removed, func(r BatchRecord) time.Time { return r.Timestamp }, cutoff)
	c.validations, removed = pruneRecords(c.validations, removed, func(r ValidationRecord) time.Time { return r.Timestamp }, cutoff)

	return removed
}

// pruneRecords keeps records at or after the cutoff. Histories are
// append-ordered, so the survivors are a suffix.
func pruneRecords[T any](records []T, removed int, at func(T) time.Time, cutoff time.Time) ([]T, int) {
	idx := 0
	for idx < len(records) && at(records[idx]).Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return records, removed
	}
	kept := make([]T, len(records)-idx)
	copy(kept, records[idx:])
	return kept, removed + idx
}

// appendCapped appends, dropping the oldest entry when the cap is hit.
func appendCapped[T any](records []T, record T, limit int) []T {
	if len(records) >= limit {
		records = records[1:]
	}
	return append(records, record)
}
