package metrics

import (
	"runtime"
	"time"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// Health thresholds. The pipeline is healthy while the success rate and
// average latency both stay inside these bounds.
const (
	healthMinSuccessRate = 0.95
	healthMaxLatencyMs   = 5000.0
)

// ProcessingMetrics is the point-in-time summary over retained history.
type ProcessingMetrics struct {
	TotalEventsProcessed int                `json:"totalEventsProcessed"`
	SuccessCount         int                `json:"successCount"`
	FailureCount         int                `json:"failureCount"`
	SuccessRate          float64            `json:"successRate"`
	AverageLatencyMs     float64            `json:"averageLatencyMs"`
	EventTypeCounts      map[event.Type]int `json:"eventTypeCounts"`
	EventTypeErrors      map[event.Type]int `json:"eventTypeErrors"`
	LastActivity         time.Time          `json:"lastActivity"`
}

// ChannelMetrics is the per-channel summary.
type ChannelMetrics struct {
	Channel          event.Channel `json:"channel"`
	TotalEvents      int           `json:"totalEvents"`
	SuccessRate      float64       `json:"successRate"`
	AverageLatencyMs float64       `json:"averageLatencyMs"`
	TopEventType     event.Type    `json:"topEventType"`
}

// TemporalBucket is one fixed-width time bucket.
type TemporalBucket struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	EventCount       int       `json:"eventCount"`
	AverageLatencyMs float64   `json:"averageLatencyMs"`
	SuccessRate      float64   `json:"successRate"`
}

// TemporalMetrics is the time-bucketed view over the retention window.
type TemporalMetrics struct {
	Interval time.Duration    `json:"intervalMs"`
	Buckets  []TemporalBucket `json:"buckets"`
}

// HealthMetrics is the operational health verdict.
type HealthMetrics struct {
	Healthy          bool    `json:"healthy"`
	SuccessRate      float64 `json:"successRate"`
	AverageLatencyMs float64 `json:"averageLatencyMs"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
	MemoryAllocBytes uint64  `json:"memoryAllocBytes"`
	MemorySysBytes   uint64  `json:"memorySysBytes"`
	Goroutines       int     `json:"goroutines"`
}

// BatchMetrics summarizes batch flushes.
type BatchMetrics struct {
	TotalBatches     int     `json:"totalBatches"`
	TotalEvents      int     `json:"totalEvents"`
	AverageBatchSize float64 `json:"averageBatchSize"`
	SuccessRate      float64 `json:"successRate"`
}

// ValidationMetrics summarizes validation passes.
type ValidationMetrics struct {
	TotalValidations int     `json:"totalValidations"`
	ValidCount       int     `json:"validCount"`
	InvalidCount     int     `json:"invalidCount"`
	TotalWarnings    int     `json:"totalWarnings"`
	AverageLatencyMs float64 `json:"averageLatencyMs"`
}

// Report composes every view into one document.
type Report struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Processing  ProcessingMetrics `json:"processing"`
	Channels    []ChannelMetrics  `json:"channels"`
	Temporal    TemporalMetrics   `json:"temporal"`
	Batches     BatchMetrics      `json:"batches"`
	Validation  ValidationMetrics `json:"validation"`
	Health      HealthMetrics     `json:"health"`
}

// snapshot prunes expired records and copies the retained histories.
func (c *Collector) snapshot() ([]ProcessingRecord, []BatchRecord, []ValidationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()

	processing := make([]ProcessingRecord, len(c.processing))
	copy(processing, c.processing)
	batches := make([]BatchRecord, len(c.batches))
	copy(batches, c.batches)
	validations := make([]ValidationRecord, len(c.validations))
	copy(validations, c.validations)
	return processing, batches, validations
}

// ProcessingMetrics computes the point-in-time summary.
func (c *Collector) ProcessingMetrics() ProcessingMetrics {
	processing, _, _ := c.snapshot()
	return computeProcessing(processing)
}

func computeProcessing(records []ProcessingRecord) ProcessingMetrics {
	m := ProcessingMetrics{
		EventTypeCounts: make(map[event.Type]int),
		EventTypeErrors: make(map[event.Type]int),
	}

	var totalLatency float64
	for _, r := range records {
		m.TotalEventsProcessed++
		m.EventTypeCounts[r.EventType]++
		totalLatency += r.DurationMs
		if r.Success {
			m.SuccessCount++
		} else {
			m.FailureCount++
			m.EventTypeErrors[r.EventType]++
		}
		if r.Timestamp.After(m.LastActivity) {
			m.LastActivity = r.Timestamp
		}
	}

	if m.TotalEventsProcessed > 0 {
		m.SuccessRate = float64(m.SuccessCount) / float64(m.TotalEventsProcessed)
		m.AverageLatencyMs = totalLatency / float64(m.TotalEventsProcessed)
	}
	return m
}

// ChannelMetrics computes the per-channel summary for all four channels,
// in canonical channel order.
func (c *Collector) ChannelMetrics() []ChannelMetrics {
	processing, _, _ := c.snapshot()

	byChannel := make(map[event.Channel][]ProcessingRecord)
	for _, r := range processing {
		byChannel[r.Channel] = append(byChannel[r.Channel], r)
	}

	out := make([]ChannelMetrics, 0, 4)
	for _, ch := range event.Channels() {
		records := byChannel[ch]
		cm := ChannelMetrics{Channel: ch}

		var totalLatency float64
		success := 0
		typeCounts := make(map[event.Type]int)
		for _, r := range records {
			cm.TotalEvents++
			totalLatency += r.DurationMs
			typeCounts[r.EventType]++
			if r.Success {
				success++
			}
		}
		if cm.TotalEvents > 0 {
			cm.SuccessRate = float64(success) / float64(cm.TotalEvents)
			cm.AverageLatencyMs = totalLatency / float64(cm.TotalEvents)
		}

		top, topCount := event.Type(""), 0
		for t, n := range typeCounts {
			if n > topCount || (n == topCount && t < top) {
				top, topCount = t, n
			}
		}
		cm.TopEventType = top

		out = append(out, cm)
	}
	return out
}

// TemporalMetrics buckets the retained processing history into
// fixed-width intervals spanning the retention window, oldest first.
// Every retained record lands in exactly one bucket.
func (c *Collector) TemporalMetrics(interval time.Duration) TemporalMetrics {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	processing, _, _ := c.snapshot()

	now := c.now()
	windowStart := now.Add(-c.retention)
	bucketCount := int(c.retention/interval) + 1

	buckets := make([]TemporalBucket, bucketCount)
	latency := make([]float64, bucketCount)
	success := make([]int, bucketCount)
	for i := range buckets {
		buckets[i].Start = windowStart.Add(time.Duration(i) * interval)
		buckets[i].End = buckets[i].Start.Add(interval)
	}

	for _, r := range processing {
		idx := int(r.Timestamp.Sub(windowStart) / interval)
		if idx < 0 {
			idx = 0
		}
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].EventCount++
		latency[idx] += r.DurationMs
		if r.Success {
			success[idx]++
		}
	}

	for i := range buckets {
		if buckets[i].EventCount > 0 {
			buckets[i].AverageLatencyMs = latency[i] / float64(buckets[i].EventCount)
			buckets[i].SuccessRate = float64(success[i]) / float64(buckets[i].EventCount)
		}
	}

	return TemporalMetrics{Interval: interval, Buckets: buckets}
}

// HealthMetrics derives the boolean health verdict from the retained
// history plus process-level runtime stats. An idle pipeline is healthy.
func (c *Collector) HealthMetrics() HealthMetrics {
	processing, _, _ := c.snapshot()
	p := computeProcessing(processing)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	h := HealthMetrics{
		SuccessRate:      p.SuccessRate,
		AverageLatencyMs: p.AverageLatencyMs,
		UptimeSeconds:    time.Since(c.startTime).Seconds(),
		MemoryAllocBytes: mem.Alloc,
		MemorySysBytes:   mem.Sys,
		Goroutines:       runtime.NumGoroutine(),
	}
	h.Healthy = p.TotalEventsProcessed == 0 ||
		(p.SuccessRate >= healthMinSuccessRate && p.AverageLatencyMs < healthMaxLatencyMs)
	return h
}

// BatchMetrics summarizes batch flushes.
func (c *Collector) BatchMetrics() BatchMetrics {
	_, batches, _ := c.snapshot()

	m := BatchMetrics{}
	success, failure := 0, 0
	for _, b := range batches {
		m.TotalBatches++
		m.TotalEvents += b.BatchSize
		success += b.SuccessCount
		failure += b.FailureCount
	}
	if m.TotalBatches > 0 {
		m.AverageBatchSize = float64(m.TotalEvents) / float64(m.TotalBatches)
	}
	if success+failure > 0 {
		m.SuccessRate = float64(success) / float64(success+failure)
	}
	return m
}

// ValidationMetrics summarizes validation passes.
func (c *Collector) ValidationMetrics() ValidationMetrics {
	_, _, validations := c.snapshot()

	m := ValidationMetrics{}
	var totalLatency float64
	for _, v := range validations {
		m.TotalValidations++
		totalLatency += v.DurationMs
		m.TotalWarnings += v.WarningsCount
		if v.IsValid {
			m.ValidCount++
		} else {
			m.InvalidCount++
		}
	}
	if m.TotalValidations > 0 {
		m.AverageLatencyMs = totalLatency / float64(m.TotalValidations)
	}
	return m
}

// ComprehensiveReport composes all views.
func (c *Collector) ComprehensiveReport() Report {
	return Report{
		GeneratedAt: time.Now().UTC(),
		Processing:  c.ProcessingMetrics(),
		Channels:    c.ChannelMetrics(),
		Temporal:    c.TemporalMetrics(0),
		Batches:     c.BatchMetrics(),
		Validation:  c.ValidationMetrics(),
		Health:      c.HealthMetrics(),
	}
}
