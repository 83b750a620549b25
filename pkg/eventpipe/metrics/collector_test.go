package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
	"github.com/goccy/go-json"
)

// fakeClock lets tests move record timestamps around the retention
// window.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCollector(retention time.Duration, maxEntries int) (*Collector, *fakeClock) {
	c := NewCollector(Options{Retention: retention, MaxEntries: maxEntries})
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.now
	return c, clock
}

func TestProcessingMetrics(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 2)
	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 20, true, 3)
	c.RecordEventProcessing(event.TypeProductCreated, event.ChannelInventory, 30, false, 0)

	m := c.ProcessingMetrics()
	assert.Equal(t, 3, m.TotalEventsProcessed)
	assert.Equal(t, 2, m.SuccessCount)
	assert.Equal(t, 1, m.FailureCount)
	assert.InDelta(t, 2.0/3.0, m.SuccessRate, 1e-9)
	assert.InDelta(t, 20.0, m.AverageLatencyMs, 1e-9)
	assert.Equal(t, 2, m.EventTypeCounts[event.TypeSaleCompleted])
	assert.Equal(t, 1, m.EventTypeErrors[event.TypeProductCreated])
}

func TestProcessingMetricsEmpty(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	m := c.ProcessingMetrics()
	assert.Equal(t, 0, m.TotalEventsProcessed)
	assert.Zero(t, m.SuccessRate)
	assert.Zero(t, m.AverageLatencyMs)
}

// TestRetentionPruneOnRead verifies expired records never leak into a
// report, even without a sweep.
func TestRetentionPruneOnRead(t *testing.T) {
	c, clock := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)
	clock.advance(2 * time.Hour)
	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)

	m := c.ProcessingMetrics()
	assert.Equal(t, 1, m.TotalEventsProcessed, "expired record must drop on read")
}

func TestSweep(t *testing.T) {
	c, clock := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)
	c.RecordBatchProcessing(event.ChannelSales, 5, 50, 5, 0)
	c.RecordValidation(event.TypeSaleCompleted, true, 0, 1, 1)

	assert.Equal(t, 0, c.Sweep(), "nothing expired yet")

	clock.advance(2 * time.Hour)
	assert.Equal(t, 3, c.Sweep())
}

// TestMaxEntriesCap verifies the count bound drops the oldest records.
func TestMaxEntriesCap(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 5)
	defer c.Close()

	for i := 0; i < 8; i++ {
		success := i >= 3
		c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 1, success, 0)
	}

	m := c.ProcessingMetrics()
	assert.Equal(t, 5, m.TotalEventsProcessed)
	// The three failures were recorded first and fell off the cap.
	assert.Equal(t, 5, m.SuccessCount)
}

func TestChannelMetrics(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)
	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 30, true, 1)
	c.RecordEventProcessing(event.TypeSaleCancelled, event.ChannelSales, 10, false, 0)

	channels := c.ChannelMetrics()
	require.Len(t, channels, 4, "all channels reported even when idle")

	assert.Equal(t, event.ChannelInventory, channels[0].Channel)
	assert.Equal(t, 0, channels[0].TotalEvents)

	sales := channels[1]
	assert.Equal(t, event.ChannelSales, sales.Channel)
	assert.Equal(t, 3, sales.TotalEvents)
	assert.InDelta(t, 2.0/3.0, sales.SuccessRate, 1e-9)
	assert.Equal(t, event.TypeSaleCompleted, sales.TopEventType)
}

// TestTemporalMetrics verifies every retained record lands in exactly
// one bucket, so the bucket sum always matches the retained total.
func TestTemporalMetrics(t *testing.T) {
	c, clock := newTestCollector(time.Hour, 1000)
	defer c.Close()

	for i := 0; i < 12; i++ {
		c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)
		clock.advance(4 * time.Minute)
	}

	tm := c.TemporalMetrics(15 * time.Minute)
	assert.Equal(t, 15*time.Minute, tm.Interval)

	total := 0
	for _, b := range tm.Buckets {
		total += b.EventCount
		assert.True(t, b.End.Equal(b.Start.Add(15*time.Minute)))
	}
	assert.Equal(t, c.ProcessingMetrics().TotalEventsProcessed, total)
}

func TestTemporalMetricsDefaultInterval(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	tm := c.TemporalMetrics(0)
	assert.Equal(t, 15*time.Minute, tm.Interval)
	assert.NotEmpty(t, tm.Buckets)
}

func TestHealthMetrics(t *testing.T) {
	t.Run("idle pipeline is healthy", func(t *testing.T) {
		c, _ := newTestCollector(time.Hour, 100)
		defer c.Close()

		h := c.HealthMetrics()
		assert.True(t, h.Healthy)
		assert.NotZero(t, h.MemorySysBytes)
		assert.Positive(t, h.Goroutines)
	})

	t.Run("healthy under thresholds", func(t *testing.T) {
		c, _ := newTestCollector(time.Hour, 100)
		defer c.Close()

		for i := 0; i < 100; i++ {
			c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, i != 0, 1)
		}
		h := c.HealthMetrics()
		assert.True(t, h.Healthy, "0.99 success rate is healthy")
	})

	t.Run("unhealthy on low success rate", func(t *testing.T) {
		c, _ := newTestCollector(time.Hour, 100)
		defer c.Close()

		for i := 0; i < 10; i++ {
			c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, i%2 == 0, 1)
		}
		h := c.HealthMetrics()
		assert.False(t, h.Healthy)
	})

	t.Run("unhealthy on high latency", func(t *testing.T) {
		c, _ := newTestCollector(time.Hour, 100)
		defer c.Close()

		c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 9000, true, 1)
		h := c.HealthMetrics()
		assert.False(t, h.Healthy)
	})
}

func TestBatchMetrics(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordBatchProcessing(event.ChannelSales, 10, 100, 9, 1)
	c.RecordBatchProcessing(event.ChannelInventory, 6, 60, 6, 0)

	m := c.BatchMetrics()
	assert.Equal(t, 2, m.TotalBatches)
	assert.Equal(t, 16, m.TotalEvents)
	assert.InDelta(t, 8.0, m.AverageBatchSize, 1e-9)
	assert.InDelta(t, 15.0/16.0, m.SuccessRate, 1e-9)
}

func TestValidationMetrics(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordValidation(event.TypeSaleCompleted, true, 0, 2, 1)
	c.RecordValidation(event.TypeSaleCompleted, false, 3, 0, 2)

	m := c.ValidationMetrics()
	assert.Equal(t, 2, m.TotalValidations)
	assert.Equal(t, 1, m.ValidCount)
	assert.Equal(t, 1, m.InvalidCount)
	assert.Equal(t, 2, m.TotalWarnings)
	assert.InDelta(t, 1.5, m.AverageLatencyMs, 1e-9)
}

func TestReset(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)
	c.Reset()
	assert.Equal(t, 0, c.ProcessingMetrics().TotalEventsProcessed)
}

func TestExportJSON(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)

	raw, err := c.Export(FormatJSON)
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, 1, report.Processing.TotalEventsProcessed)
	assert.Len(t, report.Channels, 4)
	assert.True(t, report.Health.Healthy)
}

func TestExportCSV(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	c.RecordEventProcessing(event.TypeSaleCompleted, event.ChannelSales, 10, true, 1)
	c.RecordBatchProcessing(event.ChannelSales, 3, 30, 3, 0)
	c.RecordValidation(event.TypeSaleCompleted, true, 0, 0, 1)

	raw, err := c.Export(FormatCSV)
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, "processing,")
	assert.Contains(t, out, "batch,")
	assert.Contains(t, out, "validation,")
	assert.Contains(t, out, "sale_completed")
	// Three header rows plus three data rows.
	assert.Equal(t, 6, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestExportUnsupportedFormat(t *testing.T) {
	c, _ := newTestCollector(time.Hour, 100)
	defer c.Close()

	_, err := c.Export(Format("xml"))
	assert.Error(t, err)
}
