package metrics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Format selects the export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Export serializes the comprehensive report. JSON carries the full
// report document; CSV flattens the three histories into sections, each
// introduced by a header row.
func (c *Collector) Export(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		report := c.ComprehensiveReport()
		return json.MarshalIndent(report, "", "  ")
	case FormatCSV:
		return c.exportCSV()
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (c *Collector) exportCSV() ([]byte, error) {
	processing, batches, validations := c.snapshot()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"section", "timestamp", "event_type", "channel",
		"duration_ms", "success", "triggered_actions"})
	for _, r := range processing {
		_ = w.Write([]string{
			"processing",
			r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			string(r.EventType),
			string(r.Channel),
			strconv.FormatFloat(r.DurationMs, 'f', 3, 64),
			strconv.FormatBool(r.Success),
			strconv.Itoa(r.TriggeredActions),
		})
	}

	_ = w.Write([]string{"section", "timestamp", "batch_size", "duration_ms",
		"success_count", "failure_count"})
	for _, b := range batches {
		_ = w.Write([]string{
			"batch",
			b.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			strconv.Itoa(b.BatchSize),
			strconv.FormatFloat(b.DurationMs, 'f', 3, 64),
			strconv.Itoa(b.SuccessCount),
			strconv.Itoa(b.FailureCount),
		})
	}

	_ = w.Write([]string{"section", "timestamp", "event_type", "is_valid",
		"errors", "warnings", "duration_ms"})
	for _, v := range validations {
		_ = w.Write([]string{
			"validation",
			v.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			string(v.EventType),
			strconv.FormatBool(v.IsValid),
			strconv.Itoa(v.ErrorsCount),
			strconv.Itoa(v.WarningsCount),
			strconv.FormatFloat(v.DurationMs, 'f', 3, 64),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
