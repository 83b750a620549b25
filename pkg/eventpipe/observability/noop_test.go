package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics_ImplementsInterface(t *testing.T) {
	var _ MetricsRecorder = NoopMetrics{}
}

func TestNoopMetrics_DoesNothing(t *testing.T) {
	m := NoopMetrics{}

	assert.NotPanics(t, func() {
		m.RecordEventProcessed(context.Background(), "sale_completed", "sales", time.Millisecond, true)
		m.RecordEventProcessed(context.Background(), "", "", 0, false)
		m.RecordBatchFlush(context.Background(), "sales", 10, time.Millisecond)
		m.RecordValidation(context.Background(), "sale_completed", false, 0)
	})
}

func TestNoopSpanManager_ImplementsInterface(t *testing.T) {
	var _ SpanManager = NoopSpanManager{}
}

func TestNoopSpanManager_DoesNothing(t *testing.T) {
	m := NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := m.StartEventSpan(ctx, "evt_1", "sale_completed")
	assert.Equal(t, ctx, newCtx)
	assert.NotNil(t, span)
	assert.False(t, span.IsRecording())

	_, span = m.StartBatchSpan(ctx, "sales", 5)
	assert.False(t, span.IsRecording())

	assert.NotPanics(t, func() {
		m.EndSpanWithError(span, errors.New("test"))
		m.EndSpanWithError(span, nil)
		m.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
	})
}
