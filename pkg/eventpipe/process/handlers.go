package process

import (
	"context"
	"sync"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// HandlerFunc processes one validated event and returns the triggered
// actions it declares for downstream subsystems.
type HandlerFunc func(ctx context.Context, evt *event.Event) ([]string, error)

// HandlerTable maps event types to handlers. Dispatch is a table lookup:
// adding an event type is a registration, not a new switch arm.
type HandlerTable struct {
	mu       sync.RWMutex
	handlers map[event.Type]HandlerFunc
}

// NewHandlerTable creates an empty table.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{handlers: make(map[event.Type]HandlerFunc)}
}

// Register installs a handler for an event type, replacing any previous
// registration.
func (t *HandlerTable) Register(eventType event.Type, fn HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[eventType] = fn
}

// Lookup returns the handler for an event type.
func (t *HandlerTable) Lookup(eventType event.Type) (HandlerFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.handlers[eventType]
	return fn, ok
}

// DefaultHandlers returns the stock handler table covering the full
// taxonomy. Handlers only declare intents; executing them is the job of
// the analytics and alerting subsystems downstream.
func DefaultHandlers() *HandlerTable {
	t := NewHandlerTable()

	// Inventory channel.
	t.Register(event.TypeProductCreated, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"product_insights_analysis", "category_analysis_update"}, nil
	})
	t.Register(event.TypeProductUpdated, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"product_insights_analysis", "category_analysis_update"}, nil
	})
	t.Register(event.TypeProductPriceChanged, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"product_insights_analysis", "margin_analysis"}, nil
	})
	t.Register(event.TypeInventoryAdjustment, func(_ context.Context, evt *event.Event) ([]string, error) {
		actions := []string{"inventory_snapshot_update"}
		// Stock-outs only threaten on downward movement.
		if m, ok := evt.Movement(); ok && m.QuantityChange < 0 {
			actions = append(actions, "stock_level_alert_check")
		}
		return actions, nil
	})
	t.Register(event.TypeInventoryCount, func(_ context.Context, evt *event.Event) ([]string, error) {
		actions := []string{"variance_analysis"}
		if c, ok := evt.Count(); ok {
			for _, item := range c.Items {
				if item.Counted != item.Expected {
					actions = append(actions, "stock_level_alert_check")
					break
				}
			}
		}
		return actions, nil
	})
	t.Register(event.TypeInventoryTransfer, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"distribution_optimization", "stock_level_alert_check"}, nil
	})

	// Sales channel.
	t.Register(event.TypeSaleCompleted, func(_ context.Context, evt *event.Event) ([]string, error) {
		actions := []string{"margin_analysis", "inventory_impact_calculation"}
		if s, ok := evt.Sale(); ok && s.CustomerID != "" {
			actions = append(actions, "customer_behavior_analysis")
		}
		return actions, nil
	})
	t.Register(event.TypeSaleCancelled, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"inventory_impact_calculation", "cancellation_pattern_analysis"}, nil
	})
	t.Register(event.TypeReturnProcessed, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"inventory_impact_calculation", "return_rate_analysis"}, nil
	})

	// Purchase channel.
	t.Register(event.TypePurchaseOrderCreated, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"lead_time_tracking"}, nil
	})
	t.Register(event.TypePurchaseCompleted, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"supplier_performance_analysis", "cost_analysis_update"}, nil
	})
	t.Register(event.TypePurchaseCancelled, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"supplier_performance_analysis"}, nil
	})
	t.Register(event.TypePurchaseReturned, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"supplier_performance_analysis", "cost_analysis_update"}, nil
	})

	// Transfer channel.
	t.Register(event.TypeTransferInitiated, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"transfer_tracking_setup"}, nil
	})
	t.Register(event.TypeTransferCompleted, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"distribution_efficiency_analysis", "transfer_tracking_close"}, nil
	})
	t.Register(event.TypeTransferCancelled, func(_ context.Context, _ *event.Event) ([]string, error) {
		return []string{"transfer_tracking_close"}, nil
	})

	return t
}
