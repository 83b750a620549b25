package validate

import (
	"fmt"
	"time"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// delayedHighPriorityAge is how old a latency-sensitive event may be
// before it draws a DELAYED_HIGH_PRIORITY warning.
const delayedHighPriorityAge = 60 * time.Second

// cancellationTypes are the event types expected to reference the
// original transaction they undo.
var cancellationTypes = map[event.Type]bool{
	event.TypeSaleCancelled:     true,
	event.TypeReturnProcessed:   true,
	event.TypePurchaseCancelled: true,
	event.TypePurchaseReturned:  true,
}

// businessRules runs stage 5: cross-field checks that the per-type
// schemas cannot express.
func (v *Validator) businessRules(evt *event.Event, res *Result) {
	if evt.Data == nil {
		return
	}

	v.checkCancellationReference(evt, res)
	v.checkHighPriorityDelay(evt, res)

	switch evt.EventType {
	case event.TypeSaleCompleted, event.TypeSaleCancelled, event.TypeReturnProcessed:
		v.checkSale(evt, res)
	case event.TypePurchaseOrderCreated, event.TypePurchaseCompleted,
		event.TypePurchaseCancelled, event.TypePurchaseReturned:
		v.checkPurchase(evt, res)
	case event.TypeTransferInitiated, event.TypeTransferCompleted,
		event.TypeTransferCancelled, event.TypeInventoryTransfer:
		v.checkTransfer(evt, res)
	}
}

// checkCancellationReference warns when a cancellation-type event does
// not point at the transaction it reverses. Advisory only: the ERP omits
// the reference on legacy document flows.
func (v *Validator) checkCancellationReference(evt *event.Event, res *Result) {
	if !cancellationTypes[evt.EventType] {
		return
	}

	referenced := false
	if sale, ok := evt.Sale(); ok && sale.OriginalSaleID != "" {
		referenced = true
	}
	if purchase, ok := evt.Purchase(); ok && purchase.OriginalOrderID != "" {
		referenced = true
	}
	if !referenced {
		res.addWarning("data",
			fmt.Sprintf("%s should reference the original transaction", evt.EventType),
			errors.CodeMissingCancellationReference)
	}
}

// checkHighPriorityDelay warns when a latency-sensitive event arrives
// late. Requires a parseable past timestamp; the freshness stage already
// reported anything else.
func (v *Validator) checkHighPriorityDelay(evt *event.Event, res *Result) {
	if !event.HighPriority(evt.EventType) {
		return
	}
	ts, err := evt.OccurredAt()
	if err != nil {
		return
	}
	if age := v.now().Sub(ts); age > delayedHighPriorityAge {
		res.addWarning("timestamp",
			fmt.Sprintf("high priority event delayed %s", age.Round(time.Second)),
			errors.CodeDelayedHighPriority)
	}
}

func (v *Validator) checkSale(evt *event.Event, res *Result) {
	sale, ok := evt.Sale()
	if !ok {
		return
	}
	if sale.TotalAmount < 0 {
		res.addError("data.sale.total_amount",
			fmt.Sprintf("sale amount must not be negative, got %.2f", sale.TotalAmount),
			errors.CodeNegativeSaleAmount)
	}
	if sale.Items != nil && len(sale.Items) == 0 {
		res.addError("data.sale.items", "sale must contain at least one line item",
			errors.CodeEmptySaleItems)
	}
}

func (v *Validator) checkPurchase(evt *event.Event, res *Result) {
	purchase, ok := evt.Purchase()
	if !ok {
		return
	}
	if purchase.TotalAmount < 0 {
		res.addError("data.purchase.total_amount",
			fmt.Sprintf("purchase amount must not be negative, got %.2f", purchase.TotalAmount),
			errors.CodeNegativePurchaseAmount)
	}
}

func (v *Validator) checkTransfer(evt *event.Event, res *Result) {
	transfer, ok := evt.Transfer()
	if !ok {
		return
	}
	if transfer.FromStoreID != "" && transfer.FromStoreID == transfer.ToStoreID {
		res.addError("data.transfer",
			"transfer source and destination stores are identical",
			errors.CodeSameStoreTransfer)
	}
}
