package validate

import (
	"fmt"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// schemaFunc checks the payload shape for one event type, appending
// SCHEMA_VALIDATION_ERROR findings with full field paths.
type schemaFunc func(data map[string]any, res *Result)

// schemaByType is the static event type -> schema mapping. Adding an
// event type is a table change here, not a new switch arm.
var schemaByType = map[event.Type]schemaFunc{
	event.TypeProductCreated:      productSchema,
	event.TypeProductUpdated:      productSchema,
	event.TypeProductPriceChanged: productSchema,
	event.TypeInventoryAdjustment: movementSchema,
	event.TypeInventoryCount:      countSchema,
	event.TypeInventoryTransfer:   transferSchema,

	event.TypeSaleCompleted:   saleSchema,
	event.TypeSaleCancelled:   saleSchema,
	event.TypeReturnProcessed: saleSchema,

	event.TypePurchaseOrderCreated: purchaseSchema,
	event.TypePurchaseCompleted:    purchaseSchema,
	event.TypePurchaseCancelled:    purchaseSchema,
	event.TypePurchaseReturned:     purchaseSchema,

	event.TypeTransferInitiated: transferSchema,
	event.TypeTransferCompleted: transferSchema,
	event.TypeTransferCancelled: transferSchema,
}

// schema runs stage 4. Skipped when the type is outside the taxonomy or
// the payload is absent; stage 1 already reported those.
func (v *Validator) schema(evt *event.Event, res *Result) {
	if evt.Data == nil || !event.Known(evt.EventType) {
		return
	}
	check, ok := schemaByType[evt.EventType]
	if !ok {
		return
	}
	check(evt.Data, res)
}

func productSchema(data map[string]any, res *Result) {
	requireString(data, "data", "sku", res)
	requireString(data, "data", "name", res)
	requireString(data, "data", "category", res)
	requireNumber(data, "data", "price", res)
}

func movementSchema(data map[string]any, res *Result) {
	movement := requireSection(data, "data", "movement", res)
	if movement == nil {
		return
	}
	requireString(movement, "data.movement", "sku", res)
	requireString(movement, "data.movement", "store_id", res)
	requireNumber(movement, "data.movement", "quantity_change", res)
}

func countSchema(data map[string]any, res *Result) {
	count := requireSection(data, "data", "count", res)
	if count == nil {
		return
	}
	requireString(count, "data.count", "store_id", res)
	requireArray(count, "data.count", "items", res)
}

func saleSchema(data map[string]any, res *Result) {
	sale := requireSection(data, "data", "sale", res)
	if sale == nil {
		return
	}
	requireString(sale, "data.sale", "sale_id", res)
	requireString(sale, "data.sale", "store_id", res)
	requireNumber(sale, "data.sale", "total_amount", res)
	requireArray(sale, "data.sale", "items", res)
}

func purchaseSchema(data map[string]any, res *Result) {
	purchase := requireSection(data, "data", "purchase", res)
	if purchase == nil {
		return
	}
	requireString(purchase, "data.purchase", "order_id", res)
	requireString(purchase, "data.purchase", "supplier_id", res)
	requireNumber(purchase, "data.purchase", "total_amount", res)
	requireArray(purchase, "data.purchase", "items", res)
}

func transferSchema(data map[string]any, res *Result) {
	transfer := requireSection(data, "data", "transfer", res)
	if transfer == nil {
		return
	}
	requireString(transfer, "data.transfer", "transfer_id", res)
	requireString(transfer, "data.transfer", "from_store_id", res)
	requireString(transfer, "data.transfer", "to_store_id", res)
}

// requireSection fetches a nested object, reporting its absence.
func requireSection(m map[string]any, prefix, key string, res *Result) map[string]any {
	v, ok := m[key]
	if !ok {
		res.addError(prefix+"."+key, key+" section is required", errors.CodeSchemaValidation)
		return nil
	}
	section, ok := v.(map[string]any)
	if !ok {
		res.addError(prefix+"."+key, key+" must be an object", errors.CodeSchemaValidation)
		return nil
	}
	return section
}

func requireString(m map[string]any, prefix, key string, res *Result) {
	v, ok := m[key]
	if !ok {
		res.addError(prefix+"."+key, key+" is required", errors.CodeSchemaValidation)
		return
	}
	s, ok := v.(string)
	if !ok || s == "" {
		res.addError(prefix+"."+key, key+" must be a non-empty string", errors.CodeSchemaValidation)
	}
}

func requireNumber(m map[string]any, prefix, key string, res *Result) {
	v, ok := m[key]
	if !ok {
		res.addError(prefix+"."+key, key+" is required", errors.CodeSchemaValidation)
		return
	}
	if !isNumber(v) {
		res.addError(prefix+"."+key,
			fmt.Sprintf("%s must be a number, got %T", key, v),
			errors.CodeSchemaValidation)
	}
}

func requireArray(m map[string]any, prefix, key string, res *Result) {
	v, ok := m[key]
	if !ok {
		res.addError(prefix+"."+key, key+" is required", errors.CodeSchemaValidation)
		return
	}
	if _, ok := v.([]any); !ok {
		res.addError(prefix+"."+key, key+" must be an array", errors.CodeSchemaValidation)
	}
}

// isNumber accepts the numeric types a JSON decoder or a literal map can
// produce.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return true
	default:
		return false
	}
}
