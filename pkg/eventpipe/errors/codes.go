// Package errors defines the structured error vocabulary of the pipeline.
//
// The pipeline never surfaces failures as raw Go errors to its callers:
// every public operation returns a result object carrying coded errors and
// warnings. This package owns the codes, the error/warning value types,
// and the category each code belongs to.
package errors

// Code identifies a specific failure or advisory condition.
type Code string

// Validation error codes. These block processing.
const (
	CodeMissingEvent           Code = "MISSING_EVENT"
	CodeMissingEventType       Code = "MISSING_EVENT_TYPE"
	CodeInvalidEventType       Code = "INVALID_EVENT_TYPE"
	CodeMissingTimestamp       Code = "MISSING_TIMESTAMP"
	CodeInvalidTimestamp       Code = "INVALID_TIMESTAMP"
	CodeMissingData            Code = "MISSING_DATA"
	CodeMissingOrganizationID  Code = "MISSING_ORGANIZATION_ID"
	CodeInvalidOrganizationID  Code = "INVALID_ORGANIZATION_ID"
	CodeSchemaValidation       Code = "SCHEMA_VALIDATION_ERROR"
	CodeNegativeSaleAmount     Code = "NEGATIVE_SALE_AMOUNT"
	CodeNegativePurchaseAmount Code = "NEGATIVE_PURCHASE_AMOUNT"
	CodeEmptySaleItems         Code = "EMPTY_SALE_ITEMS"
	CodeSameStoreTransfer      Code = "SAME_STORE_TRANSFER"
	CodeValidationInternal     Code = "VALIDATION_ERROR"
)

// Validation warning codes. Advisory only, never block.
const (
	CodeStaleEvent                   Code = "STALE_EVENT"
	CodeRecentEvent                  Code = "RECENT_EVENT"
	CodeMissingCancellationReference Code = "MISSING_CANCELLATION_REFERENCE"
	CodeDelayedHighPriority          Code = "DELAYED_HIGH_PRIORITY"
	CodeUnknownDocStatus             Code = "UNKNOWN_DOC_STATUS"
	CodeInvalidSeasonFormat          Code = "INVALID_SEASON_FORMAT"
	CodeUnusualCollectionYear        Code = "UNUSUAL_COLLECTION_YEAR"
)

// Routing error codes.
const (
	CodeUnknownEdgeFunction   Code = "UNKNOWN_EDGE_FUNCTION"
	CodeUnknownInventoryEvent Code = "UNKNOWN_INVENTORY_EVENT"
	CodeUnknownSalesEvent     Code = "UNKNOWN_SALES_EVENT"
	CodeUnknownPurchaseEvent  Code = "UNKNOWN_PURCHASE_EVENT"
	CodeUnknownTransferEvent  Code = "UNKNOWN_TRANSFER_EVENT"
)

// Processing error codes.
const (
	CodeInventoryProcessing Code = "INVENTORY_PROCESSING_ERROR"
	CodeSalesProcessing     Code = "SALES_PROCESSING_ERROR"
	CodePurchaseProcessing  Code = "PURCHASE_PROCESSING_ERROR"
	CodeTransferProcessing  Code = "TRANSFER_PROCESSING_ERROR"
	CodeProcessingInternal  Code = "PROCESSING_ERROR"
)

// Listener error codes.
const (
	CodeListenerDisabled     Code = "LISTENER_DISABLED"
	CodeUnsupportedEventType Code = "UNSUPPORTED_EVENT_TYPE"
	CodeInventoryListener    Code = "INVENTORY_LISTENER_ERROR"
	CodeSalesListener        Code = "SALES_LISTENER_ERROR"
	CodePurchaseListener     Code = "PURCHASE_LISTENER_ERROR"
	CodeTransferListener     Code = "TRANSFER_LISTENER_ERROR"
	CodeBatchProcessing      Code = "BATCH_PROCESSING_ERROR"
	CodeBatchSkip            Code = "BATCH_SKIP"
)

// Boundary error codes.
const (
	CodeOrgMismatch Code = "ORG_MISMATCH"
)

// Category classifies where in the pipeline an error originated.
type Category int

const (
	CategoryValidation Category = iota
	CategoryRouting
	CategoryProcessing
	CategoryListener
	CategoryBoundary
	CategoryUnknown
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryRouting:
		return "routing"
	case CategoryProcessing:
		return "processing"
	case CategoryListener:
		return "listener"
	case CategoryBoundary:
		return "boundary"
	default:
		return "unknown"
	}
}

var categoryByCode = map[Code]Category{
	CodeMissingEvent:           CategoryValidation,
	CodeMissingEventType:       CategoryValidation,
	CodeInvalidEventType:       CategoryValidation,
	CodeMissingTimestamp:       CategoryValidation,
	CodeInvalidTimestamp:       CategoryValidation,
	CodeMissingData:            CategoryValidation,
	CodeMissingOrganizationID:  CategoryValidation,
	CodeInvalidOrganizationID:  CategoryValidation,
	CodeSchemaValidation:       CategoryValidation,
	CodeNegativeSaleAmount:     CategoryValidation,
	CodeNegativePurchaseAmount: CategoryValidation,
	CodeEmptySaleItems:         CategoryValidation,
	CodeSameStoreTransfer:      CategoryValidation,
	CodeValidationInternal:     CategoryValidation,

	CodeUnknownEdgeFunction:   CategoryRouting,
	CodeUnknownInventoryEvent: CategoryRouting,
	CodeUnknownSalesEvent:     CategoryRouting,
	CodeUnknownPurchaseEvent:  CategoryRouting,
	CodeUnknownTransferEvent:  CategoryRouting,

	CodeInventoryProcessing: CategoryProcessing,
	CodeSalesProcessing:     CategoryProcessing,
	CodePurchaseProcessing:  CategoryProcessing,
	CodeTransferProcessing:  CategoryProcessing,
	CodeProcessingInternal:  CategoryProcessing,

	CodeListenerDisabled:     CategoryListener,
	CodeUnsupportedEventType: CategoryListener,
	CodeInventoryListener:    CategoryListener,
	CodeSalesListener:        CategoryListener,
	CodePurchaseListener:     CategoryListener,
	CodeTransferListener:     CategoryListener,
	CodeBatchProcessing:      CategoryListener,
	CodeBatchSkip:            CategoryListener,

	CodeOrgMismatch: CategoryBoundary,
}

// Categorize returns the category a code belongs to.
func Categorize(c Code) Category {
	if cat, ok := categoryByCode[c]; ok {
		return cat
	}
	return CategoryUnknown
}
