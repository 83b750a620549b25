package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		code errors.Code
		want errors.Category
	}{
		{errors.CodeMissingEvent, errors.CategoryValidation},
		{errors.CodeSchemaValidation, errors.CategoryValidation},
		{errors.CodeUnknownEdgeFunction, errors.CategoryRouting},
		{errors.CodeSalesProcessing, errors.CategoryProcessing},
		{errors.CodeListenerDisabled, errors.CategoryListener},
		{errors.CodeBatchSkip, errors.CategoryListener},
		{errors.CodeOrgMismatch, errors.CategoryBoundary},
		{errors.Code("SOMETHING_ELSE"), errors.CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Categorize(tt.code))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "validation", errors.CategoryValidation.String())
	assert.Equal(t, "listener", errors.CategoryListener.String())
	assert.Equal(t, "unknown", errors.CategoryUnknown.String())
}

func TestValidationErrorMessage(t *testing.T) {
	withField := errors.ValidationError{
		Field:   "data.sale.total_amount",
		Message: "must not be negative",
		Code:    errors.CodeNegativeSaleAmount,
	}
	assert.Equal(t,
		"data.sale.total_amount: must not be negative (NEGATIVE_SALE_AMOUNT)",
		withField.Error())

	noField := errors.ValidationError{
		Message: "event is required",
		Code:    errors.CodeMissingEvent,
	}
	assert.Equal(t, "event is required (MISSING_EVENT)", noField.Error())
}

func TestNewProcessingError(t *testing.T) {
	err := errors.NewProcessingError(errors.CodeBatchSkip, "flush in flight", map[string]any{
		"channel": "sales",
	})
	assert.Equal(t, "BATCH_SKIP: flush in flight", err.Error())
	assert.False(t, err.Timestamp.IsZero())
	assert.Equal(t, "sales", err.Context["channel"])
}

func TestFromValidation(t *testing.T) {
	out := errors.FromValidation([]errors.ValidationError{
		{Field: "timestamp", Message: "required", Code: errors.CodeMissingTimestamp},
		{Field: "data", Message: "required", Code: errors.CodeMissingData},
	})
	require.Len(t, out, 2)
	assert.Equal(t, errors.CodeMissingTimestamp, out[0].Code)
	assert.Equal(t, "timestamp", out[0].Context["field"])
	assert.Equal(t, errors.CodeMissingData, out[1].Code)
}
