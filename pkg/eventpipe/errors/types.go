package errors

import (
	"fmt"
	"time"
)

// ValidationError is one blocking finding from the validator.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    Code   `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// ValidationWarning is one advisory finding from the validator.
// Warnings never affect validity.
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    Code   `json:"code"`
}

// ProcessingError is a failure surfaced by the processor or gateway.
type ProcessingError struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewProcessingError creates a timestamped processing error.
func NewProcessingError(code Code, message string, ctx map[string]any) *ProcessingError {
	return &ProcessingError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Context:   ctx,
	}
}

// FromValidation translates validator findings into processing errors so
// that a failed validation surfaces through ProcessingResult unchanged
// in content.
func FromValidation(errs []ValidationError) []*ProcessingError {
	out := make([]*ProcessingError, 0, len(errs))
	for _, ve := range errs {
		out = append(out, NewProcessingError(ve.Code, ve.Message, map[string]any{
			"field": ve.Field,
		}))
	}
	return out
}
