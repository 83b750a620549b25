// Package validate implements the multi-stage event validator.
//
// Validation runs six stages in order, accumulating findings into a single
// result: structural shape, timestamp freshness, tenant identity, per-type
// payload schema, cross-field business rules, and optional domain-specific
// sub-fields. Errors block processing; warnings are advisory only.
//
// The validator is stateless and safe for concurrent use by any caller.
package validate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// Result is the outcome of validating one event.
// IsValid is true exactly when Errors is empty; warnings never affect it.
type Result struct {
	IsValid  bool                       `json:"isValid"`
	Errors   []errors.ValidationError   `json:"errors"`
	Warnings []errors.ValidationWarning `json:"warnings"`
}

func (r *Result) addError(field, message string, code errors.Code) {
	r.Errors = append(r.Errors, errors.ValidationError{Field: field, Message: message, Code: code})
}

func (r *Result) addWarning(field, message string, code errors.Code) {
	r.Warnings = append(r.Warnings, errors.ValidationWarning{Field: field, Message: message, Code: code})
}

// HasCode returns true if any error carries the given code.
func (r *Result) HasCode(code errors.Code) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// HasWarning returns true if any warning carries the given code.
func (r *Result) HasWarning(code errors.Code) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Options configure validator thresholds.
type Options struct {
	// MaxEventAge is the staleness threshold. Older events get a
	// STALE_EVENT warning. Default 300s.
	MaxEventAge time.Duration

	// MinEventAge is the duplicate-suspicion threshold. Younger events
	// get a RECENT_EVENT warning. Default 1s.
	MinEventAge time.Duration

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// Validator checks inbound events against the taxonomy, schema table,
// business rules, and domain allow-lists.
type Validator struct {
	maxAge time.Duration
	minAge time.Duration
	logger *slog.Logger

	// now is replaceable for freshness tests.
	now func() time.Time
}

// New creates a validator. Zero thresholds fall back to defaults.
func New(opts Options) *Validator {
	if opts.MaxEventAge <= 0 {
		opts.MaxEventAge = 300 * time.Second
	}
	if opts.MinEventAge <= 0 {
		opts.MinEventAge = 1 * time.Second
	}
	return &Validator{
		maxAge: opts.MaxEventAge,
		minAge: opts.MinEventAge,
		logger: opts.Logger,
		now:    time.Now,
	}
}

// Validate runs all stages against one event. It never panics: an
// unexpected internal failure is converted into a single VALIDATION_ERROR
// finding instead of propagating.
func (v *Validator) Validate(evt *event.Event) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Errors: []errors.ValidationError{{
					Message: fmt.Sprintf("internal validation failure: %v", r),
					Code:    errors.CodeValidationInternal,
				}},
			}
			if v.logger != nil {
				v.logger.Error("validator panic recovered", slog.Any("panic", r))
			}
		}
		res.IsValid = len(res.Errors) == 0
	}()

	if !v.structural(evt, &res) {
		return res
	}
	v.freshness(evt, &res)
	v.tenant(evt, &res)
	v.schema(evt, &res)
	v.businessRules(evt, &res)
	v.domainFields(evt, &res)
	return res
}

// ValidateBatch validates events independently, preserving input order.
func (v *Validator) ValidateBatch(events []*event.Event) []Result {
	results := make([]Result, len(events))
	for i, evt := range events {
		results[i] = v.Validate(evt)
	}
	return results
}

// QuickCheck is a cheap structural-only check used for fast-path
// rejection. It allocates no error detail.
func (v *Validator) QuickCheck(evt *event.Event) bool {
	if evt == nil {
		return false
	}
	if evt.EventType == "" || !event.Known(evt.EventType) {
		return false
	}
	if evt.Timestamp == "" || evt.OrganizationID == "" || evt.Data == nil {
		return false
	}
	return true
}

// structural runs stage 1. Returns false when the envelope is too broken
// for the remaining stages to be meaningful.
func (v *Validator) structural(evt *event.Event, res *Result) bool {
	if evt == nil {
		res.addError("event", "event is required", errors.CodeMissingEvent)
		return false
	}
	if evt.EventType == "" {
		res.addError("eventType", "eventType is required", errors.CodeMissingEventType)
	} else if !event.Known(evt.EventType) {
		res.addError("eventType",
			fmt.Sprintf("unknown event type %q", evt.EventType),
			errors.CodeInvalidEventType)
	}
	if evt.Timestamp == "" {
		res.addError("timestamp", "timestamp is required", errors.CodeMissingTimestamp)
	}
	if evt.Data == nil {
		res.addError("data", "data payload is required", errors.CodeMissingData)
	}
	return true
}

// freshness runs stage 2.
func (v *Validator) freshness(evt *event.Event, res *Result) {
	if evt.Timestamp == "" {
		return
	}
	ts, err := evt.OccurredAt()
	if err != nil {
		res.addError("timestamp",
			fmt.Sprintf("timestamp is not valid ISO-8601: %v", err),
			errors.CodeInvalidTimestamp)
		return
	}

	now := v.now()
	if ts.After(now) {
		res.addError("timestamp", "timestamp is in the future", errors.CodeInvalidTimestamp)
		return
	}

	age := now.Sub(ts)
	if age > v.maxAge {
		res.addWarning("timestamp",
			fmt.Sprintf("event is %s old, exceeds max age %s", age.Round(time.Second), v.maxAge),
			errors.CodeStaleEvent)
	}
	if age < v.minAge {
		res.addWarning("timestamp", "event is very recent, possible duplicate delivery",
			errors.CodeRecentEvent)
	}
}

// tenant runs stage 3. Organization IDs must be UUID v1-v5.
func (v *Validator) tenant(evt *event.Event, res *Result) {
	if evt.OrganizationID == "" {
		res.addError("organizationId", "organizationId is required",
			errors.CodeMissingOrganizationID)
		return
	}
	u, err := uuid.Parse(evt.OrganizationID)
	if err != nil {
		res.addError("organizationId",
			fmt.Sprintf("organizationId is not a valid UUID: %v", err),
			errors.CodeInvalidOrganizationID)
		return
	}
	if ver := u.Version(); ver < 1 || ver > 5 {
		res.addError("organizationId",
			fmt.Sprintf("organizationId has unsupported UUID version %d", ver),
			errors.CodeInvalidOrganizationID)
	}
}
