// Package process implements the event processor: deterministic event
// identity, per-channel handler dispatch, triggered-action collection,
// and priority-ordered batch processing.
//
// The processor validates, routes, and declares intents ("triggered
// actions") for downstream subsystems; it never executes those intents
// itself. Per-event failures are isolated: one bad event in a batch
// fails individually and never aborts its siblings.
package process

import (
	"fmt"
	"hash/fnv"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/errors"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
)

// Result is the outcome of processing one event.
//
// On failure, TriggeredActions reflects only the actions declared before
// the failure point.
type Result struct {
	Success          bool                      `json:"success"`
	EventID          string                    `json:"eventId"`
	ProcessingTimeMs float64                   `json:"processingTimeMs"`
	TriggeredActions []string                  `json:"triggeredActions"`
	Errors           []*errors.ProcessingError `json:"errors,omitempty"`
	Metadata         map[string]any            `json:"metadata,omitempty"`
}

// HasErrorCode returns true if any error carries the given code.
func (r *Result) HasErrorCode(code errors.Code) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// EventID computes the deterministic identifier of an event: a pure
// function of (eventType, organizationId, timestamp). Identical events
// always yield identical IDs, which lets callers correlate provisional
// and final results and lets the status store dedupe.
func EventID(evt *event.Event) string {
	millis := evt.Timestamp
	if ts, err := evt.OccurredAt(); err == nil {
		millis = fmt.Sprintf("%d", ts.UnixMilli())
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", evt.EventType, evt.OrganizationID, millis)
	return fmt.Sprintf("evt_%016x", h.Sum64())
}
