package process_test

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/banbanlabs/eventpipe/pkg/eventpipe/event"
	"github.com/banbanlabs/eventpipe/pkg/eventpipe/process"
)

// genEventType draws from the full taxonomy.
func genEventType() gopter.Gen {
	types := event.Types()
	anys := make([]any, len(types))
	for i, t := range types {
		anys[i] = t
	}
	return gen.OneConstOf(anys...)
}

// genEvent builds envelopes with arbitrary identity tuples. Payloads are
// deliberately minimal: these properties exercise identity and ordering,
// not validation.
func genEvent() gopter.Gen {
	return gopter.CombineGens(
		genEventType(),
		gen.AlphaString(),
		gen.Int64Range(0, 60_000),
	).Map(func(vals []any) *event.Event {
		ageMs := vals[2].(int64)
		return &event.Event{
			EventType:      vals[0].(event.Type),
			OrganizationID: vals[1].(string),
			Timestamp: time.Now().UTC().
				Add(-time.Duration(ageMs) * time.Millisecond).
				Format(time.RFC3339Nano),
			Data: map[string]any{},
		}
	})
}

// Property-based test: event identity is a pure function of the
// identity tuple.
func TestEventID_PropertyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same tuple always yields the same ID", prop.ForAll(
		func(evt *event.Event) bool {
			first := process.EventID(evt)
			clone := *evt
			clone.Data = map[string]any{"extra": true}
			return first == process.EventID(&clone) && len(first) == len("evt_")+16
		},
		genEvent(),
	))

	properties.Property("changing the organization changes the ID", prop.ForAll(
		func(evt *event.Event, suffix string) bool {
			first := process.EventID(evt)
			other := *evt
			other.OrganizationID = evt.OrganizationID + "x" + suffix
			return first != process.EventID(&other)
		},
		genEvent(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property-based test: a batch always yields one result per input.
func TestProcessBatch_PropertyResultLength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	p := process.New(process.Options{})

	properties.Property("result count matches input count", prop.ForAll(
		func(events []*event.Event) bool {
			results := p.ProcessBatch(context.Background(), events)
			if len(results) != len(events) {
				return false
			}
			for _, res := range results {
				if res == nil {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genEvent()),
	))

	properties.TestingRun(t)
}

// Property-based test: batch processing order is priority-descending.
func TestProcessBatch_PropertyPriorityOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	p := process.New(process.Options{})

	properties.Property("higher priority events run first", prop.ForAll(
		func(events []*event.Event) bool {
			// Events sharing an identity tuple share a type, so the
			// ID -> priority mapping is well-defined.
			priorities := make(map[string]int, len(events))
			for _, evt := range events {
				priorities[process.EventID(evt)] = event.Priority(evt.EventType)
			}

			results := p.ProcessBatch(context.Background(), events)
			for i := 1; i < len(results); i++ {
				if priorities[results[i-1].EventID] < priorities[results[i].EventID] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genEvent()),
	))

	properties.TestingRun(t)
}
