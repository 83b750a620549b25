package event

import (
	"time"

	"github.com/goccy/go-json"
)

// Event is the inbound envelope pushed by the ERP. It is immutable by
// convention: the pipeline reads it but never mutates or stores it.
//
// Timestamp is kept as the raw ISO-8601 string from the wire; the
// validator owns parsing so that a malformed timestamp surfaces as a
// structured validation error instead of a decode failure.
type Event struct {
	EventType      Type           `json:"eventType"`
	OrganizationID string         `json:"organizationId"`
	Timestamp      string         `json:"timestamp"`
	Data           map[string]any `json:"data"`
	Metadata       *Metadata      `json:"metadata,omitempty"`
}

// Metadata carries optional envelope context set by the caller.
type Metadata struct {
	Source        string `json:"source,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// New creates an event stamped with the current time.
func New(t Type, organizationID string, data map[string]any) *Event {
	return &Event{
		EventType:      t,
		OrganizationID: organizationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		Data:           data,
	}
}

// Channel returns the ingestion channel for the event's type.
func (e *Event) Channel() (Channel, bool) {
	return ChannelOf(e.EventType)
}

// OccurredAt parses the envelope timestamp.
func (e *Event) OccurredAt() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		// Fall back to the second-precision form.
		return time.Parse(time.RFC3339, e.Timestamp)
	}
	return ts, nil
}

// Decode parses a JSON envelope.
func Decode(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Encode serializes the event back to its wire form.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// section returns a nested object from the data payload, or nil if the
// key is absent or not an object.
func (e *Event) section(key string) map[string]any {
	if e.Data == nil {
		return nil
	}
	m, _ := e.Data[key].(map[string]any)
	return m
}

// decodeSection round-trips a payload section through JSON into a typed
// struct. Returns false when the section is absent.
func decodeSection[T any](m map[string]any) (*T, bool) {
	if m == nil {
		return nil, false
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}
