// Package event defines the immutable fact records emitted by the aggregate:
// the envelope (identity, correlation, causation, content hash) and the
// variant-discriminated domain payloads catalogued in payloads_*.go.
package event

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// Kind discriminates the payload variant carried by an Event. Event handling
// is centralized dispatch-table style (kind -> handler), not per-kind
// polymorphism, so a new Kind only needs a payload in payloads_*.go, an entry
// in codec.go's factory registry and one in the projection's dispatch table.
type Kind string

// Payload is implemented by every event variant. Kind lets a dispatcher
// recover the concrete type without a type switch on every call site.
type Payload interface {
	Kind() Kind
}

// Envelope carries everything needed to verify and order an event without
// inspecting its payload.
type Envelope struct {
	EventID       ids.ID `json:"event_id"`
	AggregateID   ids.ID `json:"aggregate_id"`
	CorrelationID ids.ID `json:"correlation_id"`
	CausationID   ids.ID `json:"causation_id"`
	ContentID     string `json:"content_id"`
}

// Event is one immutable fact: an envelope plus its discriminated payload.
type Event struct {
	Envelope
	Kind    Kind    `json:"kind"`
	Payload Payload `json:"payload"`
}

// Batch accumulates the events produced by a single command, assigning a
// shared correlation ID and threading causation from one event to the next.
// The first event emitted self-references as its own cause (a root event);
// every event after it is caused by the one before.
type Batch struct {
	aggregateID   ids.ID
	correlationID ids.ID
	lastEventID   ids.ID
	events        []Event
}

// NewBatch starts a batch for aggregateID. If correlationID is ids.Nil, a
// fresh correlation ID is minted. The batch's first event is always a root
// event (causation_id == event_id).
func NewBatch(aggregateID ids.ID, correlationID ids.ID) *Batch {
	if correlationID == ids.Nil {
		correlationID = ids.New()
	}
	return &Batch{aggregateID: aggregateID, correlationID: correlationID}
}

// Emit appends a new event to the batch, deriving its content ID and wiring
// causation to the previously emitted event (or to itself, for the first).
func (b *Batch) Emit(payload Payload) (Event, error) {
	contentID, err := ContentID(payload)
	if err != nil {
		return Event{}, fmt.Errorf("event: compute content id: %w", err)
	}

	eventID := ids.New()
	causationID := eventID
	if len(b.events) > 0 {
		causationID = b.lastEventID
	}

	ev := Event{
		Envelope: Envelope{
			EventID:       eventID,
			AggregateID:   b.aggregateID,
			CorrelationID: b.correlationID,
			CausationID:   causationID,
			ContentID:     contentID,
		},
		Kind:    payload.Kind(),
		Payload: payload,
	}

	b.events = append(b.events, ev)
	b.lastEventID = eventID
	return ev, nil
}

// Events returns the accumulated events in emission order.
func (b *Batch) Events() []Event {
	return b.events
}

// CorrelationID returns the correlation ID shared by every event in the batch.
func (b *Batch) CorrelationID() ids.ID {
	return b.correlationID
}

// ContentID computes the content-addressable identifier of a payload: the
// "sha256:"-prefixed hex SHA-256 of its canonical JSON encoding. encoding/json already
// serializes Go structs in field-declaration order (it never reorders
// struct fields, unlike map keys), so marshaling a concrete payload struct
// is a deterministic, canonical encoding without a dedicated canonicalization
// library; callers must not embed map[string]any in a payload, since Go's
// json package sorts map keys lexicographically, which is deterministic
// only as long as keys are unique plain strings (true for all payloads below).
func ContentID(payload Payload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("event: marshal payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum), nil
}

// VerifyContentID reports whether payload's canonical hash matches want.
func VerifyContentID(payload Payload, want string) error {
	got, err := ContentID(payload)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("event: content id mismatch: want %s got %s", want, got)
	}
	return nil
}
