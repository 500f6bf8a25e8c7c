package command

import (
	"time"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// Aggregate is the sole mutator of a Projection: every command is handled
// by a method here, which resolves aggregate(s) from the projection,
// consults the matching state machine, invokes the relevant engine (pki,
// piv, messaging) to produce derived material, and emits events with
// correct correlation/causation. Handlers apply their own emitted events to
// Projection before returning, so a subsequent command in the same session
// observes the effect immediately — mirroring how the durable projection
// writer will apply the same events on replay.
type Aggregate struct {
	Projection *Projection

	// HashFunc hashes smartcard PINs/PUKs before they are retained in the
	// projection; callers supply this so the engine never chooses its own
	// hash algorithm out of band from the rest of the deployment.
	HashFunc func(string) []byte

	// now is overridable in tests; production code leaves it nil and gets
	// the wall clock. Only used for operation-time fields that are not
	// derivable from a newly minted event ID, e.g. exported_at, revoked_at.
	now func() time.Time
}

// NewAggregate returns an Aggregate over projection, ready to handle commands.
func NewAggregate(projection *Projection, hashFunc func(string) []byte) *Aggregate {
	return &Aggregate{Projection: projection, HashFunc: hashFunc}
}

func (a *Aggregate) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now().UTC()
}

// newBatch starts an event batch for aggregateID. Passing ids.Nil starts a
// fresh correlation scope for a root command; handlers that emit events for
// several aggregates in one logical operation pass one shared correlation id
// to each newBatch call (see CreatePkiHierarchy).
func newBatch(aggregateID ids.ID, correlationID ids.ID) *event.Batch {
	return event.NewBatch(aggregateID, correlationID)
}
