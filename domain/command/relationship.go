package command

import (
	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// ProposeRelationship introduces an edge between two entities in state Proposed.
type ProposeRelationship struct {
	SourceID   ids.ID
	TargetID   ids.ID
	Type       string
	ValidFrom  string
	ValidUntil *string
	Strength   float64
}

func (c ProposeRelationship) Handle(a *Aggregate) ([]event.Event, error) {
	relationshipID := ids.New()
	b := newBatch(relationshipID, ids.Nil)
	ev, err := b.Emit(event.RelationshipProposed{
		RelationshipID: relationshipID, SourceID: c.SourceID, TargetID: c.TargetID, Type: c.Type,
		ValidFrom: c.ValidFrom, ValidUntil: c.ValidUntil, Strength: c.Strength,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Relationships[relationshipID] = &RelationshipState{ID: relationshipID, State: state.RelationshipProposed}
	return []event.Event{ev}, nil
}

// ActivateRelationship transitions Proposed -> Active.
type ActivateRelationship struct {
	RelationshipID ids.ID
}

func (c ActivateRelationship) Handle(a *Aggregate) ([]event.Event, error) {
	rel, ok := a.Projection.Relationships[c.RelationshipID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Relationship", c.RelationshipID.String())
	}
	to, err := state.RelationshipMachine.Transition(rel.State, state.RelationshipActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.RelationshipID, ids.Nil)
	ev, err := b.Emit(event.RelationshipActivated{RelationshipID: c.RelationshipID})
	if err != nil {
		return nil, err
	}
	rel.State = to
	return []event.Event{ev}, nil
}

// ModifyRelationship records a metadata change and transitions Active -> Modified.
type ModifyRelationship struct {
	RelationshipID ids.ID
	Metadata       map[string]string
}

func (c ModifyRelationship) Handle(a *Aggregate) ([]event.Event, error) {
	rel, ok := a.Projection.Relationships[c.RelationshipID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Relationship", c.RelationshipID.String())
	}
	to, err := state.RelationshipMachine.Transition(rel.State, state.RelationshipModified)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.RelationshipID, ids.Nil)
	ev, err := b.Emit(event.RelationshipModified{RelationshipID: c.RelationshipID, Metadata: c.Metadata})
	if err != nil {
		return nil, err
	}
	rel.State = to
	return []event.Event{ev}, nil
}

// SuspendRelationship transitions Active/Modified -> Suspended.
type SuspendRelationship struct {
	RelationshipID ids.ID
	Reason         string
}

func (c SuspendRelationship) Handle(a *Aggregate) ([]event.Event, error) {
	rel, ok := a.Projection.Relationships[c.RelationshipID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Relationship", c.RelationshipID.String())
	}
	to, err := state.RelationshipMachine.Transition(rel.State, state.RelationshipSuspended)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.RelationshipID, ids.Nil)
	ev, err := b.Emit(event.RelationshipSuspended{RelationshipID: c.RelationshipID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	rel.State = to
	return []event.Event{ev}, nil
}

// TerminateRelationship is a near-terminal transition, reachable from any
// non-terminal relationship state; only Archive follows it.
type TerminateRelationship struct {
	RelationshipID ids.ID
	Reason         string
}

func (c TerminateRelationship) Handle(a *Aggregate) ([]event.Event, error) {
	rel, ok := a.Projection.Relationships[c.RelationshipID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Relationship", c.RelationshipID.String())
	}
	to, err := state.RelationshipMachine.Transition(rel.State, state.RelationshipTerminated)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.RelationshipID, ids.Nil)
	ev, err := b.Emit(event.RelationshipTerminated{RelationshipID: c.RelationshipID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	rel.State = to
	return []event.Event{ev}, nil
}

// ArchiveRelationship is the terminal transition for a relationship edge.
type ArchiveRelationship struct {
	RelationshipID ids.ID
}

func (c ArchiveRelationship) Handle(a *Aggregate) ([]event.Event, error) {
	rel, ok := a.Projection.Relationships[c.RelationshipID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Relationship", c.RelationshipID.String())
	}
	to, err := state.RelationshipMachine.Transition(rel.State, state.RelationshipArchived)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.RelationshipID, ids.Nil)
	ev, err := b.Emit(event.RelationshipArchived{RelationshipID: c.RelationshipID})
	if err != nil {
		return nil, err
	}
	rel.State = to
	return []event.Event{ev}, nil
}
