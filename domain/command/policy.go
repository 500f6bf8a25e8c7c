package command

import (
	"time"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/policy"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// DefineClaim adds an atomic permission to the claim vocabulary.
type DefineClaim struct {
	ClaimID  string
	Category string
	Resource string
	Action   string
	Scope    string
}

func (c DefineClaim) Handle(a *Aggregate) ([]event.Event, error) {
	if err := a.Projection.Policy.DefineClaim(policy.Claim{
		ID: c.ClaimID, Category: c.Category, Resource: c.Resource, Action: c.Action, Scope: c.Scope,
	}); err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.ClaimDefined{ClaimID: c.ClaimID, Category: c.Category, Resource: c.Resource, Action: c.Action, Scope: c.Scope})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// DefineRole aggregates claims under a purpose, with an optional
// mutual-exclusion list.
type DefineRole struct {
	RoleID                   string
	Purpose                  string
	ClaimIDs                 []string
	MutuallyExclusiveRoleIDs []string
}

func (c DefineRole) Handle(a *Aggregate) ([]event.Event, error) {
	if err := a.Projection.Policy.DefineRole(policy.Role{
		ID: c.RoleID, Purpose: c.Purpose, ClaimIDs: c.ClaimIDs, MutuallyExclusiveRoleIDs: c.MutuallyExclusiveRoleIDs,
	}); err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.RoleDefined{
		RoleID: c.RoleID, Purpose: c.Purpose, ClaimIDs: c.ClaimIDs, MutuallyExclusiveRoleIDs: c.MutuallyExclusiveRoleIDs,
	})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// CreatePolicy introduces a policy in state Draft, bound to an existing role.
type CreatePolicy struct {
	RoleID     string
	Conditions []string
	Priority   int
}

func (c CreatePolicy) Handle(a *Aggregate) ([]event.Event, error) {
	policyID := ids.New()
	if _, err := a.Projection.Policy.CreatePolicy(policy.Policy{
		ID: policyID, RoleID: c.RoleID, Conditions: c.Conditions, Priority: c.Priority,
	}); err != nil {
		return nil, err
	}

	b := newBatch(policyID, ids.Nil)
	ev, err := b.Emit(event.PolicyCreated{PolicyID: policyID, RoleID: c.RoleID, Conditions: c.Conditions, Priority: c.Priority})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// ActivatePolicy transitions a policy Draft -> Active.
type ActivatePolicy struct {
	PolicyID ids.ID
}

func (c ActivatePolicy) Handle(a *Aggregate) ([]event.Event, error) {
	if _, err := a.Projection.Policy.Activate(c.PolicyID); err != nil {
		return nil, err
	}

	b := newBatch(c.PolicyID, ids.Nil)
	ev, err := b.Emit(event.PolicyActivated{PolicyID: c.PolicyID})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// SuspendPolicy transitions a policy Active/Modified -> Suspended.
type SuspendPolicy struct {
	PolicyID ids.ID
	Reason   string
}

func (c SuspendPolicy) Handle(a *Aggregate) ([]event.Event, error) {
	if _, err := a.Projection.Policy.Suspend(c.PolicyID); err != nil {
		return nil, err
	}

	b := newBatch(c.PolicyID, ids.Nil)
	ev, err := b.Emit(event.PolicySuspended{PolicyID: c.PolicyID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// RevokePolicy transitions a policy to its terminal Revoked state.
type RevokePolicy struct {
	PolicyID ids.ID
	Reason   string
}

func (c RevokePolicy) Handle(a *Aggregate) ([]event.Event, error) {
	if _, err := a.Projection.Policy.Revoke(c.PolicyID); err != nil {
		return nil, err
	}

	b := newBatch(c.PolicyID, ids.Nil)
	ev, err := b.Emit(event.PolicyRevoked{PolicyID: c.PolicyID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// CreatePolicyBinding attaches an Active policy to an entity for a validity
// window; rejected without emitting an event if the entity already holds a
// mutually-exclusive role.
type CreatePolicyBinding struct {
	PolicyID   ids.ID
	EntityID   ids.ID
	EntityType string
	ValidFrom  time.Time
	ValidUntil *time.Time
}

func (c CreatePolicyBinding) Handle(a *Aggregate) ([]event.Event, error) {
	bindingID := ids.New()
	if _, err := a.Projection.Policy.Bind(policy.Binding{
		ID: bindingID, PolicyID: c.PolicyID, EntityID: c.EntityID, EntityType: c.EntityType,
		ValidFrom: c.ValidFrom, ValidUntil: c.ValidUntil,
	}); err != nil {
		return nil, err
	}

	validFrom := c.ValidFrom.Format(time.RFC3339)
	var validUntil *string
	if c.ValidUntil != nil {
		s := c.ValidUntil.Format(time.RFC3339)
		validUntil = &s
	}

	b := newBatch(bindingID, ids.Nil)
	ev, err := b.Emit(event.PolicyBindingCreated{
		BindingID: bindingID, PolicyID: c.PolicyID, EntityID: c.EntityID, EntityType: c.EntityType,
		ValidFrom: validFrom, ValidUntil: validUntil,
	})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}
