// Package policy implements the claims-based authorization meta-engine
// layered over the event model: an atomic Claim vocabulary, Roles that
// aggregate claims under a stated purpose with a mutual-exclusion list,
// Policies that attach conditions and a priority to a role, and Bindings
// that attach a policy to an entity for a temporal window.
package policy

import (
	"time"

	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// Claim is an atomic permission: category + resource + action, optionally
// narrowed by a scope.
type Claim struct {
	ID       string
	Category string
	Resource string
	Action   string
	Scope    string
}

// Role aggregates claims under a stated purpose. MutuallyExclusiveRoleIDs
// enforces separation of duties: an entity already bound to one of these
// roles cannot also be bound to this one.
type Role struct {
	ID                       string
	Purpose                  string
	ClaimIDs                 []string
	MutuallyExclusiveRoleIDs []string
}

// Policy attaches conditions and a priority to a role. Only an Active policy
// contributes to evaluation.
type Policy struct {
	ID         ids.ID
	RoleID     string
	Conditions []string
	Priority   int
	State      state.State
}

// Binding attaches a policy to an entity for a validity window.
type Binding struct {
	ID         ids.ID
	PolicyID   ids.ID
	EntityID   ids.ID
	EntityType string
	ValidFrom  time.Time
	ValidUntil *time.Time
}

// Registry is the in-memory claim/role/policy/binding vocabulary consulted
// by domain/command when handling policy commands and by evaluation.
type Registry struct {
	Claims   map[string]Claim
	Roles    map[string]Role
	Policies map[ids.ID]Policy
	Bindings map[ids.ID]Binding

	bindingsByEntity map[ids.ID][]ids.ID
}

// NewRegistry returns an empty claim/role/policy/binding vocabulary.
func NewRegistry() *Registry {
	return &Registry{
		Claims:           make(map[string]Claim),
		Roles:            make(map[string]Role),
		Policies:         make(map[ids.ID]Policy),
		Bindings:         make(map[ids.ID]Binding),
		bindingsByEntity: make(map[ids.ID][]ids.ID),
	}
}

// DefineClaim adds an atomic permission to the vocabulary.
func (r *Registry) DefineClaim(c Claim) error {
	if c.ID == "" {
		return xerrors.InvariantViolated("policy: claim id must not be empty")
	}
	r.Claims[c.ID] = c
	return nil
}

// DefineRole aggregates claims under a purpose; every referenced claim must
// already exist.
func (r *Registry) DefineRole(role Role) error {
	for _, claimID := range role.ClaimIDs {
		if _, ok := r.Claims[claimID]; !ok {
			return xerrors.AggregateNotFound("Claim", claimID)
		}
	}
	r.Roles[role.ID] = role
	return nil
}

// CreatePolicy introduces a policy in state Draft, bound to an existing role.
func (r *Registry) CreatePolicy(p Policy) (Policy, error) {
	if _, ok := r.Roles[p.RoleID]; !ok {
		return Policy{}, xerrors.AggregateNotFound("Role", p.RoleID)
	}
	p.State = state.PolicyDraft
	r.Policies[p.ID] = p
	return p, nil
}

// Activate transitions a policy Draft -> Active, requiring its role to carry
// at least one claim.
func (r *Registry) Activate(policyID ids.ID) (Policy, error) {
	p, ok := r.Policies[policyID]
	if !ok {
		return Policy{}, xerrors.AggregateNotFound("Policy", policyID.String())
	}
	to, err := state.PolicyMachine.Transition(p.State, state.PolicyActive)
	if err != nil {
		return Policy{}, err
	}
	role := r.Roles[p.RoleID]
	if len(role.ClaimIDs) == 0 {
		return Policy{}, xerrors.InvariantViolated("policy: cannot activate a policy whose role carries no claims")
	}
	p.State = to
	r.Policies[policyID] = p
	return p, nil
}

// Suspend transitions a policy Active/Modified -> Suspended.
func (r *Registry) Suspend(policyID ids.ID) (Policy, error) {
	p, ok := r.Policies[policyID]
	if !ok {
		return Policy{}, xerrors.AggregateNotFound("Policy", policyID.String())
	}
	to, err := state.PolicyMachine.Transition(p.State, state.PolicySuspended)
	if err != nil {
		return Policy{}, err
	}
	p.State = to
	r.Policies[policyID] = p
	return p, nil
}

// Revoke transitions a policy to its terminal Revoked state.
func (r *Registry) Revoke(policyID ids.ID) (Policy, error) {
	p, ok := r.Policies[policyID]
	if !ok {
		return Policy{}, xerrors.AggregateNotFound("Policy", policyID.String())
	}
	to, err := state.PolicyMachine.Transition(p.State, state.PolicyRevoked)
	if err != nil {
		return Policy{}, err
	}
	p.State = to
	r.Policies[policyID] = p
	return p, nil
}

// Bind attaches an Active policy to an entity, refusing the bind if the
// entity already holds a role declared mutually exclusive with this one.
func (r *Registry) Bind(b Binding) (Binding, error) {
	p, ok := r.Policies[b.PolicyID]
	if !ok {
		return Binding{}, xerrors.AggregateNotFound("Policy", b.PolicyID.String())
	}
	if p.State != state.PolicyActive {
		return Binding{}, xerrors.InvariantViolated("policy: cannot bind an inactive policy")
	}
	role := r.Roles[p.RoleID]

	for _, existingID := range r.bindingsByEntity[b.EntityID] {
		existing := r.Bindings[existingID]
		existingPolicy := r.Policies[existing.PolicyID]
		existingRole := r.Roles[existingPolicy.RoleID]
		if containsString(role.MutuallyExclusiveRoleIDs, existingRole.ID) || containsString(existingRole.MutuallyExclusiveRoleIDs, role.ID) {
			return Binding{}, xerrors.InvariantViolated("policy: role " + role.ID + " is mutually exclusive with already-bound role " + existingRole.ID)
		}
	}

	r.Bindings[b.ID] = b
	r.bindingsByEntity[b.EntityID] = append(r.bindingsByEntity[b.EntityID], b.ID)
	return b, nil
}

// GrantedClaims returns the union of claims granted to entityID at time at:
// every claim reachable through an Active, temporally-valid binding.
// Conditions are opaque tags: neither Bind nor GrantedClaims evaluates them,
// so a binding's claims are granted whatever its condition list holds.
func (r *Registry) GrantedClaims(entityID ids.ID, at time.Time) []string {
	granted := make(map[string]bool)
	for _, bindingID := range r.bindingsByEntity[entityID] {
		b := r.Bindings[bindingID]
		if at.Before(b.ValidFrom) {
			continue
		}
		if b.ValidUntil != nil && at.After(*b.ValidUntil) {
			continue
		}
		p, ok := r.Policies[b.PolicyID]
		if !ok || p.State != state.PolicyActive {
			continue
		}
		role := r.Roles[p.RoleID]
		for _, claimID := range role.ClaimIDs {
			granted[claimID] = true
		}
	}
	claims := make([]string, 0, len(granted))
	for claimID := range granted {
		claims = append(claims, claimID)
	}
	return claims
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
