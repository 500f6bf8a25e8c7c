package event

import "github.com/cowboyai/genesis-issuer/internal/ids"

const (
	KindRelationshipProposed   Kind = "RelationshipProposed"
	KindRelationshipActivated  Kind = "RelationshipActivated"
	KindRelationshipModified   Kind = "RelationshipModified"
	KindRelationshipSuspended  Kind = "RelationshipSuspended"
	KindRelationshipTerminated Kind = "RelationshipTerminated"
	KindRelationshipArchived   Kind = "RelationshipArchived"

	KindClaimDefined          Kind = "ClaimDefined"
	KindRoleDefined           Kind = "RoleDefined"
	KindPolicyCreated         Kind = "PolicyCreated"
	KindPolicyActivated       Kind = "PolicyActivated"
	KindPolicySuspended       Kind = "PolicySuspended"
	KindPolicyRevoked         Kind = "PolicyRevoked"
	KindPolicyBindingCreated  Kind = "PolicyBindingCreated"

	KindManifestCreated Kind = "ManifestCreated"
)

// RelationshipProposed introduces an edge between two entities in state Proposed.
type RelationshipProposed struct {
	RelationshipID ids.ID  `json:"relationship_id"`
	SourceID       ids.ID  `json:"source_id"`
	TargetID       ids.ID  `json:"target_id"`
	Type           string  `json:"type"`
	ValidFrom      string  `json:"valid_from"` // RFC3339
	ValidUntil     *string `json:"valid_until,omitempty"`
	Strength       float64 `json:"strength"`
}

func (RelationshipProposed) Kind() Kind { return KindRelationshipProposed }

type RelationshipActivated struct {
	RelationshipID ids.ID `json:"relationship_id"`
}

func (RelationshipActivated) Kind() Kind { return KindRelationshipActivated }

type RelationshipModified struct {
	RelationshipID ids.ID            `json:"relationship_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (RelationshipModified) Kind() Kind { return KindRelationshipModified }

type RelationshipSuspended struct {
	RelationshipID ids.ID `json:"relationship_id"`
	Reason         string `json:"reason"`
}

func (RelationshipSuspended) Kind() Kind { return KindRelationshipSuspended }

type RelationshipTerminated struct {
	RelationshipID ids.ID `json:"relationship_id"`
	Reason         string `json:"reason"`
}

func (RelationshipTerminated) Kind() Kind { return KindRelationshipTerminated }

type RelationshipArchived struct {
	RelationshipID ids.ID `json:"relationship_id"`
}

func (RelationshipArchived) Kind() Kind { return KindRelationshipArchived }

// ClaimDefined introduces an atomic permission into the claim vocabulary.
type ClaimDefined struct {
	ClaimID  string `json:"claim_id"`
	Category string `json:"category"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Scope    string `json:"scope,omitempty"`
}

func (ClaimDefined) Kind() Kind { return KindClaimDefined }

// RoleDefined aggregates claims under a stated purpose, with an optional
// mutual-exclusion list enforcing separation of duties at bind time.
type RoleDefined struct {
	RoleID                string   `json:"role_id"`
	Purpose                string   `json:"purpose"`
	ClaimIDs               []string `json:"claim_ids"`
	MutuallyExclusiveRoleIDs []string `json:"mutually_exclusive_role_ids,omitempty"`
}

func (RoleDefined) Kind() Kind { return KindRoleDefined }

// PolicyCreated introduces a policy in state Draft.
type PolicyCreated struct {
	PolicyID   ids.ID  `json:"policy_id"`
	RoleID     string  `json:"role_id"`
	Conditions []string `json:"conditions,omitempty"`
	Priority   int     `json:"priority"`
}

func (PolicyCreated) Kind() Kind { return KindPolicyCreated }

// PolicyActivated transitions a policy Draft -> Active; the aggregate checks
// before emission that its role grants >=1 claim. Conditions are not checked.
type PolicyActivated struct {
	PolicyID ids.ID `json:"policy_id"`
}

func (PolicyActivated) Kind() Kind { return KindPolicyActivated }

type PolicySuspended struct {
	PolicyID ids.ID `json:"policy_id"`
	Reason   string `json:"reason"`
}

func (PolicySuspended) Kind() Kind { return KindPolicySuspended }

// PolicyRevoked is terminal.
type PolicyRevoked struct {
	PolicyID ids.ID `json:"policy_id"`
	Reason   string `json:"reason"`
}

func (PolicyRevoked) Kind() Kind { return KindPolicyRevoked }

// PolicyBindingCreated binds an active policy to an entity. Rejected (no
// event emitted) if the entity already holds a mutually-exclusive role.
type PolicyBindingCreated struct {
	BindingID  ids.ID  `json:"binding_id"`
	PolicyID   ids.ID  `json:"policy_id"`
	EntityID   ids.ID  `json:"entity_id"`
	EntityType string  `json:"entity_type"`
	ValidFrom  string  `json:"valid_from"`
	ValidUntil *string `json:"valid_until,omitempty"`
}

func (PolicyBindingCreated) Kind() Kind { return KindPolicyBindingCreated }

// ManifestCreated seals the projection's manifest on first write.
type ManifestCreated struct {
	OrganizationID ids.ID `json:"organization_id"`
	RootPath       string `json:"root_path"`
}

func (ManifestCreated) Kind() Kind { return KindManifestCreated }
