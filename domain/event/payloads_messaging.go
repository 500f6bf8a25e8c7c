package event

import "github.com/cowboyai/genesis-issuer/internal/ids"

const (
	KindNatsOperatorCreated    Kind = "NatsOperatorCreated"
	KindNatsOperatorSuspended  Kind = "NatsOperatorSuspended"
	KindNatsOperatorReactivated Kind = "NatsOperatorReactivated"
	KindNatsOperatorRevoked    Kind = "NatsOperatorRevoked"

	KindNatsAccountCreated     Kind = "NatsAccountCreated"
	KindNatsAccountSuspended   Kind = "NatsAccountSuspended"
	KindNatsAccountReactivated Kind = "NatsAccountReactivated"
	KindNatsAccountDeleted     Kind = "NatsAccountDeleted"

	KindNatsUserCreated     Kind = "NatsUserCreated"
	KindNatsUserSuspended   Kind = "NatsUserSuspended"
	KindNatsUserReactivated Kind = "NatsUserReactivated"
	KindNatsUserDeleted     Kind = "NatsUserDeleted"

	KindNatsSigningKeyGenerated Kind = "NatsSigningKeyGenerated"
	KindNatsPermissionsSet      Kind = "NatsPermissionsSet"
	KindNatsConfigExported      Kind = "NatsConfigExported"

	KindServiceAccountCreated   Kind = "ServiceAccountCreated"
	KindAgentCreated            Kind = "AgentCreated"
	KindAccountabilityValidated Kind = "AccountabilityValidated"
	KindAccountabilityViolated  Kind = "AccountabilityViolated"
)

// Permissions mirrors the NATS permission model carried by account and user tokens.
type Permissions struct {
	Publish     []string `json:"publish,omitempty"`
	Subscribe   []string `json:"subscribe,omitempty"`
	MaxPayload  int64    `json:"max_payload,omitempty"`
	AllowResponses bool  `json:"allow_responses,omitempty"`
}

// Limits mirrors the NATS connection/subscription limits carried by account tokens.
type Limits struct {
	MaxConnections  int `json:"max_connections,omitempty"`
	MaxSubscriptions int `json:"max_subscriptions,omitempty"`
}

// NatsOperatorCreated records the root of the messaging-identity hierarchy.
// The operator token is self-signed: it is the trust anchor.
type NatsOperatorCreated struct {
	OperatorID     ids.ID `json:"operator_id"`
	OrganizationID ids.ID `json:"organization_id"`
	Name           string `json:"name"`
	PublicKey      string `json:"public_key"` // nkey-encoded
	SignerPublicKey string `json:"signer_public_key"` // == PublicKey for an operator
	JWT            string `json:"-"` // never persisted in the durable projection; export-only
}

func (NatsOperatorCreated) Kind() Kind { return KindNatsOperatorCreated }

type NatsOperatorSuspended struct {
	OperatorID ids.ID `json:"operator_id"`
	Reason     string `json:"reason"`
}

func (NatsOperatorSuspended) Kind() Kind { return KindNatsOperatorSuspended }

type NatsOperatorReactivated struct {
	OperatorID ids.ID `json:"operator_id"`
}

func (NatsOperatorReactivated) Kind() Kind { return KindNatsOperatorReactivated }

// NatsOperatorRevoked is terminal. Descendant account and user records are
// not changed; the only effect on them is that no new account can be created
// under a non-Active operator.
type NatsOperatorRevoked struct {
	OperatorID ids.ID `json:"operator_id"`
	Reason     string `json:"reason"`
}

func (NatsOperatorRevoked) Kind() Kind { return KindNatsOperatorRevoked }

// NatsAccountCreated records an account signed by its parent operator's
// signing key — never self-signed; see design notes on the legacy defect.
type NatsAccountCreated struct {
	AccountID       ids.ID       `json:"account_id"`
	OperatorID      ids.ID       `json:"operator_id"`
	Name            string       `json:"name"`
	UnitID          *ids.ID      `json:"unit_id,omitempty"`
	IsSystem        bool         `json:"is_system"`
	PublicKey       string       `json:"public_key"`
	SignerPublicKey string       `json:"signer_public_key"` // == operator public key
	Permissions     Permissions  `json:"permissions"`
	Limits          Limits       `json:"limits"`
}

func (NatsAccountCreated) Kind() Kind { return KindNatsAccountCreated }

type NatsAccountSuspended struct {
	AccountID ids.ID `json:"account_id"`
	Reason    string `json:"reason"`
}

func (NatsAccountSuspended) Kind() Kind { return KindNatsAccountSuspended }

type NatsAccountReactivated struct {
	AccountID ids.ID `json:"account_id"`
}

func (NatsAccountReactivated) Kind() Kind { return KindNatsAccountReactivated }

type NatsAccountDeleted struct {
	AccountID ids.ID `json:"account_id"`
	Reason    string `json:"reason"`
}

func (NatsAccountDeleted) Kind() Kind { return KindNatsAccountDeleted }

// NatsUserCreated records a user signed by its parent account's signing key.
// Owner is either a Person, or a ServiceAccount/Agent carrying a mandatory
// ResponsiblePersonID (enforced before this event is ever constructed; see
// AccountabilityViolated for the rejection path).
type NatsUserCreated struct {
	UserID              ids.ID      `json:"user_id"`
	AccountID           ids.ID      `json:"account_id"`
	Name                string      `json:"name"`
	OwnerPersonID       *ids.ID     `json:"owner_person_id,omitempty"`
	OwnerServiceAccountID *ids.ID   `json:"owner_service_account_id,omitempty"`
	OwnerAgentID        *ids.ID     `json:"owner_agent_id,omitempty"`
	PublicKey           string      `json:"public_key"`
	SignerPublicKey     string      `json:"signer_public_key"` // == account public key
	Permissions         Permissions `json:"permissions"`
	Limits              Limits      `json:"limits"`
}

func (NatsUserCreated) Kind() Kind { return KindNatsUserCreated }

type NatsUserSuspended struct {
	UserID ids.ID `json:"user_id"`
	Reason string `json:"reason"`
}

func (NatsUserSuspended) Kind() Kind { return KindNatsUserSuspended }

type NatsUserReactivated struct {
	UserID ids.ID `json:"user_id"`
}

func (NatsUserReactivated) Kind() Kind { return KindNatsUserReactivated }

type NatsUserDeleted struct {
	UserID ids.ID `json:"user_id"`
	Reason string `json:"reason"`
}

func (NatsUserDeleted) Kind() Kind { return KindNatsUserDeleted }

// NatsSigningKeyGenerated records an additional signing keypair issued to an
// operator or account beyond its primary identity key (NSC convention).
type NatsSigningKeyGenerated struct {
	OwnerID   ids.ID `json:"owner_id"`
	OwnerKind string `json:"owner_kind"` // "operator" | "account"
	PublicKey string `json:"public_key"`
}

func (NatsSigningKeyGenerated) Kind() Kind { return KindNatsSigningKeyGenerated }

// NatsPermissionsSet records a permission/limit update applied to an
// existing account or user, re-signed by the same signer as at creation.
type NatsPermissionsSet struct {
	OwnerID     ids.ID      `json:"owner_id"`
	OwnerKind   string      `json:"owner_kind"` // "account" | "user"
	Permissions Permissions `json:"permissions"`
	Limits      Limits      `json:"limits"`
}

func (NatsPermissionsSet) Kind() Kind { return KindNatsPermissionsSet }

// NatsConfigExported records that the deployable NSC-compatible directory
// layout was written to destination.
type NatsConfigExported struct {
	OperatorID  ids.ID `json:"operator_id"`
	Destination string `json:"destination"`
}

func (NatsConfigExported) Kind() Kind { return KindNatsConfigExported }

// ServiceAccountCreated introduces a non-human automated identity that MUST
// carry a responsible person (enforced by the aggregate before emission).
type ServiceAccountCreated struct {
	ServiceAccountID    ids.ID `json:"service_account_id"`
	Name                string `json:"name"`
	Purpose             string `json:"purpose"`
	UnitID              ids.ID `json:"unit_id"`
	ResponsiblePersonID ids.ID `json:"responsible_person_id"`
}

func (ServiceAccountCreated) Kind() Kind { return KindServiceAccountCreated }

// AgentCreated is ServiceAccountCreated's counterpart for
// autonomous (non-human-operated, non-request-scoped) agents.
type AgentCreated struct {
	AgentID             ids.ID `json:"agent_id"`
	Name                string `json:"name"`
	Purpose             string `json:"purpose"`
	UnitID              ids.ID `json:"unit_id"`
	ResponsiblePersonID ids.ID `json:"responsible_person_id"`
}

func (AgentCreated) Kind() Kind { return KindAgentCreated }

// AccountabilityValidated is an audit-trail fact recording that a
// responsible-person check passed for an automated identity.
type AccountabilityValidated struct {
	EntityType          string `json:"entity_type"`
	EntityID             ids.ID `json:"entity_id"`
	ResponsiblePersonID ids.ID `json:"responsible_person_id"`
}

func (AccountabilityValidated) Kind() Kind { return KindAccountabilityValidated }

// AccountabilityViolated is emitted, and the triggering command rejected,
// whenever a service account or agent creation lacks a responsible person.
type AccountabilityViolated struct {
	EntityType string `json:"entity_type"`
	AttemptedName string `json:"attempted_name"`
}

func (AccountabilityViolated) Kind() Kind { return KindAccountabilityViolated }
