// Package command implements the command/aggregate layer: command value
// objects, the in-memory Projection used to resolve aggregates and check
// state-machine legality, and an Aggregate that invokes the PKI, PIV and
// messaging engines to produce derived material before emitting events.
// Handlers never panic on domain-input error; see internal/xerrors.
package command

import (
	"crypto"
	"crypto/x509"

	"github.com/nats-io/nkeys"

	"github.com/cowboyai/genesis-issuer/domain/policy"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// PersonState is the in-memory view of a Person needed for guard checks.
type PersonState struct {
	ID    ids.ID
	State state.State
	Roles []string
}

// LocationState is the in-memory view of a Location.
type LocationState struct {
	ID           ids.ID
	State        state.State
	AssetsStored int
}

// KeyState is the in-memory view of a Key, including its private material
// when held in software (nil when the key lives only on a smartcard).
type KeyState struct {
	ID      ids.ID
	State   state.State
	OwnerID *ids.ID
	Private crypto.Signer
}

// CertificateState is the in-memory view of a Certificate, including its
// parsed form and signer, so it can act as a parent for further issuance.
type CertificateState struct {
	ID                ids.ID
	State             state.State
	IssuerCertID      *ids.ID
	IsCA              bool
	PathLenConstraint *int
	Cert              *x509.Certificate
	Signer            crypto.Signer
}

// SmartcardSlotState is the in-memory view of one PIV slot on a smartcard.
type SmartcardSlotState struct {
	Allocated          bool
	Provisioned        bool
	PersonID           ids.ID
	Purpose            string
	PublicKey          crypto.PublicKey
	AttestationCertDER []byte
}

// SmartcardState is the in-memory view of a Smartcard.
type SmartcardState struct {
	Serial                  string
	State                   state.State
	PinHash                 []byte
	PukHash                 []byte
	ManagementKeyAlgorithm  string
	Slots                   map[string]*SmartcardSlotState
}

// MessagingOperatorState is the in-memory view of a MessagingOperator,
// retaining its keypair so it can sign descendant account tokens.
type MessagingOperatorState struct {
	ID        ids.ID
	State     state.State
	PublicKey string
	KeyPair   nkeys.KeyPair
}

// MessagingAccountState is the in-memory view of a MessagingAccount,
// retaining its keypair so it can sign descendant user tokens.
type MessagingAccountState struct {
	ID         ids.ID
	OperatorID ids.ID
	State      state.State
	PublicKey  string
	KeyPair    nkeys.KeyPair
}

// MessagingUserState is the in-memory view of a MessagingUser.
type MessagingUserState struct {
	ID        ids.ID
	AccountID ids.ID
	State     state.State
	PublicKey string
}

// ServiceIdentityState tracks a ServiceAccount or Agent for accountability
// enforcement: every non-human identity must carry a non-null responsible person.
type ServiceIdentityState struct {
	ID                  ids.ID
	ResponsiblePersonID ids.ID
}

// RelationshipState is the in-memory view of a Relationship edge.
type RelationshipState struct {
	ID    ids.ID
	State state.State
}

// Projection is the aggregate's sole view of prior history: every command
// handler resolves its target(s) from here and consults the matching state
// machine before invoking an engine. It is built up by the command handlers
// themselves and held in memory for the lifetime of a command session; it is
// not rebuilt from the event log or from the on-disk projection.
type Projection struct {
	OrganizationID ids.ID

	Units                map[ids.ID]bool
	People               map[ids.ID]*PersonState
	Locations            map[ids.ID]*LocationState
	Keys                 map[ids.ID]*KeyState
	Certificates         map[ids.ID]*CertificateState
	Smartcards           map[string]*SmartcardState
	MessagingOperators   map[ids.ID]*MessagingOperatorState
	MessagingAccounts    map[ids.ID]*MessagingAccountState
	MessagingUsers       map[ids.ID]*MessagingUserState
	ServiceAccounts      map[ids.ID]*ServiceIdentityState
	Agents               map[ids.ID]*ServiceIdentityState
	Relationships        map[ids.ID]*RelationshipState

	Policy *policy.Registry
}

// NewProjection returns an empty projection, as if replayed from an empty
// event log.
func NewProjection() *Projection {
	return &Projection{
		Units:              make(map[ids.ID]bool),
		People:             make(map[ids.ID]*PersonState),
		Locations:          make(map[ids.ID]*LocationState),
		Keys:               make(map[ids.ID]*KeyState),
		Certificates:       make(map[ids.ID]*CertificateState),
		Smartcards:         make(map[string]*SmartcardState),
		MessagingOperators: make(map[ids.ID]*MessagingOperatorState),
		MessagingAccounts:  make(map[ids.ID]*MessagingAccountState),
		MessagingUsers:     make(map[ids.ID]*MessagingUserState),
		ServiceAccounts:    make(map[ids.ID]*ServiceIdentityState),
		Agents:             make(map[ids.ID]*ServiceIdentityState),
		Relationships:      make(map[ids.ID]*RelationshipState),
		Policy:             policy.NewRegistry(),
	}
}
