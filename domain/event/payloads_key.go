package event

import "github.com/cowboyai/genesis-issuer/internal/ids"

const (
	KindKeyGenerated          Kind = "KeyGenerated"
	KindKeyImported           Kind = "KeyImported"
	KindKeyStoredOffline      Kind = "KeyStoredOffline"
	KindKeyRevoked            Kind = "KeyRevoked"
	KindKeyRotationInitiated  Kind = "KeyRotationInitiated"
	KindKeyRotationCompleted  Kind = "KeyRotationCompleted"
	KindKeyExpired            Kind = "KeyExpired"
	KindKeyArchived           Kind = "KeyArchived"
)

// Algorithm names a key algorithm and, where applicable, its size parameter.
type Algorithm struct {
	Family string `json:"family"` // "RSA", "ECDSA", "Ed25519", "Secp256k1"
	Bits   int    `json:"bits,omitempty"`  // RSA
	Curve  string `json:"curve,omitempty"` // ECDSA
}

// KeyGenerated records a freshly minted keypair. Private material never
// appears in the event itself; the projection writer seals it separately.
type KeyGenerated struct {
	KeyID     ids.ID    `json:"key_id"`
	Algorithm Algorithm `json:"algorithm"`
	Purpose   string    `json:"purpose"`
	PublicKey []byte    `json:"public_key"`
	OwnerID   *ids.ID   `json:"owner_id,omitempty"`
	SlotRef   *string   `json:"slot_ref,omitempty"`
}

func (KeyGenerated) Kind() Kind { return KindKeyGenerated }

// KeyImported records a keypair whose private material originated outside
// this engine (e.g. migrated from a prior deployment).
type KeyImported struct {
	KeyID     ids.ID    `json:"key_id"`
	Algorithm Algorithm `json:"algorithm"`
	Purpose   string    `json:"purpose"`
	PublicKey []byte    `json:"public_key"`
	OwnerID   *ids.ID   `json:"owner_id,omitempty"`
}

func (KeyImported) Kind() Kind { return KindKeyImported }

// KeyStoredOffline transitions a key Generated/Imported -> Active once its
// private material has been sealed to the encrypted projection.
type KeyStoredOffline struct {
	KeyID ids.ID `json:"key_id"`
}

func (KeyStoredOffline) Kind() Kind { return KindKeyStoredOffline }

// KeyRevoked is a terminal transition; a revoked key must never sign again.
type KeyRevoked struct {
	KeyID  ids.ID `json:"key_id"`
	Reason string `json:"reason"`
}

func (KeyRevoked) Kind() Kind { return KindKeyRevoked }

// KeyRotationInitiated transitions a key Active -> RotationPending.
type KeyRotationInitiated struct {
	KeyID         ids.ID `json:"key_id"`
	SuccessorKeyID ids.ID `json:"successor_key_id"`
}

func (KeyRotationInitiated) Kind() Kind { return KindKeyRotationInitiated }

// KeyRotationCompleted transitions a key RotationPending -> Rotated.
type KeyRotationCompleted struct {
	KeyID ids.ID `json:"key_id"`
}

func (KeyRotationCompleted) Kind() Kind { return KindKeyRotationCompleted }

// KeyExpired records natural expiry of a key's validity window.
type KeyExpired struct {
	KeyID ids.ID `json:"key_id"`
}

func (KeyExpired) Kind() Kind { return KindKeyExpired }

// KeyArchived is a terminal transition for a key no longer in active use.
type KeyArchived struct {
	KeyID ids.ID `json:"key_id"`
}

func (KeyArchived) Kind() Kind { return KindKeyArchived }
