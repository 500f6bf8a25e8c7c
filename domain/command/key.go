package command

import (
	"crypto"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/x509"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/pki"
)

// pkiAlgorithmFor maps an event-level Algorithm descriptor to the PKI
// engine's KeyAlgorithm enum; keys outside the PKI engine's supported
// families (e.g. a blockchain Secp256k1 key minted for a different purpose)
// are constructed by the caller and passed to ImportKey instead.
func pkiAlgorithmFor(algo event.Algorithm) (pki.KeyAlgorithm, error) {
	switch algo.Family {
	case "RSA":
		if algo.Bits >= 4096 {
			return pki.AlgorithmRSA4096, nil
		}
		return pki.AlgorithmRSA2048, nil
	case "ECDSA":
		if algo.Curve == elliptic.P384().Params().Name {
			return pki.AlgorithmECDSAP384, nil
		}
		return pki.AlgorithmECDSAP256, nil
	case "Ed25519":
		return pki.AlgorithmEd25519, nil
	default:
		return "", xerrors.InvariantViolated("command: algorithm family " + algo.Family + " is not generated by the PKI engine; use ImportKey")
	}
}

func marshalPublicKey(pub crypto.PublicKey) ([]byte, error) {
	if edPub, ok := pub.(ed25519.PublicKey); ok {
		return []byte(edPub), nil
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, xerrors.CryptoFailure("marshal public key", err)
	}
	return der, nil
}

// GenerateKey mints a fresh keypair via the PKI engine's key generation and
// records it as a new Key aggregate in state Generated.
type GenerateKey struct {
	Algorithm event.Algorithm
	Purpose   string
	OwnerID   *ids.ID
	SlotRef   *string
}

func (c GenerateKey) Handle(a *Aggregate) ([]event.Event, error) {
	algo, err := pkiAlgorithmFor(c.Algorithm)
	if err != nil {
		return nil, err
	}
	keypair, err := pki.GenerateKeypair(algo)
	if err != nil {
		return nil, err
	}
	publicKeyDER, err := marshalPublicKey(keypair.Public)
	if err != nil {
		return nil, err
	}

	keyID := ids.New()
	b := newBatch(keyID, ids.Nil)
	ev, err := b.Emit(event.KeyGenerated{
		KeyID:     keyID,
		Algorithm: c.Algorithm,
		Purpose:   c.Purpose,
		PublicKey: publicKeyDER,
		OwnerID:   c.OwnerID,
		SlotRef:   c.SlotRef,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Keys[keyID] = &KeyState{ID: keyID, State: state.KeyGenerated, OwnerID: c.OwnerID, Private: keypair.Private}
	return []event.Event{ev}, nil
}

// ImportKey records a keypair whose private material originated outside
// this engine (e.g. migrated from a prior deployment). Private may be nil
// if only the public half is known to this projection.
type ImportKey struct {
	Algorithm event.Algorithm
	Purpose   string
	PublicKey []byte
	Private   crypto.Signer
	OwnerID   *ids.ID
}

func (c ImportKey) Handle(a *Aggregate) ([]event.Event, error) {
	keyID := ids.New()
	b := newBatch(keyID, ids.Nil)
	ev, err := b.Emit(event.KeyImported{
		KeyID:     keyID,
		Algorithm: c.Algorithm,
		Purpose:   c.Purpose,
		PublicKey: c.PublicKey,
		OwnerID:   c.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Keys[keyID] = &KeyState{ID: keyID, State: state.KeyImported, OwnerID: c.OwnerID, Private: c.Private}
	return []event.Event{ev}, nil
}

// StoreKeyOffline transitions a key Generated/Imported -> Active once its
// private material has been sealed to the encrypted projection.
type StoreKeyOffline struct {
	KeyID ids.ID
}

func (c StoreKeyOffline) Handle(a *Aggregate) ([]event.Event, error) {
	key, ok := a.Projection.Keys[c.KeyID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Key", c.KeyID.String())
	}
	to, err := state.KeyMachine.Transition(key.State, state.KeyActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.KeyID, ids.Nil)
	ev, err := b.Emit(event.KeyStoredOffline{KeyID: c.KeyID})
	if err != nil {
		return nil, err
	}

	key.State = to
	return []event.Event{ev}, nil
}

// RevokeKey is a terminal transition; a revoked key must never sign again.
type RevokeKey struct {
	KeyID  ids.ID
	Reason string
}

func (c RevokeKey) Handle(a *Aggregate) ([]event.Event, error) {
	key, ok := a.Projection.Keys[c.KeyID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Key", c.KeyID.String())
	}
	to, err := state.KeyMachine.Transition(key.State, state.KeyRevoked)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.KeyID, ids.Nil)
	ev, err := b.Emit(event.KeyRevoked{KeyID: c.KeyID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}

	key.State = to
	key.Private = nil
	return []event.Event{ev}, nil
}

// InitiateKeyRotation transitions a key Active -> RotationPending, pointing
// at the key that will replace it.
type InitiateKeyRotation struct {
	KeyID          ids.ID
	SuccessorKeyID ids.ID
}

func (c InitiateKeyRotation) Handle(a *Aggregate) ([]event.Event, error) {
	key, ok := a.Projection.Keys[c.KeyID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Key", c.KeyID.String())
	}
	if _, ok := a.Projection.Keys[c.SuccessorKeyID]; !ok {
		return nil, xerrors.AggregateNotFound("Key", c.SuccessorKeyID.String())
	}
	to, err := state.KeyMachine.Transition(key.State, state.KeyRotationPending)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.KeyID, ids.Nil)
	ev, err := b.Emit(event.KeyRotationInitiated{KeyID: c.KeyID, SuccessorKeyID: c.SuccessorKeyID})
	if err != nil {
		return nil, err
	}

	key.State = to
	return []event.Event{ev}, nil
}

// CompleteKeyRotation transitions a key RotationPending -> Rotated.
type CompleteKeyRotation struct {
	KeyID ids.ID
}

func (c CompleteKeyRotation) Handle(a *Aggregate) ([]event.Event, error) {
	key, ok := a.Projection.Keys[c.KeyID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Key", c.KeyID.String())
	}
	to, err := state.KeyMachine.Transition(key.State, state.KeyRotated)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.KeyID, ids.Nil)
	ev, err := b.Emit(event.KeyRotationCompleted{KeyID: c.KeyID})
	if err != nil {
		return nil, err
	}

	key.State = to
	return []event.Event{ev}, nil
}

// ExpireKey records natural expiry of a key's validity window.
type ExpireKey struct {
	KeyID ids.ID
}

func (c ExpireKey) Handle(a *Aggregate) ([]event.Event, error) {
	key, ok := a.Projection.Keys[c.KeyID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Key", c.KeyID.String())
	}
	to, err := state.KeyMachine.Transition(key.State, state.KeyExpired)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.KeyID, ids.Nil)
	ev, err := b.Emit(event.KeyExpired{KeyID: c.KeyID})
	if err != nil {
		return nil, err
	}

	key.State = to
	return []event.Event{ev}, nil
}

// ArchiveKey is a terminal transition for a key no longer in active use.
type ArchiveKey struct {
	KeyID ids.ID
}

func (c ArchiveKey) Handle(a *Aggregate) ([]event.Event, error) {
	key, ok := a.Projection.Keys[c.KeyID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Key", c.KeyID.String())
	}
	to, err := state.KeyMachine.Transition(key.State, state.KeyArchived)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.KeyID, ids.Nil)
	ev, err := b.Emit(event.KeyArchived{KeyID: c.KeyID})
	if err != nil {
		return nil, err
	}

	key.State = to
	return []event.Event{ev}, nil
}
