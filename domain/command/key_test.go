package command

import (
	"testing"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/pki"
)

func TestGenerateKeyThenStoreOfflineActivates(t *testing.T) {
	a := newTestAggregate()
	evs, err := (GenerateKey{Algorithm: event.Algorithm{Family: "Ed25519"}, Purpose: "signing"}).Handle(a)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyID := evs[0].AggregateID
	if _, err := (StoreKeyOffline{KeyID: keyID}).Handle(a); err != nil {
		t.Fatalf("store key offline: %v", err)
	}
	if a.Projection.Keys[keyID].Private == nil {
		t.Fatal("expected private material to remain set once active")
	}
}

func TestRevokedKeyCannotSignAgain(t *testing.T) {
	a := newTestAggregate()
	evs, err := (GenerateKey{Algorithm: event.Algorithm{Family: "Ed25519"}, Purpose: "signing"}).Handle(a)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyID := evs[0].AggregateID
	if _, err := (StoreKeyOffline{KeyID: keyID}).Handle(a); err != nil {
		t.Fatalf("store key offline: %v", err)
	}
	if _, err := (RevokeKey{KeyID: keyID, Reason: "compromised"}).Handle(a); err != nil {
		t.Fatalf("revoke key: %v", err)
	}
	if a.Projection.Keys[keyID].Private != nil {
		t.Fatal("expected private material to be cleared on revocation")
	}
	if _, err := (RevokeKey{KeyID: keyID, Reason: "again"}).Handle(a); err == nil {
		t.Fatal("expected a terminal key to reject a further transition")
	} else if !xerrors.HasCode(err, xerrors.CodeInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
}

func TestKeyRotationRequiresExistingSuccessor(t *testing.T) {
	a := newTestAggregate()
	evs, err := (GenerateKey{Algorithm: event.Algorithm{Family: "Ed25519"}, Purpose: "signing"}).Handle(a)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyID := evs[0].AggregateID
	if _, err := (StoreKeyOffline{KeyID: keyID}).Handle(a); err != nil {
		t.Fatalf("store key offline: %v", err)
	}
	if _, err := (InitiateKeyRotation{KeyID: keyID, SuccessorKeyID: ids.New()}).Handle(a); err == nil {
		t.Fatal("expected rotation to a nonexistent successor to fail")
	} else if !xerrors.HasCode(err, xerrors.CodeAggregateNotFound) {
		t.Fatalf("expected AGGREGATE_NOT_FOUND, got %v", err)
	}

	successorEvs, err := (GenerateKey{Algorithm: event.Algorithm{Family: "Ed25519"}, Purpose: "signing"}).Handle(a)
	if err != nil {
		t.Fatalf("generate successor key: %v", err)
	}
	successorID := successorEvs[0].AggregateID
	if _, err := (InitiateKeyRotation{KeyID: keyID, SuccessorKeyID: successorID}).Handle(a); err != nil {
		t.Fatalf("initiate rotation: %v", err)
	}
	if _, err := (CompleteKeyRotation{KeyID: keyID}).Handle(a); err != nil {
		t.Fatalf("complete rotation: %v", err)
	}
}

func TestPkiAlgorithmForRejectsUnsupportedFamily(t *testing.T) {
	if _, err := pkiAlgorithmFor(event.Algorithm{Family: "Secp256k1"}); err == nil {
		t.Fatal("expected an unsupported family to be rejected in favor of ImportKey")
	}
	algo, err := pkiAlgorithmFor(event.Algorithm{Family: "RSA", Bits: 4096})
	if err != nil {
		t.Fatalf("rsa-4096: %v", err)
	}
	if algo != pki.AlgorithmRSA4096 {
		t.Fatalf("expected rsa-4096, got %v", algo)
	}
}
