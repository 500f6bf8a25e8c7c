package event

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// samplePayloads returns one representative instance of every payload
// variant the registry knows about, keeping this file and codec.go's init()
// honest against each other (see TestEveryRegisteredKindHasASample).
func samplePayloads() []Payload {
	id := ids.New()
	otherID := ids.New()
	pathLen := 1
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := now.AddDate(1, 0, 0)

	return []Payload{
		OrganizationCreated{OrganizationID: id, Name: "cowboyai", DisplayName: "Cowboy AI", Domain: "cowboyai.com"},
		OrganizationUnitAdded{UnitID: id, OrganizationID: otherID, Name: "Engineering", Type: "department"},
		PersonCreated{PersonID: id, OrganizationID: otherID, LegalName: "alice", RoleIDs: []string{"operator"}},
		PersonActivated{PersonID: id, Reason: "onboarded"},
		PersonSuspended{PersonID: id, Reason: "leave", PreservedRoles: []string{"operator"}},
		PersonDeactivated{PersonID: id, Reason: "offboarded"},
		PersonArchived{PersonID: id},
		LocationPlanned{LocationID: id, Name: "HQ", Type: "office"},
		LocationActivated{LocationID: id},
		LocationDecommissioned{LocationID: id, AssetsStored: 0, Reason: "lease ended"},
		LocationArchived{LocationID: id},

		KeyGenerated{KeyID: id, Algorithm: Algorithm{Family: "Ed25519"}, Purpose: "signing", PublicKey: []byte{0x01, 0x02}},
		KeyImported{KeyID: id, Algorithm: Algorithm{Family: "RSA", Bits: 2048}, Purpose: "legacy", PublicKey: []byte{0x03}},
		KeyStoredOffline{KeyID: id},
		KeyRevoked{KeyID: id, Reason: "KeyCompromise"},
		KeyRotationInitiated{KeyID: id, SuccessorKeyID: otherID},
		KeyRotationCompleted{KeyID: id},
		KeyExpired{KeyID: id},
		KeyArchived{KeyID: id},

		PkiHierarchyCreated{RootCertID: id, IntermediateCertIDs: []ids.ID{otherID}},
		CertificateGenerated{
			CertificateID: id, SubjectDN: "CN=cowboyai Root", KeyID: otherID, NotBefore: now, NotAfter: later,
			IsCA: true, PathLenConstraint: &pathLen, KeyUsage: []string{"keyCertSign"}, SignatureAlgorithm: "ECDSA-SHA384",
			DER: []byte{0xde, 0xad, 0xbe, 0xef},
		},
		CertificateSigned{
			CertificateID: id, SubjectDN: "CN=app.example.com", IssuerCertID: otherID, NotBefore: now, NotAfter: later,
			DNSNames: []string{"app.example.com"}, KeyUsage: []string{"digitalSignature"}, SignatureAlgorithm: "ECDSA-SHA256",
			DER: []byte{0x01}, CSRFingerprint: "sha256:abc",
		},
		CertificateImportedToSlot{CertificateID: id, SmartcardSerial: "12345678", Slot: "9a"},
		CertificateExported{CertificateID: id, Format: "pem", Destination: "/export/cert.pem", ExportedAt: now},
		CertificateRenewalInitiated{CertificateID: id},
		CertificateRenewed{CertificateID: id, SuccessorCertID: otherID},
		CertificateRevoked{CertificateID: id, Reason: "KeyCompromise", RevokedAt: now},
		CertificateExpired{CertificateID: id},
		CertificateArchived{CertificateID: id},
		TrustEstablished{LeafCertID: id, ChainIDs: []ids.ID{id, otherID}, VerifiedAt: now},

		YubiKeyDetected{Serial: "12345678", FirmwareVersion: "5.4.3"},
		YubiKeyProvisioned{Serial: "12345678"},
		PinConfigured{Serial: "12345678", PinHash: []byte{0xaa}, RetryCount: 3},
		PukConfigured{Serial: "12345678", PukHash: []byte{0xbb}, RetryCount: 3},
		ManagementKeyRotated{Serial: "12345678", Algorithm: "Aes256"},
		SlotAllocationPlanned{Serial: "12345678", Slot: "9a", PersonID: id, Purpose: "Authentication"},
		KeyGeneratedInSlot{Serial: "12345678", Slot: "9a", PublicKey: []byte{0x04}, AttestationCertDER: []byte{0x05}},
		SmartcardSealed{Serial: "12345678"},
		SmartcardLocked{Serial: "12345678"},
		SmartcardLost{Serial: "12345678"},
		SmartcardRetired{Serial: "12345678", Reason: "end of life"},

		NatsOperatorCreated{OperatorID: id, OrganizationID: otherID, Name: "cowboyai", PublicKey: "OP_PUB", SignerPublicKey: "OP_PUB", JWT: "eyJ..."},
		NatsOperatorSuspended{OperatorID: id, Reason: "incident"},
		NatsOperatorReactivated{OperatorID: id},
		NatsOperatorRevoked{OperatorID: id, Reason: "decommissioned"},
		NatsAccountCreated{
			AccountID: id, OperatorID: otherID, Name: "platform", PublicKey: "ACC_PUB", SignerPublicKey: "OP_PUB",
			Permissions: Permissions{Publish: []string{"events.>"}}, Limits: Limits{MaxConnections: 10},
		},
		NatsAccountSuspended{AccountID: id, Reason: "incident"},
		NatsAccountReactivated{AccountID: id},
		NatsAccountDeleted{AccountID: id, Reason: "decommissioned"},
		NatsUserCreated{
			UserID: id, AccountID: otherID, Name: "worker-1", OwnerPersonID: &otherID, PublicKey: "USER_PUB", SignerPublicKey: "ACC_PUB",
			Permissions: Permissions{Subscribe: []string{"events.>"}},
		},
		NatsUserSuspended{UserID: id, Reason: "incident"},
		NatsUserReactivated{UserID: id},
		NatsUserDeleted{UserID: id, Reason: "decommissioned"},
		NatsSigningKeyGenerated{OwnerID: id, OwnerKind: "operator", PublicKey: "SIGN_PUB"},
		NatsPermissionsSet{OwnerID: id, OwnerKind: "account", Permissions: Permissions{Publish: []string{"events.>"}}},
		NatsConfigExported{OperatorID: id, Destination: "/export/nsc"},
		ServiceAccountCreated{ServiceAccountID: id, Name: "ci-deployer", Purpose: "automated deploys", UnitID: otherID, ResponsiblePersonID: otherID},
		AgentCreated{AgentID: id, Name: "deploy-bot", Purpose: "automated deploys", UnitID: otherID, ResponsiblePersonID: otherID},
		AccountabilityValidated{EntityType: "ServiceAccount", EntityID: id, ResponsiblePersonID: otherID},
		AccountabilityViolated{EntityType: "Agent", AttemptedName: "deploy-bot"},

		RelationshipProposed{RelationshipID: id, SourceID: otherID, TargetID: otherID, Type: "reports-to", ValidFrom: "2026-01-01T00:00:00Z", Strength: 1},
		RelationshipActivated{RelationshipID: id},
		RelationshipModified{RelationshipID: id, Metadata: map[string]string{"note": "reassigned"}},
		RelationshipSuspended{RelationshipID: id, Reason: "review"},
		RelationshipTerminated{RelationshipID: id, Reason: "no longer applicable"},
		RelationshipArchived{RelationshipID: id},

		ClaimDefined{ClaimID: "read-secrets", Category: "data", Resource: "secrets", Action: "read", Scope: "org"},
		RoleDefined{RoleID: "operator", Purpose: "runtime operations", ClaimIDs: []string{"read-secrets"}},
		PolicyCreated{PolicyID: id, RoleID: "operator", Priority: 1},
		PolicyActivated{PolicyID: id},
		PolicySuspended{PolicyID: id, Reason: "under review"},
		PolicyRevoked{PolicyID: id, Reason: "review concluded"},
		PolicyBindingCreated{BindingID: id, PolicyID: otherID, EntityID: otherID, EntityType: "Person", ValidFrom: "2026-01-01T00:00:00Z"},

		ManifestCreated{OrganizationID: id, RootPath: "/var/lib/genesis-issuer"},
	}
}

// TestEveryRegisteredKindHasASample keeps this file honest against codec.go's
// init(): if a Kind is registered there without a sample here (or vice
// versa), this fails instead of silently leaving a variant untested.
func TestEveryRegisteredKindHasASample(t *testing.T) {
	seen := map[Kind]bool{}
	for _, p := range samplePayloads() {
		if seen[p.Kind()] {
			t.Fatalf("duplicate sample for kind %q", p.Kind())
		}
		seen[p.Kind()] = true
	}
	for k := range payloadFactories {
		if !seen[k] {
			t.Errorf("kind %q is registered in codec.go but has no sample in samplePayloads", k)
		}
	}
	for k := range seen {
		if _, ok := payloadFactories[k]; !ok {
			t.Errorf("sample for kind %q has no matching registration in codec.go", k)
		}
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	for _, payload := range samplePayloads() {
		payload := payload
		t.Run(string(payload.Kind()), func(t *testing.T) {
			b := NewBatch(ids.New(), ids.Nil)
			ev, err := b.Emit(payload)
			if err != nil {
				t.Fatalf("emit: %v", err)
			}

			wire, err := Marshal(ev)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			decoded, err := Unmarshal(wire)
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if decoded.Kind != ev.Kind {
				t.Fatalf("expected kind %q, got %q", ev.Kind, decoded.Kind)
			}
			if decoded.Envelope != ev.Envelope {
				t.Fatalf("expected the envelope to survive the round trip unchanged, got %+v want %+v", decoded.Envelope, ev.Envelope)
			}
			if decoded.Payload.Kind() != payload.Kind() {
				t.Fatalf("expected the decoded payload's own Kind() to match, got %q", decoded.Payload.Kind())
			}

			wantJSON, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("marshal original payload: %v", err)
			}
			gotJSON, err := json.Marshal(decoded.Payload)
			if err != nil {
				t.Fatalf("marshal decoded payload: %v", err)
			}
			if !bytes.Equal(wantJSON, gotJSON) {
				t.Fatalf("expected the decoded payload to re-encode identically\nwant: %s\ngot:  %s", wantJSON, gotJSON)
			}

			if err := VerifyContentID(decoded.Payload, ev.ContentID); err != nil {
				t.Fatalf("expected the decoded payload's content id to still verify: %v", err)
			}
		})
	}
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	wire, err := json.Marshal(wireEvent{
		Envelope: Envelope{EventID: ids.New(), AggregateID: ids.New(), CorrelationID: ids.New(), CausationID: ids.New(), ContentID: "sha256:deadbeef"},
		Kind:     Kind("SomethingNeverRegistered"),
		Payload:  json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Unmarshal(wire); err == nil {
		t.Fatal("expected an unregistered kind to be rejected")
	}
}

// TestNatsOperatorCreatedNeverPersistsJWT guards the bearer-token exclusion:
// the JWT field is tagged json:"-" so it must not survive a durable-storage
// round trip even though it is present on the in-memory event.
func TestNatsOperatorCreatedNeverPersistsJWT(t *testing.T) {
	b := NewBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(NatsOperatorCreated{
		OperatorID: ids.New(), OrganizationID: ids.New(), Name: "cowboyai",
		PublicKey: "OP_PUB", SignerPublicKey: "OP_PUB", JWT: "eyJhbGciOiJFZDI1NTE5In0.secret.sig",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	wire, err := Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if bytes.Contains(wire, []byte("secret.sig")) {
		t.Fatal("expected the operator's JWT to never appear in the durable wire encoding")
	}

	decoded, err := Unmarshal(wire)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	op, ok := decoded.Payload.(*NatsOperatorCreated)
	if !ok {
		t.Fatalf("expected a *NatsOperatorCreated, got %T", decoded.Payload)
	}
	if op.JWT != "" {
		t.Fatalf("expected the JWT field to come back empty after a round trip, got %q", op.JWT)
	}
}
