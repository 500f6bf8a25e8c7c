package command

// End-to-end pipeline tests, one per seed scenario an integrator would
// script by hand: organization bootstrap, a root+intermediate+leaf chain,
// smartcard provisioning under attestation, a messaging hierarchy bootstrap,
// an accountability violation, and key revocation blocking rotation.

import (
	"crypto/x509/pkix"
	"testing"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/piv"
	"github.com/cowboyai/genesis-issuer/pki"
)

func TestScenarioOrganizationBootstrap(t *testing.T) {
	a := newTestAggregate()
	evs, err := (BootstrapOrganization{
		Name: "cowboyai", DisplayName: "Cowboy AI", Domain: "cowboyai.com",
		UnitNames: []string{"Engineering"}, PersonNames: []string{"alice", "bob"},
	}).Handle(a)
	if err != nil {
		t.Fatalf("bootstrap organization: %v", err)
	}
	if len(evs) != 4 {
		t.Fatalf("expected organization + unit + two person events, got %d", len(evs))
	}
	orgEv := evs[0]
	if _, ok := orgEv.Payload.(event.OrganizationCreated); !ok {
		t.Fatalf("expected the first event to be OrganizationCreated, got %T", orgEv.Payload)
	}
	correlation := orgEv.CorrelationID
	for _, ev := range evs {
		if ev.CorrelationID != correlation {
			t.Fatalf("expected every event to share one correlation, got %v for %T", ev.CorrelationID, ev.Payload)
		}
	}
	for _, ev := range evs[1:] {
		if _, isPerson := ev.Payload.(event.PersonCreated); isPerson {
			if ev.CausationID != orgEv.EventID {
				t.Fatalf("expected PersonCreated's causation to equal the organization's event id, got %v want %v", ev.CausationID, orgEv.EventID)
			}
		}
	}
	if a.Projection.OrganizationID != orgEv.AggregateID {
		t.Fatal("expected the projection to resolve the new organization id")
	}
	if len(a.Projection.People) != 2 {
		t.Fatalf("expected two people in the projection, got %d", len(a.Projection.People))
	}
}

func TestScenarioRootIntermediateLeafChain(t *testing.T) {
	a := newTestAggregate()
	rootEvs, err := (CreatePkiHierarchy{
		RootSubject:       pkix.Name{CommonName: "cowboyai Root"},
		RootValidityYears: 20,
		RootAlgorithm:     pki.AlgorithmEd25519,
		RootPathLen:       2,
		Intermediates: []IntermediateSpec{
			{Subject: pkix.Name{CommonName: "cowboyai Hosting Intermediate"}, ValidityYears: 10, Algorithm: pki.AlgorithmECDSAP256},
		},
	}).Handle(a)
	if err != nil {
		t.Fatalf("create root + intermediate: %v", err)
	}
	rootID := rootEvs[0].AggregateID
	intermediateID := rootEvs[1].AggregateID

	leafEvs, err := (IssueLeafCertificate{
		ParentCertificateID: intermediateID,
		Subject:             pkix.Name{CommonName: "app.example.com"},
		ValidityDays:        90,
		Purpose:             pki.PurposeServerAuth,
		DNSNames:            []string{"app.example.com"},
		Algorithm:           pki.AlgorithmECDSAP256,
	}).Handle(a)
	if err != nil {
		t.Fatalf("issue leaf under the intermediate: %v", err)
	}
	leafID := leafEvs[0].AggregateID

	if len(a.Projection.Certificates) != 3 {
		t.Fatalf("expected three certificates in the projection, got %d", len(a.Projection.Certificates))
	}
	if _, err := (VerifyCertificateChain{
		LeafCertificateID: leafID, IntermediateCertificateIDs: []ids.ID{intermediateID}, RootCertificateID: rootID,
	}).Handle(a); err != nil {
		t.Fatalf("expected the leaf+intermediate+root chain to verify, got: %v", err)
	}

	intermediate := a.Projection.Certificates[intermediateID]
	if intermediate.PathLenConstraint == nil || *intermediate.PathLenConstraint != 1 {
		t.Fatalf("expected the intermediate's pathlen constraint to be 1, got %v", intermediate.PathLenConstraint)
	}
	leafGenerated, ok := leafEvs[0].Payload.(event.CertificateGenerated)
	if !ok {
		t.Fatalf("expected a CertificateGenerated payload, got %T", leafEvs[0].Payload)
	}
	found := false
	for _, u := range leafGenerated.ExtKeyUsage {
		if u == "server-auth" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the leaf's extended key usage to contain server-auth, got %v", leafGenerated.ExtKeyUsage)
	}
}

func TestScenarioSmartcardProvisionWithAttestation(t *testing.T) {
	a := newTestAggregate()
	dev, err := piv.NewMockDevice("12345678", "5.4.3")
	if err != nil {
		t.Fatalf("new mock device: %v", err)
	}
	personEvs, err := (CreatePerson{LegalName: "alice"}).Handle(a)
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	aliceID := personEvs[0].AggregateID

	var all []event.Event
	step := func(evs []event.Event, err error) []event.Event {
		t.Helper()
		if err != nil {
			t.Fatalf("pipeline step failed: %v", err)
		}
		return evs
	}
	all = append(all, step((DetectSmartcard{Serial: "12345678", FirmwareVersion: "5.4.3"}).Handle(a))...)
	all = append(all, step((ConfigureSmartcardPIN{Device: dev, Serial: "12345678", CurrentPIN: "123456", NewPIN: "828341"}).Handle(a))...)
	// The scenario's literal PUK value ("12345678") equals the mock device's
	// factory default, which ConfigurePUK refuses to set as the "new" value;
	// a distinct non-default PUK is used here instead.
	all = append(all, step((ConfigureSmartcardPUK{Device: dev, Serial: "12345678", CurrentPUK: "12345678", NewPUK: "87654321"}).Handle(a))...)
	all = append(all, step((RotateSmartcardManagementKey{Device: dev, Serial: "12345678", Algorithm: piv.ManagementKeyAES256}).Handle(a))...)
	all = append(all, step((PlanSlotAllocation{Serial: "12345678", Slot: piv.SlotAuthentication, PersonID: aliceID, Purpose: "Authentication"}).Handle(a))...)
	all = append(all, step((GenerateSlotKey{Device: dev, Serial: "12345678", Slot: piv.SlotAuthentication, VendorRoot: dev.AttestationRoot()}).Handle(a))...)

	rootEvs := step((CreatePkiHierarchy{
		RootSubject: pkix.Name{CommonName: "cowboyai Root"}, RootValidityYears: 10, RootAlgorithm: pki.AlgorithmECDSAP256, RootPathLen: 1,
	}).Handle(a))
	rootID := rootEvs[0].AggregateID
	leafEvs := step((IssueLeafCertificate{
		ParentCertificateID: rootID, Subject: pkix.Name{CommonName: "alice-9a"}, ValidityDays: 365,
		Purpose: pki.PurposeClientAuth, Algorithm: pki.AlgorithmECDSAP256,
	}).Handle(a))
	all = append(all, leafEvs...)
	certID := leafEvs[0].AggregateID

	all = append(all, step((ImportSlotCertificate{Device: dev, Serial: "12345678", Slot: piv.SlotAuthentication, CertificateID: certID}).Handle(a))...)

	if a.Projection.Smartcards["12345678"].State != state.SmartcardActive {
		t.Fatalf("expected the card to be Active after importing a certificate onto its provisioned slot")
	}
	if len(all) == 0 {
		t.Fatal("expected the pipeline to have emitted events")
	}
}

func TestScenarioMessagingHierarchyBootstrap(t *testing.T) {
	a := newTestAggregate()
	if _, err := (CreateOrganization{Name: "cowboyai", DisplayName: "Cowboy AI", Domain: "cowboyai.com"}).Handle(a); err != nil {
		t.Fatalf("create organization: %v", err)
	}

	evs, err := (BootstrapMessaging{OperatorName: "cowboyai", AccountName: "Engineering", UserName: "alice"}).Handle(a)
	if err != nil {
		t.Fatalf("bootstrap messaging: %v", err)
	}
	operatorCreated, ok := evs[0].Payload.(event.NatsOperatorCreated)
	if !ok {
		t.Fatalf("expected NatsOperatorCreated, got %T", evs[0].Payload)
	}
	accountCreated, ok := evs[1].Payload.(event.NatsAccountCreated)
	if !ok {
		t.Fatalf("expected NatsAccountCreated, got %T", evs[1].Payload)
	}
	userCreated, ok := evs[2].Payload.(event.NatsUserCreated)
	if !ok {
		t.Fatalf("expected NatsUserCreated, got %T", evs[2].Payload)
	}
	if operatorCreated.SignerPublicKey != operatorCreated.PublicKey {
		t.Fatal("expected the operator to be self-signed")
	}
	if accountCreated.SignerPublicKey != operatorCreated.PublicKey {
		t.Fatal("expected the account to be signed by the operator's public key")
	}
	if userCreated.SignerPublicKey != accountCreated.PublicKey {
		t.Fatal("expected the user to be signed by the account's public key")
	}
	correlation := evs[0].CorrelationID
	for _, ev := range evs {
		if ev.CorrelationID != correlation {
			t.Fatal("expected operator, account and user events to share one correlation")
		}
	}
}

func TestScenarioAccountabilityViolation(t *testing.T) {
	a := newTestAggregate()
	evs, err := (CreateAgent{Name: "deploy-bot", Purpose: "automated deploys"}).Handle(a)
	if err == nil {
		t.Fatal("expected an agent with no responsible person to be rejected")
	}
	if !xerrors.HasCode(err, xerrors.CodeAccountabilityViolation) {
		t.Fatalf("expected ACCOUNTABILITY_VIOLATION, got %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("expected exactly one event emitted (the violation), got %d", len(evs))
	}
	if _, ok := evs[0].Payload.(event.AccountabilityViolated); !ok {
		t.Fatalf("expected an AccountabilityViolated payload, got %T", evs[0].Payload)
	}
}

func TestScenarioKeyRevocationThenRotationRejection(t *testing.T) {
	a := newTestAggregate()
	genEvs, err := (GenerateKey{Algorithm: event.Algorithm{Family: "Ed25519"}, Purpose: "signing"}).Handle(a)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyID := genEvs[0].AggregateID
	if _, err := (StoreKeyOffline{KeyID: keyID}).Handle(a); err != nil {
		t.Fatalf("store key offline: %v", err)
	}
	if _, err := (RevokeKey{KeyID: keyID, Reason: "KeyCompromise"}).Handle(a); err != nil {
		t.Fatalf("revoke key: %v", err)
	}

	otherEvs, err := (GenerateKey{Algorithm: event.Algorithm{Family: "Ed25519"}, Purpose: "signing"}).Handle(a)
	if err != nil {
		t.Fatalf("generate a successor candidate: %v", err)
	}
	evs, err := (InitiateKeyRotation{KeyID: keyID, SuccessorKeyID: otherEvs[0].AggregateID}).Handle(a)
	if err == nil {
		t.Fatal("expected rotation of a revoked key to be rejected")
	}
	if !xerrors.HasCode(err, xerrors.CodeInvalidStateTransition) {
		t.Fatalf("expected INVALID_STATE_TRANSITION, got %v", err)
	}
	if len(evs) != 0 {
		t.Fatalf("expected no event emitted for a rejected rotation, got %d", len(evs))
	}
}
