package command

import (
	"testing"

	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/piv"
)

func TestSmartcardProvisioningPipeline(t *testing.T) {
	a := newTestAggregate()
	dev, err := piv.NewMockDevice("31905234", "5.4.3")
	if err != nil {
		t.Fatalf("new mock device: %v", err)
	}
	if _, err := (DetectSmartcard{Serial: "31905234", FirmwareVersion: "5.4.3"}).Handle(a); err != nil {
		t.Fatalf("detect smartcard: %v", err)
	}

	personEvs, err := (CreatePerson{LegalName: "Jordan Rivera", RoleIDs: []string{"engineer"}}).Handle(a)
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	personID := personEvs[0].AggregateID

	if _, err := (ConfigureSmartcardPIN{Device: dev, Serial: "31905234", CurrentPIN: "123456", NewPIN: "654321"}).Handle(a); err != nil {
		t.Fatalf("configure pin: %v", err)
	}
	// The mock device's factory PUK is "12345678"; ConfigurePUK rejects
	// reconfiguring to that same default value, so the rotation below uses a
	// distinct one.
	if _, err := (ConfigureSmartcardPUK{Device: dev, Serial: "31905234", CurrentPUK: "12345678", NewPUK: "87654321"}).Handle(a); err != nil {
		t.Fatalf("configure puk: %v", err)
	}
	if _, err := (RotateSmartcardManagementKey{Device: dev, Serial: "31905234", Algorithm: piv.ManagementKeyAES256}).Handle(a); err != nil {
		t.Fatalf("rotate management key: %v", err)
	}
	if a.Projection.Smartcards["31905234"].State != state.SmartcardProvisioned {
		t.Fatalf("expected card to be Provisioned after management key rotation")
	}

	if _, err := (PlanSlotAllocation{Serial: "31905234", Slot: piv.SlotAuthentication, PersonID: personID, Purpose: "workstation login"}).Handle(a); err != nil {
		t.Fatalf("plan slot allocation: %v", err)
	}
	if _, err := (GenerateSlotKey{Device: dev, Serial: "31905234", Slot: piv.SlotAuthentication, VendorRoot: dev.AttestationRoot()}).Handle(a); err != nil {
		t.Fatalf("generate slot key: %v", err)
	}
	if !a.Projection.Smartcards["31905234"].Slots["9a"].Provisioned {
		t.Fatal("expected slot 9a to be provisioned after a successful attestation")
	}
}

func TestGenerateSlotKeyFailedAttestationLeavesSlotUnprovisioned(t *testing.T) {
	a := newTestAggregate()
	dev, err := piv.NewMockDevice("11223344", "5.4.3")
	if err != nil {
		t.Fatalf("new mock device: %v", err)
	}
	other, err := piv.NewMockDevice("other", "5.4.3")
	if err != nil {
		t.Fatalf("new other mock device: %v", err)
	}
	if _, err := (DetectSmartcard{Serial: "11223344", FirmwareVersion: "5.4.3"}).Handle(a); err != nil {
		t.Fatalf("detect smartcard: %v", err)
	}
	personEvs, err := (CreatePerson{LegalName: "Taylor Singh", RoleIDs: []string{"engineer"}}).Handle(a)
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	if _, err := (PlanSlotAllocation{Serial: "11223344", Slot: piv.SlotSignature, PersonID: personEvs[0].AggregateID, Purpose: "document signing"}).Handle(a); err != nil {
		t.Fatalf("plan slot allocation: %v", err)
	}

	// Verifying against a different device's vendor root must fail: the
	// attestation chain was not issued by this trust anchor.
	if _, err := (GenerateSlotKey{Device: dev, Serial: "11223344", Slot: piv.SlotSignature, VendorRoot: other.AttestationRoot()}).Handle(a); err == nil {
		t.Fatal("expected attestation verification against the wrong vendor root to fail")
	}
	if slot := a.Projection.Smartcards["11223344"].Slots["9c"]; !slot.Allocated || slot.Provisioned {
		t.Fatalf("expected the slot to remain allocated but not provisioned, got %+v", slot)
	}
}
