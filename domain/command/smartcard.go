package command

import (
	"crypto/x509"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/piv"
)

// DetectSmartcard records discovery of a PIV-capable device, the entry point
// of the provisioning pipeline.
type DetectSmartcard struct {
	Serial          string
	FirmwareVersion string
}

func (c DetectSmartcard) Handle(a *Aggregate) ([]event.Event, error) {
	if _, exists := a.Projection.Smartcards[c.Serial]; exists {
		return nil, xerrors.InvariantViolated("smartcard " + c.Serial + " already detected")
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.YubiKeyDetected{Serial: c.Serial, FirmwareVersion: c.FirmwareVersion})
	if err != nil {
		return nil, err
	}

	a.Projection.Smartcards[c.Serial] = &SmartcardState{
		Serial: c.Serial, State: state.SmartcardDetected, Slots: make(map[string]*SmartcardSlotState),
	}
	return []event.Event{ev}, nil
}

func resolveCard(a *Aggregate, serial string) (*SmartcardState, error) {
	card, ok := a.Projection.Smartcards[serial]
	if !ok {
		return nil, xerrors.AggregateNotFound("Smartcard", serial)
	}
	return card, nil
}

// ConfigureSmartcardPIN sets the card's PIN away from its factory default;
// Device is the live (or mock) handle this provisioning session holds open.
type ConfigureSmartcardPIN struct {
	Device     piv.Device
	Serial     string
	CurrentPIN string
	NewPIN     string
}

func (c ConfigureSmartcardPIN) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}

	hash, err := piv.ConfigurePIN(c.Device, c.CurrentPIN, c.NewPIN, a.HashFunc)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.PinConfigured{Serial: c.Serial, PinHash: hash, RetryCount: piv.DefaultPINRetries})
	if err != nil {
		return nil, err
	}

	card.PinHash = hash
	return []event.Event{ev}, nil
}

// ConfigureSmartcardPUK is ConfigureSmartcardPIN's counterpart for the
// PIN-unlock key.
type ConfigureSmartcardPUK struct {
	Device     piv.Device
	Serial     string
	CurrentPUK string
	NewPUK     string
}

func (c ConfigureSmartcardPUK) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}

	hash, err := piv.ConfigurePUK(c.Device, c.CurrentPUK, c.NewPUK, a.HashFunc)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.PukConfigured{Serial: c.Serial, PukHash: hash, RetryCount: piv.DefaultPUKRetries})
	if err != nil {
		return nil, err
	}

	card.PukHash = hash
	return []event.Event{ev}, nil
}

// RotateSmartcardManagementKey rotates the card's management key away from
// its factory default, completing the security configuration pipeline and
// transitioning the card Detected -> Provisioned.
type RotateSmartcardManagementKey struct {
	Device    piv.Device
	Serial    string
	Algorithm piv.ManagementKeyAlgorithm
}

func (c RotateSmartcardManagementKey) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	if card.PinHash == nil || card.PukHash == nil {
		return nil, xerrors.InvariantViolated("piv: pin and puk must be configured before the management key")
	}

	if err := piv.RotateManagementKey(c.Device, c.Algorithm); err != nil {
		return nil, err
	}

	to, err := state.SmartcardMachine.Transition(card.State, state.SmartcardProvisioned)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.ManagementKeyRotated{Serial: c.Serial, Algorithm: string(c.Algorithm)})
	if err != nil {
		return nil, err
	}

	card.State = to
	card.ManagementKeyAlgorithm = string(c.Algorithm)
	return []event.Event{ev}, nil
}

// PlanSlotAllocation reserves a PIV slot for a person and purpose ahead of
// on-device key generation.
type PlanSlotAllocation struct {
	Serial   string
	Slot     piv.Slot
	PersonID ids.ID
	Purpose  string
}

func (c PlanSlotAllocation) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	if _, ok := a.Projection.People[c.PersonID]; !ok {
		return nil, xerrors.AggregateNotFound("Person", c.PersonID.String())
	}
	if existing, ok := card.Slots[string(c.Slot)]; ok && existing.Allocated {
		return nil, xerrors.InvariantViolated("piv: slot " + string(c.Slot) + " already allocated")
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.SlotAllocationPlanned{
		Serial: c.Serial, Slot: string(c.Slot), PersonID: c.PersonID, Purpose: c.Purpose,
	})
	if err != nil {
		return nil, err
	}

	card.Slots[string(c.Slot)] = &SmartcardSlotState{Allocated: true, PersonID: c.PersonID, Purpose: c.Purpose}
	return []event.Event{ev}, nil
}

// GenerateSlotKey generates a key on-device in the planned slot and verifies
// its attestation chain against the trusted vendor root. A failed
// attestation leaves the slot at SlotAllocationPlanned, never Provisioned:
// the key is not trusted and the pipeline must not continue with it.
type GenerateSlotKey struct {
	Device     piv.Device
	Serial     string
	Slot       piv.Slot
	VendorRoot *x509.Certificate
}

func (c GenerateSlotKey) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	slot, ok := card.Slots[string(c.Slot)]
	if !ok || !slot.Allocated {
		return nil, xerrors.InvariantViolated("piv: slot " + string(c.Slot) + " has no planned allocation")
	}

	result, err := piv.GenerateAttestedKey(c.Device, c.Slot)
	if err != nil {
		return nil, err
	}
	if err := piv.VerifyAttestation(c.Device, result.AttestationCert, c.VendorRoot); err != nil {
		return nil, err
	}

	publicKeyDER, err := marshalPublicKey(result.PublicKey)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.KeyGeneratedInSlot{
		Serial: c.Serial, Slot: string(c.Slot), PublicKey: publicKeyDER, AttestationCertDER: result.AttestationCertDER,
	})
	if err != nil {
		return nil, err
	}

	slot.Provisioned = true
	slot.PublicKey = result.PublicKey
	slot.AttestationCertDER = result.AttestationCertDER
	return []event.Event{ev}, nil
}

// ImportSlotCertificate writes a PKI-issued certificate over an attested
// on-device key into the card's slot, completing provisioning of that slot
// and transitioning the card Provisioned -> Active.
type ImportSlotCertificate struct {
	Device        piv.Device
	Serial        string
	Slot          piv.Slot
	CertificateID ids.ID
}

func (c ImportSlotCertificate) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	slot, ok := card.Slots[string(c.Slot)]
	if !ok || !slot.Provisioned {
		return nil, xerrors.InvariantViolated("piv: slot " + string(c.Slot) + " has no attested key to import onto")
	}
	cert, ok := a.Projection.Certificates[c.CertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}

	if err := piv.ImportLeafCertificate(c.Device, c.Slot, cert.Cert); err != nil {
		return nil, err
	}

	var events []event.Event
	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.CertificateImportedToSlot{
		CertificateID: c.CertificateID, SmartcardSerial: c.Serial, Slot: string(c.Slot),
	})
	if err != nil {
		return nil, err
	}
	events = append(events, ev)

	if card.State == state.SmartcardProvisioned {
		to, err := state.SmartcardMachine.Transition(card.State, state.SmartcardActive)
		if err != nil {
			return nil, err
		}
		card.State = to
	}
	return events, nil
}

// SealSmartcard rotates the management key to a value the caller discards,
// making the card's slots immutable. It does not change the card's lifecycle
// state: a sealed card remains Active, now permanently fixed.
type SealSmartcard struct {
	Device              piv.Device
	Serial              string
	DiscardedKeyAlgorithm piv.ManagementKeyAlgorithm
}

func (c SealSmartcard) Handle(a *Aggregate) ([]event.Event, error) {
	if _, err := resolveCard(a, c.Serial); err != nil {
		return nil, err
	}
	if err := piv.Seal(c.Device, c.DiscardedKeyAlgorithm); err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.SmartcardSealed{Serial: c.Serial})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// LockSmartcard records PIN-retry exhaustion.
type LockSmartcard struct {
	Serial string
}

func (c LockSmartcard) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	to, err := state.SmartcardMachine.Transition(card.State, state.SmartcardLocked)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.SmartcardLocked{Serial: c.Serial})
	if err != nil {
		return nil, err
	}

	card.State = to
	return []event.Event{ev}, nil
}

// ReportSmartcardLost records an operator-reported loss.
type ReportSmartcardLost struct {
	Serial string
}

func (c ReportSmartcardLost) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	to, err := state.SmartcardMachine.Transition(card.State, state.SmartcardLost)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.SmartcardLost{Serial: c.Serial})
	if err != nil {
		return nil, err
	}

	card.State = to
	return []event.Event{ev}, nil
}

// RetireSmartcard is the terminal end-of-life transition.
type RetireSmartcard struct {
	Serial string
	Reason string
}

func (c RetireSmartcard) Handle(a *Aggregate) ([]event.Event, error) {
	card, err := resolveCard(a, c.Serial)
	if err != nil {
		return nil, err
	}
	to, err := state.SmartcardMachine.Transition(card.State, state.SmartcardRetired)
	if err != nil {
		return nil, err
	}

	b := newBatch(ids.New(), ids.Nil)
	ev, err := b.Emit(event.SmartcardRetired{Serial: c.Serial, Reason: c.Reason})
	if err != nil {
		return nil, err
	}

	card.State = to
	return []event.Event{ev}, nil
}
