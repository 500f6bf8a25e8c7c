package event

import "github.com/cowboyai/genesis-issuer/internal/ids"

const (
	KindYubiKeyDetected        Kind = "YubiKeyDetected"
	KindYubiKeyProvisioned     Kind = "YubiKeyProvisioned"
	KindPinConfigured          Kind = "PinConfigured"
	KindPukConfigured          Kind = "PukConfigured"
	KindManagementKeyRotated   Kind = "ManagementKeyRotated"
	KindSlotAllocationPlanned  Kind = "SlotAllocationPlanned"
	KindKeyGeneratedInSlot     Kind = "KeyGeneratedInSlot"
	KindSmartcardSealed        Kind = "SmartcardSealed"
	KindSmartcardLocked        Kind = "SmartcardLocked"
	KindSmartcardLost          Kind = "SmartcardLost"
	KindSmartcardRetired       Kind = "SmartcardRetired"
)

// YubiKeyDetected records discovery of a PIV-capable device. "YubiKey" names
// the concrete device family the engine was validated against; the slot
// model (9a/9c/9d/9e) is the generic PIV standard.
type YubiKeyDetected struct {
	Serial          string `json:"serial"`
	FirmwareVersion string `json:"firmware_version"`
}

func (YubiKeyDetected) Kind() Kind { return KindYubiKeyDetected }

// YubiKeyProvisioned records that the card has completed the security
// configuration pipeline (PIN, PUK, management key all non-default) and
// transitioned Detected -> Provisioned.
type YubiKeyProvisioned struct {
	Serial string `json:"serial"`
}

func (YubiKeyProvisioned) Kind() Kind { return KindYubiKeyProvisioned }

// PinConfigured records that the card's PIN has been set to a non-default
// value; only the hash is carried, never the plaintext PIN.
type PinConfigured struct {
	Serial     string `json:"serial"`
	PinHash    []byte `json:"pin_hash"`
	RetryCount int    `json:"retry_count"`
}

func (PinConfigured) Kind() Kind { return KindPinConfigured }

// PukConfigured is PinConfigured's counterpart for the PIN-unlock key.
type PukConfigured struct {
	Serial     string `json:"serial"`
	PukHash    []byte `json:"puk_hash"`
	RetryCount int    `json:"retry_count"`
}

func (PukConfigured) Kind() Kind { return KindPukConfigured }

// ManagementKeyRotated records a management-key rotation away from the
// factory default. Algorithm is firmware-dependent (TripleDes on older
// firmware, Aes256 on newer).
type ManagementKeyRotated struct {
	Serial    string `json:"serial"`
	Algorithm string `json:"algorithm"`
}

func (ManagementKeyRotated) Kind() Kind { return KindManagementKeyRotated }

// SlotAllocationPlanned binds a PIV slot to a person and purpose ahead of
// on-device key generation.
type SlotAllocationPlanned struct {
	Serial   string `json:"serial"`
	Slot     string `json:"slot"` // "9a" | "9c" | "9d" | "9e"
	PersonID ids.ID `json:"person_id"`
	Purpose  string `json:"purpose"`
}

func (SlotAllocationPlanned) Kind() Kind { return KindSlotAllocationPlanned }

// KeyGeneratedInSlot records an on-device keygen whose public key was
// returned and whose attestation chain verified against the vendor root.
// Private material never leaves the device and is never part of this event.
type KeyGeneratedInSlot struct {
	Serial            string `json:"serial"`
	Slot              string `json:"slot"`
	PublicKey         []byte `json:"public_key"`
	AttestationCertDER []byte `json:"attestation_cert_der"`
}

func (KeyGeneratedInSlot) Kind() Kind { return KindKeyGeneratedInSlot }

// SmartcardSealed is a terminal operation: the management key has been
// rotated to a discarded random value, so the card's slots are immutable.
type SmartcardSealed struct {
	Serial string `json:"serial"`
}

func (SmartcardSealed) Kind() Kind { return KindSmartcardSealed }

// SmartcardLocked records PIN-retry exhaustion.
type SmartcardLocked struct {
	Serial string `json:"serial"`
}

func (SmartcardLocked) Kind() Kind { return KindSmartcardLocked }

// SmartcardLost records an operator-reported loss.
type SmartcardLost struct {
	Serial string `json:"serial"`
}

func (SmartcardLost) Kind() Kind { return KindSmartcardLost }

// SmartcardRetired is the terminal end-of-life transition.
type SmartcardRetired struct {
	Serial string `json:"serial"`
	Reason string `json:"reason"`
}

func (SmartcardRetired) Kind() Kind { return KindSmartcardRetired }
