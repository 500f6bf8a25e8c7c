// Package piv implements the smartcard (PIV) provisioning engine: device
// discovery, security configuration (PIN/PUK/management key), on-device key
// generation with attestation, and slot-level certificate import. It is an
// external-service port consumed by domain/command's aggregate, mirroring
// the PKI and messaging engines' shape: pure functions over an explicit
// Device handle, no package-level state.
package piv

import (
	"crypto"
	"crypto/x509"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// Slot is a standard PIV key-storage slot.
type Slot string

const (
	SlotAuthentication  Slot = "9a"
	SlotSignature       Slot = "9c"
	SlotKeyManagement   Slot = "9d"
	SlotCardAuthentication Slot = "9e"
)

// ManagementKeyAlgorithm names the algorithm used for the card's management
// key, which is firmware-dependent: older cards only support TripleDES,
// newer firmware supports AES-256.
type ManagementKeyAlgorithm string

const (
	ManagementKeyTripleDES ManagementKeyAlgorithm = "TripleDes"
	ManagementKeyAES256    ManagementKeyAlgorithm = "Aes256"
)

// DefaultPINRetries and DefaultPUKRetries match the PIV standard factory
// configuration; a card is only considered provisioned once both have been
// set to a non-default value at least once.
const (
	DefaultPINRetries = 3
	DefaultPUKRetries = 3

	factoryPIN = "123456"
	factoryPUK = "12345678"
)

// Info describes a discovered device.
type Info struct {
	Serial          string
	FirmwareVersion string
}

// Device abstracts the PIV operations the engine needs, so the same
// pipeline runs against a real card (via github.com/go-piv/piv-go/v2) or a
// mock device for air-gapped development and test scenarios (see MockDevice).
type Device interface {
	Info() Info
	SetPIN(oldPIN, newPIN string) error
	SetPUK(oldPUK, newPUK string) error
	SetManagementKey(algorithm ManagementKeyAlgorithm) error
	GenerateKeyInSlot(slot Slot) (crypto.PublicKey, error)
	Attest(slot Slot) (*x509.Certificate, error)
	AttestationIntermediate() (*x509.Certificate, error)
	ImportCertificate(slot Slot, cert *x509.Certificate) error
	Close() error
}

// PinHash and PukHash are the only PIN/PUK-derived artifacts the projection
// is permitted to retain: plaintext PIN/PUK are never persisted, only hashes
// for future comparison against attempted defaults.
func isDefaultPIN(pin string) bool { return pin == factoryPIN }
func isDefaultPUK(puk string) bool { return puk == factoryPUK }

// ConfigurePIN sets the card's PIN to a non-default value and returns the
// hash to persist. Rejects an attempt to "configure" the factory default,
// since spec invariant 7 requires a Provisioned+ card never retain it.
func ConfigurePIN(dev Device, currentPIN, newPIN string, hash func(string) []byte) ([]byte, error) {
	if isDefaultPIN(newPIN) {
		return nil, xerrors.InvariantViolated("piv: refusing to configure PIN to factory default")
	}
	if err := dev.SetPIN(currentPIN, newPIN); err != nil {
		return nil, xerrors.HardwareError("set pin", err)
	}
	return hash(newPIN), nil
}

// ConfigurePUK is ConfigurePIN's counterpart for the PIN-unlock key.
func ConfigurePUK(dev Device, currentPUK, newPUK string, hash func(string) []byte) ([]byte, error) {
	if isDefaultPUK(newPUK) {
		return nil, xerrors.InvariantViolated("piv: refusing to configure PUK to factory default")
	}
	if err := dev.SetPUK(currentPUK, newPUK); err != nil {
		return nil, xerrors.HardwareError("set puk", err)
	}
	return hash(newPUK), nil
}

// RotateManagementKey rotates the card's management key away from its
// factory-default value, passing the caller's algorithm to the device
// unchanged; it does not inspect the firmware version.
func RotateManagementKey(dev Device, algorithm ManagementKeyAlgorithm) error {
	if err := dev.SetManagementKey(algorithm); err != nil {
		return xerrors.HardwareError("rotate management key", err)
	}
	return nil
}

// SlotKeyResult is the outcome of an on-device keygen-plus-attestation step.
type SlotKeyResult struct {
	PublicKey          crypto.PublicKey
	AttestationCert    *x509.Certificate
	AttestationCertDER []byte
}

// GenerateAttestedKey generates a key on-device in slot and captures its
// attestation certificate, proving the key never left the device. The
// attestation chain is NOT yet verified here — see VerifyAttestation.
func GenerateAttestedKey(dev Device, slot Slot) (*SlotKeyResult, error) {
	pub, err := dev.GenerateKeyInSlot(slot)
	if err != nil {
		return nil, xerrors.HardwareError("generate key in slot", err)
	}
	attestCert, err := dev.Attest(slot)
	if err != nil {
		return nil, xerrors.HardwareError("attest slot", err)
	}
	return &SlotKeyResult{
		PublicKey:          pub,
		AttestationCert:    attestCert,
		AttestationCertDER: attestCert.Raw,
	}, nil
}

// VerifyAttestation checks that the slot's attestation certificate chains to
// the device's own attestation intermediate, which must itself chain to the
// trusted vendor root supplied by the caller. A failure here is
// non-retryable and security-classified: the slot must remain
// SlotAllocationPlanned, never Provisioned.
func VerifyAttestation(dev Device, slotCert *x509.Certificate, vendorRoot *x509.Certificate) error {
	intermediate, err := dev.AttestationIntermediate()
	if err != nil {
		return xerrors.HardwareError("read attestation intermediate", err)
	}

	roots := x509.NewCertPool()
	roots.AddCert(vendorRoot)
	intermediates := x509.NewCertPool()
	intermediates.AddCert(intermediate)

	if _, err := slotCert.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return xerrors.AttestationFailed(err.Error())
	}
	return nil
}

// ImportLeafCertificate writes a PKI-issued certificate over an attested
// on-device key into the card's slot, completing slot provisioning.
func ImportLeafCertificate(dev Device, slot Slot, cert *x509.Certificate) error {
	if err := dev.ImportCertificate(slot, cert); err != nil {
		return xerrors.HardwareError("import certificate to slot", err)
	}
	return nil
}

// Seal rotates the management key to a value the caller discards immediately
// and never records, making the card's slots immutable thereafter. Terminal:
// callers must not retain the rotated-to key anywhere.
func Seal(dev Device, discardedKeyAlgorithm ManagementKeyAlgorithm) error {
	if err := dev.SetManagementKey(discardedKeyAlgorithm); err != nil {
		return xerrors.HardwareError("seal: rotate management key to discarded value", err)
	}
	return nil
}
