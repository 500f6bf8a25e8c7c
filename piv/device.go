package piv

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	ykpiv "github.com/go-piv/piv-go/v2/piv"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// slotRef maps our Slot enum to piv-go's standard slot handles.
func slotRef(slot Slot) (ykpiv.Slot, error) {
	switch slot {
	case SlotAuthentication:
		return ykpiv.SlotAuthentication, nil
	case SlotSignature:
		return ykpiv.SlotSignature, nil
	case SlotKeyManagement:
		return ykpiv.SlotKeyManagement, nil
	case SlotCardAuthentication:
		return ykpiv.SlotCardAuthentication, nil
	default:
		return ykpiv.Slot{}, xerrors.InvariantViolated(fmt.Sprintf("piv: unknown slot %q", slot))
	}
}

// YubiKeyDevice is the production Device backed by an attached PIV card via
// go-piv. The management key in effect for the session is tracked in memory
// only, in a buffer that Close zeroes.
type YubiKeyDevice struct {
	card       string
	yk         *ykpiv.YubiKey
	managementKey [24]byte
}

// OpenYubiKey opens the named PIV card (one of the names returned by
// ListYubiKeys) for exclusive use; only one PIV session may be open on a
// given card at a time.
func OpenYubiKey(card string) (*YubiKeyDevice, error) {
	yk, err := ykpiv.Open(card)
	if err != nil {
		return nil, xerrors.HardwareError("open card", err)
	}
	return &YubiKeyDevice{card: card, yk: yk, managementKey: ykpiv.DefaultManagementKey}, nil
}

// ListYubiKeys enumerates attached PIV-capable devices.
func ListYubiKeys() ([]string, error) {
	cards, err := ykpiv.Cards()
	if err != nil {
		return nil, xerrors.HardwareError("list cards", err)
	}
	return cards, nil
}

func (d *YubiKeyDevice) Info() Info {
	serial, err := d.yk.Serial()
	if err != nil {
		return Info{Serial: d.card}
	}
	version := d.yk.Version()
	return Info{
		Serial:          fmt.Sprintf("%d", serial),
		FirmwareVersion: fmt.Sprintf("%d.%d.%d", version.Major, version.Minor, version.Patch),
	}
}

func (d *YubiKeyDevice) SetPIN(oldPIN, newPIN string) error {
	return d.yk.SetPIN(oldPIN, newPIN)
}

func (d *YubiKeyDevice) SetPUK(oldPUK, newPUK string) error {
	return d.yk.SetPUK(oldPUK, newPUK)
}

func (d *YubiKeyDevice) SetManagementKey(algorithm ManagementKeyAlgorithm) error {
	var newKey [24]byte
	if _, err := rand.Read(newKey[:]); err != nil {
		return fmt.Errorf("piv: read random management key: %w", err)
	}
	if err := d.yk.SetManagementKey(d.managementKey, newKey); err != nil {
		return err
	}
	d.managementKey = newKey
	return nil
}

func (d *YubiKeyDevice) GenerateKeyInSlot(slot Slot) (crypto.PublicKey, error) {
	ref, err := slotRef(slot)
	if err != nil {
		return nil, err
	}
	pub, err := d.yk.GenerateKey(d.managementKey, ref, ykpiv.Key{
		Algorithm:   ykpiv.AlgorithmEC256,
		PINPolicy:   ykpiv.PINPolicyOnce,
		TouchPolicy: ykpiv.TouchPolicyNever,
	})
	if err != nil {
		return nil, err
	}
	return pub, nil
}

func (d *YubiKeyDevice) Attest(slot Slot) (*x509.Certificate, error) {
	ref, err := slotRef(slot)
	if err != nil {
		return nil, err
	}
	return d.yk.Attest(ref)
}

func (d *YubiKeyDevice) AttestationIntermediate() (*x509.Certificate, error) {
	return d.yk.AttestationCertificate()
}

func (d *YubiKeyDevice) ImportCertificate(slot Slot, cert *x509.Certificate) error {
	ref, err := slotRef(slot)
	if err != nil {
		return err
	}
	return d.yk.SetCertificate(d.managementKey, ref, cert)
}

func (d *YubiKeyDevice) Close() error {
	for i := range d.managementKey {
		d.managementKey[i] = 0
	}
	return d.yk.Close()
}
