package piv

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"time"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

var (
	errMockPINMismatch = errors.New("piv: mock pin mismatch")
	errMockPUKMismatch = errors.New("piv: mock puk mismatch")
)

// MockDevice simulates a PIV card entirely in memory: a self-contained
// attestation root/intermediate pair, per-slot keys, and the PIN/PUK/
// management-key state transitions the real protocol enforces. It exists so
// the full smartcard provisioning pipeline can be exercised without
// hardware, and so development on an air-gapped machine without a card
// attached can still validate the pipeline end to end.
type MockDevice struct {
	serial          string
	firmwareVersion string

	pin string
	puk string
	mgmtConfigured bool

	attestationRoot     *x509.Certificate
	attestationRootKey  crypto.Signer
	attestationInter    *x509.Certificate
	attestationInterKey crypto.Signer

	slotKeys  map[Slot]crypto.Signer
	slotCerts map[Slot]*x509.Certificate
}

// NewMockDevice builds a mock device with factory-default PIN/PUK and its
// own self-signed vendor attestation root, suitable as the VerifyAttestation
// trust anchor in tests.
func NewMockDevice(serial, firmwareVersion string) (*MockDevice, error) {
	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Mock Vendor Attestation Root"},
		NotBefore:             mockNotBefore,
		NotAfter:              mockNotAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	if err != nil {
		return nil, err
	}
	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		return nil, err
	}

	interKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	interTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "Mock Device Attestation Intermediate " + serial},
		NotBefore:             mockNotBefore,
		NotAfter:              mockNotAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	interDER, err := x509.CreateCertificate(rand.Reader, interTemplate, rootCert, &interKey.PublicKey, rootKey)
	if err != nil {
		return nil, err
	}
	interCert, err := x509.ParseCertificate(interDER)
	if err != nil {
		return nil, err
	}

	return &MockDevice{
		serial:              serial,
		firmwareVersion:     firmwareVersion,
		pin:                 factoryPIN,
		puk:                 factoryPUK,
		attestationRoot:     rootCert,
		attestationRootKey:  rootKey,
		attestationInter:    interCert,
		attestationInterKey: interKey,
		slotKeys:            make(map[Slot]crypto.Signer),
		slotCerts:           make(map[Slot]*x509.Certificate),
	}, nil
}

// AttestationRoot returns the mock vendor root, for use as the trust anchor
// passed to VerifyAttestation in tests.
func (d *MockDevice) AttestationRoot() *x509.Certificate { return d.attestationRoot }

func (d *MockDevice) Info() Info {
	return Info{Serial: d.serial, FirmwareVersion: d.firmwareVersion}
}

func (d *MockDevice) SetPIN(oldPIN, newPIN string) error {
	if oldPIN != d.pin {
		return xerrors.HardwareError("set pin", errMockPINMismatch)
	}
	d.pin = newPIN
	return nil
}

func (d *MockDevice) SetPUK(oldPUK, newPUK string) error {
	if oldPUK != d.puk {
		return xerrors.HardwareError("set puk", errMockPUKMismatch)
	}
	d.puk = newPUK
	return nil
}

func (d *MockDevice) SetManagementKey(algorithm ManagementKeyAlgorithm) error {
	d.mgmtConfigured = true
	return nil
}

func (d *MockDevice) GenerateKeyInSlot(slot Slot) (crypto.PublicKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	d.slotKeys[slot] = key
	return &key.PublicKey, nil
}

// Attest issues a mock attestation certificate over the slot's public key,
// signed by the device's attestation intermediate, proving (in this
// simulation) that the key was generated on-device.
func (d *MockDevice) Attest(slot Slot) (*x509.Certificate, error) {
	key, ok := d.slotKeys[slot]
	if !ok {
		return nil, xerrors.InvariantViolated("piv: mock device has no key in slot " + string(slot))
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "Slot Attestation " + string(slot)},
		NotBefore:    mockNotBefore,
		NotAfter:     mockNotAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, d.attestationInter, key.Public(), d.attestationInterKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}

func (d *MockDevice) AttestationIntermediate() (*x509.Certificate, error) {
	return d.attestationInter, nil
}

func (d *MockDevice) ImportCertificate(slot Slot, cert *x509.Certificate) error {
	d.slotCerts[slot] = cert
	return nil
}

func (d *MockDevice) Close() error { return nil }

var mockNotBefore = time.Now().UTC()
var mockNotAfter = mockNotBefore.AddDate(30, 0, 0)
