// Package pki implements the hierarchical X.509 signing engine: root and
// intermediate CA generation, leaf/server/client issuance (fresh keypair or
// CSR-based), and ordered chain verification. It is invoked by domain/command
// handlers, never called directly by callers outside the aggregate.
package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// KeyAlgorithm names a supported signing-key family.
type KeyAlgorithm string

const (
	AlgorithmRSA2048    KeyAlgorithm = "rsa-2048"
	AlgorithmRSA4096    KeyAlgorithm = "rsa-4096"
	AlgorithmECDSAP256  KeyAlgorithm = "ecdsa-p256"
	AlgorithmECDSAP384  KeyAlgorithm = "ecdsa-p384"
	AlgorithmEd25519    KeyAlgorithm = "ed25519"
)

// Purpose drives a leaf certificate's extended key usage.
type Purpose string

const (
	PurposeServerAuth  Purpose = "server-auth"
	PurposeClientAuth  Purpose = "client-auth"
	PurposeCodeSigning Purpose = "code-signing"
)

// Keypair is a generated or imported signing keypair; Private is nil for a
// keypair the caller only holds the public half of (e.g. a CSR subject).
type Keypair struct {
	Algorithm KeyAlgorithm
	Public    crypto.PublicKey
	Private   crypto.Signer
}

// GenerateKeypair mints a fresh keypair for algo.
func GenerateKeypair(algo KeyAlgorithm) (*Keypair, error) {
	switch algo {
	case AlgorithmRSA2048:
		return newRSAKeypair(algo, 2048)
	case AlgorithmRSA4096:
		return newRSAKeypair(algo, 4096)
	case AlgorithmECDSAP256:
		return newECDSAKeypair(algo, elliptic.P256())
	case AlgorithmECDSAP384:
		return newECDSAKeypair(algo, elliptic.P384())
	case AlgorithmEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, xerrors.CryptoFailure("generate ed25519 keypair", err)
		}
		return &Keypair{Algorithm: algo, Public: pub, Private: priv}, nil
	default:
		return nil, xerrors.InvariantViolated(fmt.Sprintf("pki: unsupported key algorithm %q", algo))
	}
}

func newRSAKeypair(algo KeyAlgorithm, bits int) (*Keypair, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, xerrors.CryptoFailure("generate rsa keypair", err)
	}
	return &Keypair{Algorithm: algo, Public: &key.PublicKey, Private: key}, nil
}

func newECDSAKeypair(algo KeyAlgorithm, curve elliptic.Curve) (*Keypair, error) {
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, xerrors.CryptoFailure("generate ecdsa keypair", err)
	}
	return &Keypair{Algorithm: algo, Public: &key.PublicKey, Private: key}, nil
}

// signatureAlgorithm selects the X.509 signature algorithm for a signer's key
// type: RSA -> SHA-256-with-RSA, ECDSA-P256/P384 -> SHA-256/384-with-ECDSA,
// Ed25519 -> Ed25519. A mismatch (unsupported key type) is a domain error.
func signatureAlgorithm(signer crypto.Signer) (x509.SignatureAlgorithm, error) {
	switch pub := signer.Public().(type) {
	case *rsa.PublicKey:
		return x509.SHA256WithRSA, nil
	case *ecdsa.PublicKey:
		switch pub.Curve {
		case elliptic.P256():
			return x509.ECDSAWithSHA256, nil
		case elliptic.P384():
			return x509.ECDSAWithSHA384, nil
		default:
			return 0, xerrors.InvariantViolated("pki: unsupported ecdsa curve for signing")
		}
	case ed25519.PublicKey:
		return x509.PureEd25519, nil
	default:
		return 0, xerrors.InvariantViolated("pki: unsupported signer key type")
	}
}

// Certificate is the result of an issuance operation: the parsed certificate
// alongside its DER encoding, ready for event payload construction.
type Certificate struct {
	DER  []byte
	Cert *x509.Certificate
}

// RootParams describes a self-signed root CA.
type RootParams struct {
	Subject       pkix.Name
	ValidityYears int
	Algorithm     KeyAlgorithm
	PathLen       int // default 2, permits root -> hosting-intermediate -> client-intermediate -> leaf
	SerialNumber  *big.Int
}

// IntermediateParams describes an intermediate CA signed by a parent CA.
type IntermediateParams struct {
	Subject       pkix.Name
	ValidityYears int
	Algorithm     KeyAlgorithm
	ParentCert    *x509.Certificate
	ParentKey     crypto.Signer
	SerialNumber  *big.Int
}

// LeafParams describes a server/client/code-signing leaf certificate.
type LeafParams struct {
	Subject        pkix.Name
	ValidityDays   int
	Purpose        Purpose
	DNSNames       []string
	IPAddresses    []string
	EmailAddresses []string
	ParentCert     *x509.Certificate
	ParentKey      crypto.Signer
	SerialNumber   *big.Int
}

func extKeyUsageFor(purpose Purpose) ([]x509.ExtKeyUsage, error) {
	switch purpose {
	case PurposeServerAuth:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, nil
	case PurposeClientAuth:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}, nil
	case PurposeCodeSigning:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning}, nil
	default:
		return nil, xerrors.InvariantViolated(fmt.Sprintf("pki: unsupported leaf purpose %q", purpose))
	}
}

func now() time.Time { return time.Now().UTC() }
