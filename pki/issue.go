package pki

import (
	"crypto/rand"
	"crypto/x509"
	"math/big"
	"net"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// GenerateRoot creates a self-signed root CA certificate with the given
// path-length constraint (default N=2, permitting root -> hosting
// intermediate -> client intermediate -> leaf).
func GenerateRoot(params RootParams, keypair *Keypair) (*Certificate, error) {
	sigAlg, err := signatureAlgorithm(keypair.Private)
	if err != nil {
		return nil, err
	}

	pathLen := params.PathLen
	if pathLen == 0 {
		pathLen = 2
	}

	serial := params.SerialNumber
	if serial == nil {
		serial = mustRandomSerial()
	}

	notBefore := now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               params.Subject,
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(params.ValidityYears, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            pathLen,
		MaxPathLenZero:        pathLen == 0,
		SignatureAlgorithm:    sigAlg,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, keypair.Public, keypair.Private)
	if err != nil {
		return nil, xerrors.CryptoFailure("create root certificate", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, xerrors.CryptoFailure("parse generated root certificate", err)
	}
	return &Certificate{DER: der, Cert: cert}, nil
}

// GenerateIntermediate creates an intermediate CA signed by the parent's
// private key. The intermediate's path length must be strictly less than the
// parent's: parent.MaxPathLen - 1. A parent with MaxPathLen == 0 cannot issue
// any intermediate (InvariantViolated).
func GenerateIntermediate(params IntermediateParams, keypair *Keypair) (*Certificate, error) {
	if params.ParentCert.MaxPathLenZero || params.ParentCert.MaxPathLen <= 0 {
		return nil, xerrors.InvariantViolated("pki: parent CA path length does not permit issuing an intermediate")
	}

	sigAlg, err := signatureAlgorithm(params.ParentKey)
	if err != nil {
		return nil, err
	}

	childPathLen := params.ParentCert.MaxPathLen - 1

	serial := params.SerialNumber
	if serial == nil {
		serial = mustRandomSerial()
	}

	notBefore := now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               params.Subject,
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(params.ValidityYears, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            childPathLen,
		MaxPathLenZero:        childPathLen == 0,
		SignatureAlgorithm:    sigAlg,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, params.ParentCert, keypair.Public, params.ParentKey)
	if err != nil {
		return nil, xerrors.CryptoFailure("create intermediate certificate", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, xerrors.CryptoFailure("parse generated intermediate certificate", err)
	}
	return &Certificate{DER: der, Cert: cert}, nil
}

// GenerateLeaf issues a server/client/code-signing certificate over a freshly
// generated keypair.
func GenerateLeaf(params LeafParams, keypair *Keypair) (*Certificate, error) {
	template, err := leafTemplate(params)
	if err != nil {
		return nil, err
	}
	sigAlg, err := signatureAlgorithm(params.ParentKey)
	if err != nil {
		return nil, err
	}
	template.SignatureAlgorithm = sigAlg

	der, err := x509.CreateCertificate(rand.Reader, template, params.ParentCert, keypair.Public, params.ParentKey)
	if err != nil {
		return nil, xerrors.CryptoFailure("create leaf certificate", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, xerrors.CryptoFailure("parse generated leaf certificate", err)
	}
	return &Certificate{DER: der, Cert: cert}, nil
}

// SignCSR issues a leaf certificate whose subject and public key come from a
// caller-supplied, already signature-verified CSR rather than a fresh keypair.
func SignCSR(csr *x509.CertificateRequest, params LeafParams) (*Certificate, error) {
	if err := csr.CheckSignature(); err != nil {
		return nil, xerrors.CryptoFailure("verify csr signature", err)
	}

	params.Subject = csr.Subject
	params.DNSNames = appendUnique(params.DNSNames, csr.DNSNames)
	params.EmailAddresses = appendUnique(params.EmailAddresses, csr.EmailAddresses)

	template, err := leafTemplate(params)
	if err != nil {
		return nil, err
	}
	sigAlg, err := signatureAlgorithm(params.ParentKey)
	if err != nil {
		return nil, err
	}
	template.SignatureAlgorithm = sigAlg

	der, err := x509.CreateCertificate(rand.Reader, template, params.ParentCert, csr.PublicKey, params.ParentKey)
	if err != nil {
		return nil, xerrors.CryptoFailure("create csr-signed certificate", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, xerrors.CryptoFailure("parse csr-signed certificate", err)
	}
	return &Certificate{DER: der, Cert: cert}, nil
}

func leafTemplate(params LeafParams) (*x509.Certificate, error) {
	extKeyUsage, err := extKeyUsageFor(params.Purpose)
	if err != nil {
		return nil, err
	}

	serial := params.SerialNumber
	if serial == nil {
		serial = mustRandomSerial()
	}

	ips := make([]net.IP, 0, len(params.IPAddresses))
	for _, addr := range params.IPAddresses {
		ip := net.ParseIP(addr)
		if ip == nil {
			return nil, xerrors.InvariantViolated("pki: invalid IP SAN " + addr)
		}
		ips = append(ips, ip)
	}

	notBefore := now()
	return &x509.Certificate{
		SerialNumber:          serial,
		Subject:               params.Subject,
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, params.ValidityDays),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           extKeyUsage,
		BasicConstraintsValid: true,
		IsCA:                  false,
		DNSNames:              params.DNSNames,
		IPAddresses:           ips,
		EmailAddresses:        params.EmailAddresses,
	}, nil
}

func appendUnique(base []string, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	for _, v := range extra {
		if !seen[v] {
			base = append(base, v)
			seen[v] = true
		}
	}
	return base
}

func mustRandomSerial() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 159)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		panic("pki: failed to generate random serial: " + err.Error())
	}
	return serial
}
