package pki

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"net"
	"testing"
	"time"
)

func buildChain(t *testing.T) (leaf, intermediate, root *Certificate, intKey *Keypair) {
	t.Helper()

	rootKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("root keypair: %v", err)
	}
	root, err = GenerateRoot(RootParams{
		Subject:       pkix.Name{CommonName: "cowboyai Root"},
		ValidityYears: 20,
		Algorithm:     AlgorithmEd25519,
		PathLen:       2,
	}, rootKey)
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}

	intKey, err = GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("intermediate keypair: %v", err)
	}
	intermediate, err = GenerateIntermediate(IntermediateParams{
		Subject:       pkix.Name{CommonName: "cowboyai Hosting Intermediate"},
		ValidityYears: 10,
		ParentCert:    root.Cert,
		ParentKey:     rootKey.Private,
	}, intKey)
	if err != nil {
		t.Fatalf("generate intermediate: %v", err)
	}

	leafKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("leaf keypair: %v", err)
	}
	leaf, err = GenerateLeaf(LeafParams{
		Subject:      pkix.Name{CommonName: "app.example.com"},
		ValidityDays: 90,
		Purpose:      PurposeServerAuth,
		DNSNames:     []string{"app.example.com"},
		ParentCert:   intermediate.Cert,
		ParentKey:    intKey.Private,
	}, leafKey)
	if err != nil {
		t.Fatalf("generate leaf: %v", err)
	}
	return leaf, intermediate, root, intKey
}

func TestRootIntermediateLeafShapes(t *testing.T) {
	leaf, intermediate, root, _ := buildChain(t)

	if !root.Cert.IsCA || root.Cert.MaxPathLen != 2 {
		t.Fatalf("expected root CA with pathlen 2, got IsCA=%v pathlen=%d", root.Cert.IsCA, root.Cert.MaxPathLen)
	}
	if !intermediate.Cert.IsCA || intermediate.Cert.MaxPathLen != 1 {
		t.Fatalf("expected intermediate CA with pathlen 1, got IsCA=%v pathlen=%d", intermediate.Cert.IsCA, intermediate.Cert.MaxPathLen)
	}
	if leaf.Cert.IsCA {
		t.Fatal("expected leaf to have IsCA=false")
	}
	found := false
	for _, eku := range leaf.Cert.ExtKeyUsage {
		if eku == x509.ExtKeyUsageServerAuth {
			found = true
		}
	}
	if !found {
		t.Fatal("expected leaf extended key usage to include server-auth")
	}
}

func TestVerifyChainAcceptsValidChain(t *testing.T) {
	leaf, intermediate, root, _ := buildChain(t)
	err := VerifyChain(leaf.Cert, []*x509.Certificate{intermediate.Cert}, root.Cert, time.Now().UTC())
	if err != nil {
		t.Fatalf("expected valid chain, got error: %v", err)
	}
}

func TestVerifyChainRejectsExpiredLeaf(t *testing.T) {
	leaf, intermediate, root, _ := buildChain(t)
	farFuture := leaf.Cert.NotAfter.Add(24 * time.Hour)
	err := VerifyChain(leaf.Cert, []*x509.Certificate{intermediate.Cert}, root.Cert, farFuture)
	if err == nil {
		t.Fatal("expected chain verification to fail for a time past leaf expiry")
	}
}

func TestIntermediateUnderPathLenZeroParentRejected(t *testing.T) {
	rootKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("root keypair: %v", err)
	}
	root, err := GenerateRoot(RootParams{
		Subject:       pkix.Name{CommonName: "pathlen one root"},
		ValidityYears: 5,
		Algorithm:     AlgorithmEd25519,
		PathLen:       1,
	}, rootKey)
	if err != nil {
		t.Fatalf("generate root: %v", err)
	}

	// The intermediate under a pathlen=1 root carries pathlen=0.
	zeroKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("pathlen-0 intermediate keypair: %v", err)
	}
	zeroParent, err := GenerateIntermediate(IntermediateParams{
		Subject:       pkix.Name{CommonName: "zero pathlen intermediate"},
		ValidityYears: 5,
		ParentCert:    root.Cert,
		ParentKey:     rootKey.Private,
	}, zeroKey)
	if err != nil {
		t.Fatalf("generate pathlen-0 intermediate: %v", err)
	}

	intKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("intermediate keypair: %v", err)
	}
	_, err = GenerateIntermediate(IntermediateParams{
		Subject:       pkix.Name{CommonName: "should fail"},
		ValidityYears: 5,
		ParentCert:    zeroParent.Cert,
		ParentKey:     zeroKey.Private,
	}, intKey)
	if err == nil {
		t.Fatal("expected InvariantViolated issuing an intermediate under a pathlen=0 parent")
	}
}

func TestSignCSRUsesCallerSubjectAndKey(t *testing.T) {
	_, intermediate, _, intKey := buildChain(t)

	csrKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("csr keypair: %v", err)
	}
	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: "client.example.com"},
		DNSNames: []string{"client.example.com"},
	}, csrKey.Private)
	if err != nil {
		t.Fatalf("create csr: %v", err)
	}
	csr, err := x509.ParseCertificateRequest(csrDER)
	if err != nil {
		t.Fatalf("parse csr: %v", err)
	}

	signed, err := SignCSR(csr, LeafParams{
		ValidityDays: 30,
		Purpose:      PurposeClientAuth,
		ParentCert:   intermediate.Cert,
		ParentKey:    intKey.Private,
	})
	if err != nil {
		t.Fatalf("sign csr: %v", err)
	}
	if signed.Cert.Subject.CommonName != "client.example.com" {
		t.Fatalf("expected subject from csr, got %q", signed.Cert.Subject.CommonName)
	}
}

func TestGenerateLeafCarriesIPAddressSANs(t *testing.T) {
	_, intermediate, _, intKey := buildChain(t)

	leafKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("leaf keypair: %v", err)
	}
	leaf, err := GenerateLeaf(LeafParams{
		Subject:      pkix.Name{CommonName: "host.example.com"},
		ValidityDays: 30,
		Purpose:      PurposeServerAuth,
		DNSNames:     []string{"host.example.com"},
		IPAddresses:  []string{"10.0.0.5", "2001:db8::1"},
		ParentCert:   intermediate.Cert,
		ParentKey:    intKey.Private,
	}, leafKey)
	if err != nil {
		t.Fatalf("generate leaf: %v", err)
	}

	if len(leaf.Cert.IPAddresses) != 2 {
		t.Fatalf("expected 2 IP SANs, got %d", len(leaf.Cert.IPAddresses))
	}
	want := []net.IP{net.ParseIP("10.0.0.5"), net.ParseIP("2001:db8::1")}
	for i, ip := range want {
		if !leaf.Cert.IPAddresses[i].Equal(ip) {
			t.Fatalf("IP SAN %d: want %s, got %s", i, ip, leaf.Cert.IPAddresses[i])
		}
	}
}

func TestGenerateLeafRejectsUnparseableIPAddress(t *testing.T) {
	_, intermediate, _, intKey := buildChain(t)

	leafKey, err := GenerateKeypair(AlgorithmEd25519)
	if err != nil {
		t.Fatalf("leaf keypair: %v", err)
	}
	_, err = GenerateLeaf(LeafParams{
		Subject:      pkix.Name{CommonName: "bad.example.com"},
		ValidityDays: 30,
		Purpose:      PurposeServerAuth,
		IPAddresses:  []string{"not-an-ip"},
		ParentCert:   intermediate.Cert,
		ParentKey:    intKey.Private,
	}, leafKey)
	if err == nil {
		t.Fatal("expected InvariantViolated for unparseable IP SAN")
	}
}
