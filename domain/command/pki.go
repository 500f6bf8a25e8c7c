package command

import (
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"time"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/pki"
)

func keyUsageStrings(cert *x509.Certificate) []string {
	var out []string
	if cert.KeyUsage&x509.KeyUsageCertSign != 0 {
		out = append(out, "keyCertSign")
	}
	if cert.KeyUsage&x509.KeyUsageCRLSign != 0 {
		out = append(out, "cRLSign")
	}
	if cert.KeyUsage&x509.KeyUsageDigitalSignature != 0 {
		out = append(out, "digitalSignature")
	}
	if cert.KeyUsage&x509.KeyUsageKeyEncipherment != 0 {
		out = append(out, "keyEncipherment")
	}
	return out
}

func extKeyUsageStrings(cert *x509.Certificate) []string {
	var out []string
	for _, u := range cert.ExtKeyUsage {
		switch u {
		case x509.ExtKeyUsageServerAuth:
			out = append(out, "server-auth")
		case x509.ExtKeyUsageClientAuth:
			out = append(out, "client-auth")
		case x509.ExtKeyUsageCodeSigning:
			out = append(out, "code-signing")
		}
	}
	return out
}

func pathLenPointer(cert *x509.Certificate) *int {
	if !cert.IsCA {
		return nil
	}
	n := cert.MaxPathLen
	return &n
}

// IntermediateSpec describes one level of an intermediate chain within a
// CreatePkiHierarchy command, ordered root-adjacent first.
type IntermediateSpec struct {
	Subject       pkix.Name
	ValidityYears int
	Algorithm     pki.KeyAlgorithm
}

// CreatePkiHierarchy atomically produces a root CA plus zero or more
// intermediates, each signed by the one above it, sharing one correlation.
type CreatePkiHierarchy struct {
	RootSubject       pkix.Name
	RootValidityYears int
	RootAlgorithm     pki.KeyAlgorithm
	RootPathLen       int
	Intermediates     []IntermediateSpec
}

func (c CreatePkiHierarchy) Handle(a *Aggregate) ([]event.Event, error) {
	rootKeypair, err := pki.GenerateKeypair(c.RootAlgorithm)
	if err != nil {
		return nil, err
	}
	rootCert, err := pki.GenerateRoot(pki.RootParams{
		Subject:       c.RootSubject,
		ValidityYears: c.RootValidityYears,
		Algorithm:     c.RootAlgorithm,
		PathLen:       c.RootPathLen,
	}, rootKeypair)
	if err != nil {
		return nil, err
	}

	correlationID := ids.New()
	rootCertID := ids.New()

	var events []event.Event
	rootBatch := newBatch(rootCertID, correlationID)
	rootEv, err := rootBatch.Emit(event.CertificateGenerated{
		CertificateID:      rootCertID,
		SubjectDN:          rootCert.Cert.Subject.String(),
		KeyID:              ids.Nil,
		NotBefore:          rootCert.Cert.NotBefore,
		NotAfter:           rootCert.Cert.NotAfter,
		IsCA:               true,
		PathLenConstraint:  pathLenPointer(rootCert.Cert),
		KeyUsage:           keyUsageStrings(rootCert.Cert),
		SignatureAlgorithm: rootCert.Cert.SignatureAlgorithm.String(),
		DER:                rootCert.DER,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, rootEv)

	a.Projection.Certificates[rootCertID] = &CertificateState{
		ID: rootCertID, State: state.CertActive, IsCA: true,
		PathLenConstraint: pathLenPointer(rootCert.Cert), Cert: rootCert.Cert, Signer: rootKeypair.Private,
	}

	intermediateIDs := make([]ids.ID, 0, len(c.Intermediates))
	parentCert := rootCert.Cert
	parentKey := rootKeypair.Private

	for _, spec := range c.Intermediates {
		keypair, err := pki.GenerateKeypair(spec.Algorithm)
		if err != nil {
			return nil, err
		}
		cert, err := pki.GenerateIntermediate(pki.IntermediateParams{
			Subject:       spec.Subject,
			ValidityYears: spec.ValidityYears,
			Algorithm:     spec.Algorithm,
			ParentCert:    parentCert,
			ParentKey:     parentKey,
		}, keypair)
		if err != nil {
			return nil, err
		}

		certID := ids.New()
		b := newBatch(certID, correlationID)
		ev, err := b.Emit(event.CertificateGenerated{
			CertificateID:      certID,
			SubjectDN:          cert.Cert.Subject.String(),
			IssuerCertID:       rootOrParentID(rootCertID, intermediateIDs),
			KeyID:              ids.Nil,
			NotBefore:          cert.Cert.NotBefore,
			NotAfter:           cert.Cert.NotAfter,
			IsCA:               true,
			PathLenConstraint:  pathLenPointer(cert.Cert),
			KeyUsage:           keyUsageStrings(cert.Cert),
			SignatureAlgorithm: cert.Cert.SignatureAlgorithm.String(),
			DER:                cert.DER,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, ev)

		a.Projection.Certificates[certID] = &CertificateState{
			ID: certID, State: state.CertActive, IsCA: true,
			PathLenConstraint: pathLenPointer(cert.Cert), Cert: cert.Cert, Signer: keypair.Private,
		}

		intermediateIDs = append(intermediateIDs, certID)
		parentCert = cert.Cert
		parentKey = keypair.Private
	}

	summaryBatch := newBatch(rootCertID, correlationID)
	summaryEv, err := summaryBatch.Emit(event.PkiHierarchyCreated{RootCertID: rootCertID, IntermediateCertIDs: intermediateIDs})
	if err != nil {
		return nil, err
	}
	events = append(events, summaryEv)

	return events, nil
}

func rootOrParentID(rootID ids.ID, intermediatesSoFar []ids.ID) *ids.ID {
	if len(intermediatesSoFar) == 0 {
		id := rootID
		return &id
	}
	id := intermediatesSoFar[len(intermediatesSoFar)-1]
	return &id
}

// IssueLeafCertificate issues a server/client/code-signing certificate over
// a freshly generated keypair under an existing, Active parent CA.
type IssueLeafCertificate struct {
	ParentCertificateID ids.ID
	Subject             pkix.Name
	ValidityDays        int
	Purpose             pki.Purpose
	DNSNames            []string
	IPAddresses         []string
	EmailAddresses      []string
	Algorithm           pki.KeyAlgorithm
}

func (c IssueLeafCertificate) Handle(a *Aggregate) ([]event.Event, error) {
	parent, ok := a.Projection.Certificates[c.ParentCertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.ParentCertificateID.String())
	}
	if parent.State != state.CertActive {
		return nil, xerrors.InvariantViolated("pki: parent certificate must be Active to issue under it")
	}

	keypair, err := pki.GenerateKeypair(c.Algorithm)
	if err != nil {
		return nil, err
	}
	cert, err := pki.GenerateLeaf(pki.LeafParams{
		Subject:        c.Subject,
		ValidityDays:   c.ValidityDays,
		Purpose:        c.Purpose,
		DNSNames:       c.DNSNames,
		IPAddresses:    c.IPAddresses,
		EmailAddresses: c.EmailAddresses,
		ParentCert:     parent.Cert,
		ParentKey:      parent.Signer,
	}, keypair)
	if err != nil {
		return nil, err
	}

	certID := ids.New()
	b := newBatch(certID, ids.Nil)
	parentID := c.ParentCertificateID
	ev, err := b.Emit(event.CertificateGenerated{
		CertificateID:      certID,
		SubjectDN:          cert.Cert.Subject.String(),
		IssuerCertID:       &parentID,
		KeyID:              ids.Nil,
		NotBefore:          cert.Cert.NotBefore,
		NotAfter:           cert.Cert.NotAfter,
		IsCA:               false,
		DNSNames:           c.DNSNames,
		IPAddresses:        c.IPAddresses,
		EmailAddresses:     c.EmailAddresses,
		KeyUsage:           keyUsageStrings(cert.Cert),
		ExtKeyUsage:        extKeyUsageStrings(cert.Cert),
		SignatureAlgorithm: cert.Cert.SignatureAlgorithm.String(),
		DER:                cert.DER,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Certificates[certID] = &CertificateState{
		ID: certID, State: state.CertActive, IssuerCertID: &parentID, Cert: cert.Cert, Signer: keypair.Private,
	}
	return []event.Event{ev}, nil
}

// SignCertificateRequest issues a leaf certificate from a caller-supplied CSR.
type SignCertificateRequest struct {
	ParentCertificateID ids.ID
	CSR                 *x509.CertificateRequest
	ValidityDays        int
	Purpose             pki.Purpose
}

func (c SignCertificateRequest) Handle(a *Aggregate) ([]event.Event, error) {
	parent, ok := a.Projection.Certificates[c.ParentCertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.ParentCertificateID.String())
	}
	if parent.State != state.CertActive {
		return nil, xerrors.InvariantViolated("pki: parent certificate must be Active to sign a csr under it")
	}

	cert, err := pki.SignCSR(c.CSR, pki.LeafParams{
		ValidityDays: c.ValidityDays,
		Purpose:      c.Purpose,
		ParentCert:   parent.Cert,
		ParentKey:    parent.Signer,
	})
	if err != nil {
		return nil, err
	}

	fingerprint := sha256.Sum256(c.CSR.Raw)
	certID := ids.New()
	b := newBatch(certID, ids.Nil)
	parentID := c.ParentCertificateID
	ev, err := b.Emit(event.CertificateSigned{
		CertificateID:      certID,
		SubjectDN:          cert.Cert.Subject.String(),
		IssuerCertID:       parentID,
		NotBefore:          cert.Cert.NotBefore,
		NotAfter:           cert.Cert.NotAfter,
		DNSNames:           cert.Cert.DNSNames,
		KeyUsage:           keyUsageStrings(cert.Cert),
		ExtKeyUsage:        extKeyUsageStrings(cert.Cert),
		SignatureAlgorithm: cert.Cert.SignatureAlgorithm.String(),
		DER:                cert.DER,
		CSRFingerprint:     fmt.Sprintf("sha256:%x", fingerprint),
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Certificates[certID] = &CertificateState{
		ID: certID, State: state.CertActive, IssuerCertID: &parentID, Cert: cert.Cert,
	}
	return []event.Event{ev}, nil
}

// VerifyCertificateChain verifies an ordered chain and, if valid, records a
// TrustEstablished fact pinning the leaf and root at verification time.
type VerifyCertificateChain struct {
	LeafCertificateID          ids.ID
	IntermediateCertificateIDs []ids.ID
	RootCertificateID          ids.ID
	At                         time.Time
}

func (c VerifyCertificateChain) Handle(a *Aggregate) ([]event.Event, error) {
	leaf, ok := a.Projection.Certificates[c.LeafCertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.LeafCertificateID.String())
	}
	root, ok := a.Projection.Certificates[c.RootCertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.RootCertificateID.String())
	}
	intermediates := make([]*x509.Certificate, 0, len(c.IntermediateCertificateIDs))
	chainIDs := append([]ids.ID{c.LeafCertificateID}, c.IntermediateCertificateIDs...)
	for _, id := range c.IntermediateCertificateIDs {
		cs, ok := a.Projection.Certificates[id]
		if !ok {
			return nil, xerrors.AggregateNotFound("Certificate", id.String())
		}
		intermediates = append(intermediates, cs.Cert)
	}
	chainIDs = append(chainIDs, c.RootCertificateID)

	at := c.At
	if at.IsZero() {
		at = a.clock()
	}
	if err := pki.VerifyChain(leaf.Cert, intermediates, root.Cert, at); err != nil {
		return nil, err
	}

	certID := c.LeafCertificateID
	b := newBatch(certID, ids.Nil)
	ev, err := b.Emit(event.TrustEstablished{LeafCertID: c.LeafCertificateID, ChainIDs: chainIDs, VerifiedAt: at})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// ExportCertificate records that an existing certificate was exported in a
// given format to a destination.
type ExportCertificate struct {
	CertificateID ids.ID
	Format        string
	Destination   string
}

func (c ExportCertificate) Handle(a *Aggregate) ([]event.Event, error) {
	if _, ok := a.Projection.Certificates[c.CertificateID]; !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}
	b := newBatch(c.CertificateID, ids.Nil)
	ev, err := b.Emit(event.CertificateExported{
		CertificateID: c.CertificateID,
		Format:        c.Format,
		Destination:   c.Destination,
		ExportedAt:    a.clock(),
	})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// InitiateCertificateRenewal transitions a certificate Active -> RenewalPending.
type InitiateCertificateRenewal struct {
	CertificateID ids.ID
}

func (c InitiateCertificateRenewal) Handle(a *Aggregate) ([]event.Event, error) {
	cert, ok := a.Projection.Certificates[c.CertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}
	to, err := state.CertificateMachine.Transition(cert.State, state.CertRenewalPending)
	if err != nil {
		return nil, err
	}
	b := newBatch(c.CertificateID, ids.Nil)
	ev, err := b.Emit(event.CertificateRenewalInitiated{CertificateID: c.CertificateID})
	if err != nil {
		return nil, err
	}
	cert.State = to
	return []event.Event{ev}, nil
}

// CompleteCertificateRenewal transitions RenewalPending -> Renewed, pointing
// at the certificate that replaces this one.
type CompleteCertificateRenewal struct {
	CertificateID   ids.ID
	SuccessorCertID ids.ID
}

func (c CompleteCertificateRenewal) Handle(a *Aggregate) ([]event.Event, error) {
	cert, ok := a.Projection.Certificates[c.CertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}
	to, err := state.CertificateMachine.Transition(cert.State, state.CertRenewed)
	if err != nil {
		return nil, err
	}
	b := newBatch(c.CertificateID, ids.Nil)
	ev, err := b.Emit(event.CertificateRenewed{CertificateID: c.CertificateID, SuccessorCertID: c.SuccessorCertID})
	if err != nil {
		return nil, err
	}
	cert.State = to
	return []event.Event{ev}, nil
}

// RevokeCertificate is a terminal transition; a CRL record is published as a
// side effect of the same command by the projection writer, not here.
type RevokeCertificate struct {
	CertificateID ids.ID
	Reason        string
}

func (c RevokeCertificate) Handle(a *Aggregate) ([]event.Event, error) {
	cert, ok := a.Projection.Certificates[c.CertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}
	to, err := state.CertificateMachine.Transition(cert.State, state.CertRevoked)
	if err != nil {
		return nil, err
	}
	b := newBatch(c.CertificateID, ids.Nil)
	ev, err := b.Emit(event.CertificateRevoked{CertificateID: c.CertificateID, Reason: c.Reason, RevokedAt: a.clock()})
	if err != nil {
		return nil, err
	}
	cert.State = to
	cert.Signer = nil
	return []event.Event{ev}, nil
}

// ExpireCertificate records natural expiry of a certificate's validity window.
type ExpireCertificate struct {
	CertificateID ids.ID
}

func (c ExpireCertificate) Handle(a *Aggregate) ([]event.Event, error) {
	cert, ok := a.Projection.Certificates[c.CertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}
	to, err := state.CertificateMachine.Transition(cert.State, state.CertExpired)
	if err != nil {
		return nil, err
	}
	b := newBatch(c.CertificateID, ids.Nil)
	ev, err := b.Emit(event.CertificateExpired{CertificateID: c.CertificateID})
	if err != nil {
		return nil, err
	}
	cert.State = to
	return []event.Event{ev}, nil
}

// ArchiveCertificate is a terminal transition for a certificate record.
type ArchiveCertificate struct {
	CertificateID ids.ID
}

func (c ArchiveCertificate) Handle(a *Aggregate) ([]event.Event, error) {
	cert, ok := a.Projection.Certificates[c.CertificateID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Certificate", c.CertificateID.String())
	}
	to, err := state.CertificateMachine.Transition(cert.State, state.CertArchived)
	if err != nil {
		return nil, err
	}
	b := newBatch(c.CertificateID, ids.Nil)
	ev, err := b.Emit(event.CertificateArchived{CertificateID: c.CertificateID})
	if err != nil {
		return nil, err
	}
	cert.State = to
	return []event.Event{ev}, nil
}
