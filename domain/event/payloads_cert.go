package event

import (
	"time"

	"github.com/cowboyai/genesis-issuer/internal/ids"
)

const (
	KindPkiHierarchyCreated     Kind = "PkiHierarchyCreated"
	KindCertificateGenerated    Kind = "CertificateGenerated"
	KindCertificateSigned       Kind = "CertificateSigned"
	KindCertificateImportedToSlot Kind = "CertificateImportedToSlot"
	KindCertificateExported     Kind = "CertificateExported"
	KindCertificateRenewalInitiated Kind = "CertificateRenewalInitiated"
	KindCertificateRenewed      Kind = "CertificateRenewed"
	KindCertificateRevoked      Kind = "CertificateRevoked"
	KindCertificateExpired      Kind = "CertificateExpired"
	KindCertificateArchived     Kind = "CertificateArchived"
	KindTrustEstablished        Kind = "TrustEstablished"
)

// CertificateGenerated records a newly issued certificate (root, intermediate
// or leaf). IssuerCertID is nil for a self-signed root.
type CertificateGenerated struct {
	CertificateID      ids.ID    `json:"certificate_id"`
	SubjectDN          string    `json:"subject_dn"`
	IssuerCertID       *ids.ID   `json:"issuer_cert_id,omitempty"`
	KeyID              ids.ID    `json:"key_id"`
	NotBefore          time.Time `json:"not_before"`
	NotAfter           time.Time `json:"not_after"`
	IsCA               bool      `json:"is_ca"`
	PathLenConstraint  *int      `json:"path_len_constraint,omitempty"`
	DNSNames           []string  `json:"dns_names,omitempty"`
	IPAddresses        []string  `json:"ip_addresses,omitempty"`
	EmailAddresses     []string  `json:"email_addresses,omitempty"`
	KeyUsage           []string  `json:"key_usage"`
	ExtKeyUsage        []string  `json:"ext_key_usage,omitempty"`
	SignatureAlgorithm string    `json:"signature_algorithm"`
	DER                []byte    `json:"der"`
}

func (CertificateGenerated) Kind() Kind { return KindCertificateGenerated }

// CertificateSigned records CSR-based issuance: identical to CertificateGenerated
// except the public key and subject originated from a caller-supplied CSR.
type CertificateSigned struct {
	CertificateID      ids.ID    `json:"certificate_id"`
	SubjectDN          string    `json:"subject_dn"`
	IssuerCertID       ids.ID    `json:"issuer_cert_id"`
	NotBefore          time.Time `json:"not_before"`
	NotAfter           time.Time `json:"not_after"`
	DNSNames           []string  `json:"dns_names,omitempty"`
	KeyUsage           []string  `json:"key_usage"`
	ExtKeyUsage        []string  `json:"ext_key_usage,omitempty"`
	SignatureAlgorithm string    `json:"signature_algorithm"`
	DER                []byte    `json:"der"`
	CSRFingerprint     string    `json:"csr_fingerprint"`
}

func (CertificateSigned) Kind() Kind { return KindCertificateSigned }

// CertificateImportedToSlot records that a PKI-issued leaf certificate has
// been written into a smartcard slot over an attested on-device key.
type CertificateImportedToSlot struct {
	CertificateID ids.ID `json:"certificate_id"`
	SmartcardSerial string `json:"smartcard_serial"`
	Slot          string `json:"slot"`
}

func (CertificateImportedToSlot) Kind() Kind { return KindCertificateImportedToSlot }

// CertificateExported records an export-of-existing-certificate operation.
// ExportedAt is an independent timestamp: the certificate already exists, so
// this is not the identifier-derivable creation time.
type CertificateExported struct {
	CertificateID ids.ID    `json:"certificate_id"`
	Format        string    `json:"format"` // "pem" | "der" | "bundle"
	Destination   string    `json:"destination"`
	ExportedAt    time.Time `json:"exported_at"`
}

func (CertificateExported) Kind() Kind { return KindCertificateExported }

// CertificateRenewalInitiated transitions a certificate Active -> RenewalPending.
type CertificateRenewalInitiated struct {
	CertificateID ids.ID `json:"certificate_id"`
}

func (CertificateRenewalInitiated) Kind() Kind { return KindCertificateRenewalInitiated }

// CertificateRenewed transitions a certificate RenewalPending -> Renewed,
// pointing at the certificate that replaces it.
type CertificateRenewed struct {
	CertificateID    ids.ID `json:"certificate_id"`
	SuccessorCertID  ids.ID `json:"successor_cert_id"`
}

func (CertificateRenewed) Kind() Kind { return KindCertificateRenewed }

// CertificateRevoked is a terminal transition; a CRL record is published.
type CertificateRevoked struct {
	CertificateID ids.ID `json:"certificate_id"`
	Reason        string `json:"reason"`
	RevokedAt     time.Time `json:"revoked_at"`
}

func (CertificateRevoked) Kind() Kind { return KindCertificateRevoked }

// CertificateExpired records natural expiry of a certificate's validity window.
type CertificateExpired struct {
	CertificateID ids.ID `json:"certificate_id"`
}

func (CertificateExpired) Kind() Kind { return KindCertificateExpired }

// CertificateArchived is a terminal transition for a certificate record.
type CertificateArchived struct {
	CertificateID ids.ID `json:"certificate_id"`
}

func (CertificateArchived) Kind() Kind { return KindCertificateArchived }

// PkiHierarchyCreated summarizes a root+intermediate(+...) bootstrap as one
// logical fact, in addition to the individual CertificateGenerated events
// that share its correlation ID.
type PkiHierarchyCreated struct {
	RootCertID          ids.ID   `json:"root_cert_id"`
	IntermediateCertIDs []ids.ID `json:"intermediate_cert_ids"`
}

func (PkiHierarchyCreated) Kind() Kind { return KindPkiHierarchyCreated }

// TrustEstablished records that a chain-verification run accepted a chain as
// valid, pinning the leaf and root at the time of verification.
type TrustEstablished struct {
	LeafCertID ids.ID   `json:"leaf_cert_id"`
	ChainIDs   []ids.ID `json:"chain_ids"`
	VerifiedAt time.Time `json:"verified_at"`
}

func (TrustEstablished) Kind() Kind { return KindTrustEstablished }
