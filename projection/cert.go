package projection

import (
	"path/filepath"
	"time"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

type certificateMetadata struct {
	CertificateID      ids.ID    `json:"certificate_id"`
	SubjectDN          string    `json:"subject_dn"`
	IssuerCertID       *ids.ID   `json:"issuer_cert_id,omitempty"`
	KeyID              *ids.ID   `json:"key_id,omitempty"`
	NotBefore          time.Time `json:"not_before"`
	NotAfter           time.Time `json:"not_after"`
	IsCA               bool      `json:"is_ca"`
	PathLenConstraint  *int      `json:"path_len_constraint,omitempty"`
	DNSNames           []string  `json:"dns_names,omitempty"`
	KeyUsage           []string  `json:"key_usage,omitempty"`
	ExtKeyUsage        []string  `json:"ext_key_usage,omitempty"`
	SignatureAlgorithm string    `json:"signature_algorithm"`
}

func (w *Writer) writeCertificateFiles(certID ids.ID, der []byte) (string, error) {
	dir := entityDir(w.root, "certificates", certID)
	if err := writeFile(filepath.Join(dir, "cert.der"), der); err != nil {
		return dir, err
	}
	return dir, writeFile(filepath.Join(dir, "cert.pem"), pemBlock("CERTIFICATE", der))
}

func (w *Writer) recordCertificateEntry(certID ids.ID, st string) error {
	w.manifest.Certificates[certID.String()] = Entry{ID: certID.String(), CreatedAt: ids.Timestamp(certID), State: st}
	w.manifest.Counts["certificates"] = len(w.manifest.Certificates)
	return w.saveManifest()
}

func (w *Writer) applyCertificateGenerated(ev event.Event, p event.CertificateGenerated) error {
	dir, err := w.writeCertificateFiles(p.CertificateID, p.DER)
	if err != nil {
		return err
	}
	keyID := p.KeyID
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), certificateMetadata{
		CertificateID: p.CertificateID, SubjectDN: p.SubjectDN, IssuerCertID: p.IssuerCertID, KeyID: &keyID,
		NotBefore: p.NotBefore, NotAfter: p.NotAfter, IsCA: p.IsCA, PathLenConstraint: p.PathLenConstraint,
		DNSNames: p.DNSNames, KeyUsage: p.KeyUsage, ExtKeyUsage: p.ExtKeyUsage, SignatureAlgorithm: p.SignatureAlgorithm,
	}); err != nil {
		return err
	}
	initial := string(state.CertIssued)
	if err := w.writeState(dir, state.CertificateMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	return w.recordCertificateEntry(p.CertificateID, initial)
}

func (w *Writer) applyCertificateSigned(ev event.Event, p event.CertificateSigned) error {
	dir, err := w.writeCertificateFiles(p.CertificateID, p.DER)
	if err != nil {
		return err
	}
	issuer := p.IssuerCertID
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), certificateMetadata{
		CertificateID: p.CertificateID, SubjectDN: p.SubjectDN, IssuerCertID: &issuer,
		NotBefore: p.NotBefore, NotAfter: p.NotAfter, DNSNames: p.DNSNames,
		KeyUsage: p.KeyUsage, ExtKeyUsage: p.ExtKeyUsage, SignatureAlgorithm: p.SignatureAlgorithm,
	}); err != nil {
		return err
	}
	initial := string(state.CertIssued)
	if err := w.writeState(dir, state.CertificateMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	return w.recordCertificateEntry(p.CertificateID, initial)
}

func (w *Writer) applyCertificateTransition(ev event.Event, certID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, "certificates", certID)
	terminal := state.CertificateMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.Certificates[certID.String()]; ok {
		entry.State = to
		w.manifest.Certificates[certID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

func (w *Writer) applyCertificateImportedToSlot(ev event.Event, p event.CertificateImportedToSlot) error {
	dir := entityDir(w.root, "certificates", p.CertificateID)
	return writeJSONFile(filepath.Join(dir, "slot.json"), map[string]string{
		"smartcard_serial": p.SmartcardSerial,
		"slot":             p.Slot,
	})
}

func (w *Writer) applyPkiHierarchyCreated(ev event.Event, p event.PkiHierarchyCreated) error {
	return writeJSONFile(filepath.Join(w.root, "certificates", "hierarchies", p.RootCertID.String()+".json"), p)
}

func (w *Writer) applyTrustEstablished(ev event.Event, p event.TrustEstablished) error {
	return writeJSONFile(filepath.Join(w.root, "certificates", p.LeafCertID.String(), "trust.json"), p)
}
