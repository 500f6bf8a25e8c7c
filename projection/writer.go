// Package projection materializes the event-sourced aggregate's history onto
// an on-disk tree: the system's sole persistent state, durable and
// inspectable by a downstream tool after the output volume is physically
// transported. Applying the same event log twice, from an empty root, yields
// the same tree, except for the timestamps recorded in each state.json, which
// are taken from the clock at the time of writing.
package projection

import (
	"crypto"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/cryptutil"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// Writer applies events to a tree rooted at Root, one command's events at a
// time. Apply holds the Writer's mutex for the whole call, so concurrent
// calls are serialized.
type Writer struct {
	mu         sync.Mutex
	root       string
	passphrase []byte
	actor      string
	manifest   *Manifest
}

// Open loads (or initializes) the manifest at root and returns a Writer
// ready to apply events. actor identifies who is driving this session, for
// state.json provenance (see stateDoc); passphrase seals non-hardware
// private key material written via SealPrivateKey.
func Open(root string, passphrase []byte, actor string) (*Writer, error) {
	m, err := loadManifest(root)
	if err != nil {
		return nil, err
	}
	return &Writer{root: root, passphrase: passphrase, actor: actor, manifest: m}, nil
}

// stateDoc is the shape written to every entity's state.json: the
// information §4.7 requires on every lifecycle transition.
type stateDoc struct {
	State         string    `json:"state"`
	Reason        string    `json:"reason,omitempty"`
	Actor         string    `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID ids.ID    `json:"correlation_id"`
	Terminal      bool      `json:"terminal,omitempty"`
}

// normalizePayload collapses the pointer-vs-value asymmetry between a
// freshly emitted event (value-typed payload) and one decoded off the wire
// by domain/event.Unmarshal (pointer-typed payload), so every handler below
// only ever matches on the value type.
func normalizePayload(p event.Payload) event.Payload {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		return v.Elem().Interface().(event.Payload)
	}
	return p
}

func entityDir(root, section string, id fmt.Stringer) string {
	return filepath.Join(root, section, id.String())
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("projection: encode %s: %w", path, err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return xerrors.IoFailure(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return xerrors.IoFailure(path, err)
	}
	return nil
}

func (w *Writer) writeState(dir string, machineTerminal bool, st string, reason string, correlationID ids.ID) error {
	doc := stateDoc{
		State:         st,
		Reason:        reason,
		Actor:         w.actor,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Terminal:      machineTerminal,
	}
	return writeJSONFile(filepath.Join(dir, "state.json"), doc)
}

func (w *Writer) saveManifest() error {
	return w.manifest.save(w.root)
}

// Apply advances the on-disk tree by one event. It is the projection's only
// general-purpose entry point; sensitive material that never travels through
// the event log (private keys, bearer-token strings) reaches disk only
// through SealPrivateKey and WriteExportArtifact, called by the caller that
// still holds that material in memory alongside the event that authorized it.
func (w *Writer) Apply(ev event.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload := normalizePayload(ev.Payload)
	switch p := payload.(type) {
	case event.OrganizationCreated:
		return w.applyOrganizationCreated(ev, p)
	case event.OrganizationUnitAdded:
		return w.applyOrganizationUnitAdded(ev, p)
	case event.PersonCreated:
		return w.applyPersonCreated(ev, p)
	case event.PersonActivated:
		return w.applyPersonTransition(ev, p.PersonID, p.Reason, "Active")
	case event.PersonSuspended:
		return w.applyPersonTransition(ev, p.PersonID, p.Reason, "Suspended")
	case event.PersonDeactivated:
		return w.applyPersonTransition(ev, p.PersonID, p.Reason, "Deactivated")
	case event.PersonArchived:
		return w.applyPersonTransition(ev, p.PersonID, "", "Archived")
	case event.LocationPlanned:
		return w.applyLocationPlanned(ev, p)
	case event.LocationActivated:
		return w.applyLocationTransition(ev, p.LocationID, "", "Active")
	case event.LocationDecommissioned:
		return w.applyLocationDecommissioned(ev, p)
	case event.LocationArchived:
		return w.applyLocationTransition(ev, p.LocationID, "", "Archived")

	case event.KeyGenerated:
		return w.applyKeyCreated(ev, p.KeyID, p.Algorithm, p.Purpose, p.PublicKey, p.OwnerID, p.SlotRef, "Generated")
	case event.KeyImported:
		return w.applyKeyCreated(ev, p.KeyID, p.Algorithm, p.Purpose, p.PublicKey, p.OwnerID, nil, "Imported")
	case event.KeyStoredOffline:
		return w.applyKeyTransition(ev, p.KeyID, "", "Active")
	case event.KeyRevoked:
		return w.applyKeyTransition(ev, p.KeyID, p.Reason, "Revoked")
	case event.KeyRotationInitiated:
		return w.applyKeyRotationInitiated(ev, p)
	case event.KeyRotationCompleted:
		return w.applyKeyTransition(ev, p.KeyID, "", "Rotated")
	case event.KeyExpired:
		return w.applyKeyTransition(ev, p.KeyID, "", "Expired")
	case event.KeyArchived:
		return w.applyKeyTransition(ev, p.KeyID, "", "Archived")

	case event.CertificateGenerated:
		return w.applyCertificateGenerated(ev, p)
	case event.CertificateSigned:
		return w.applyCertificateSigned(ev, p)
	case event.CertificateImportedToSlot:
		return w.applyCertificateImportedToSlot(ev, p)
	case event.CertificateExported:
		return nil // recorded via WriteExportArtifact at the caller's discretion
	case event.CertificateRenewalInitiated:
		return w.applyCertificateTransition(ev, p.CertificateID, "", "RenewalPending")
	case event.CertificateRenewed:
		return w.applyCertificateTransition(ev, p.CertificateID, "", "Renewed")
	case event.CertificateRevoked:
		if err := w.applyCertificateTransition(ev, p.CertificateID, p.Reason, "Revoked"); err != nil {
			return err
		}
		return writeJSONFile(filepath.Join(w.root, "certificates", "crl", p.CertificateID.String()+".json"), p)
	case event.CertificateExpired:
		return w.applyCertificateTransition(ev, p.CertificateID, "", "Expired")
	case event.CertificateArchived:
		return w.applyCertificateTransition(ev, p.CertificateID, "", "Archived")
	case event.PkiHierarchyCreated:
		return w.applyPkiHierarchyCreated(ev, p)
	case event.TrustEstablished:
		return w.applyTrustEstablished(ev, p)

	case event.YubiKeyDetected:
		return w.applySmartcardDetected(ev, p)
	case event.YubiKeyProvisioned:
		return w.applySmartcardTransition(ev, p.Serial, "", "Provisioned")
	case event.PinConfigured:
		return w.applyPinConfigured(ev, p)
	case event.PukConfigured:
		return w.applyPukConfigured(ev, p)
	case event.ManagementKeyRotated:
		return w.applyManagementKeyRotated(ev, p)
	case event.SlotAllocationPlanned:
		return w.applySlotAllocationPlanned(ev, p)
	case event.KeyGeneratedInSlot:
		return w.applyKeyGeneratedInSlot(ev, p)
	case event.SmartcardSealed:
		return w.applySmartcardSealed(ev, p)
	case event.SmartcardLocked:
		return w.applySmartcardTransition(ev, p.Serial, "", "Locked")
	case event.SmartcardLost:
		return w.applySmartcardTransition(ev, p.Serial, "", "Lost")
	case event.SmartcardRetired:
		return w.applySmartcardTransition(ev, p.Serial, p.Reason, "Retired")

	case event.NatsOperatorCreated:
		return w.applyOperatorCreated(ev, p)
	case event.NatsOperatorSuspended:
		return w.applyOperatorTransition(ev, p.OperatorID, p.Reason, "Suspended")
	case event.NatsOperatorReactivated:
		return w.applyOperatorTransition(ev, p.OperatorID, "", "Active")
	case event.NatsOperatorRevoked:
		return w.applyOperatorTransition(ev, p.OperatorID, p.Reason, "Revoked")
	case event.NatsAccountCreated:
		return w.applyAccountCreated(ev, p)
	case event.NatsAccountSuspended:
		return w.applyAccountTransition(ev, p.AccountID, p.Reason, "Suspended")
	case event.NatsAccountReactivated:
		return w.applyAccountTransition(ev, p.AccountID, "", "Active")
	case event.NatsAccountDeleted:
		return w.applyAccountTransition(ev, p.AccountID, p.Reason, "Deleted")
	case event.NatsUserCreated:
		return w.applyUserCreated(ev, p)
	case event.NatsUserSuspended:
		return w.applyUserTransition(ev, p.UserID, p.Reason, "Suspended")
	case event.NatsUserReactivated:
		return w.applyUserTransition(ev, p.UserID, "", "Active")
	case event.NatsUserDeleted:
		return w.applyUserTransition(ev, p.UserID, p.Reason, "Deleted")
	case event.NatsSigningKeyGenerated:
		return w.applySigningKeyGenerated(ev, p)
	case event.NatsPermissionsSet:
		return w.applyPermissionsSet(ev, p)
	case event.NatsConfigExported:
		return nil // recorded via WriteExportArtifact at the caller's discretion
	case event.ServiceAccountCreated:
		return w.applyServiceAccountCreated(ev, p)
	case event.AgentCreated:
		return w.applyAgentCreated(ev, p)
	case event.AccountabilityValidated:
		return nil // audit-trail fact; no entity file to write beyond the event log itself
	case event.AccountabilityViolated:
		return nil // rejection path carries no created entity

	case event.RelationshipProposed:
		return w.applyRelationshipProposed(ev, p)
	case event.RelationshipActivated:
		return w.applyRelationshipTransition(ev, p.RelationshipID, "", "Active")
	case event.RelationshipModified:
		return w.applyRelationshipModified(ev, p)
	case event.RelationshipSuspended:
		return w.applyRelationshipTransition(ev, p.RelationshipID, p.Reason, "Suspended")
	case event.RelationshipTerminated:
		return w.applyRelationshipTransition(ev, p.RelationshipID, p.Reason, "Terminated")
	case event.RelationshipArchived:
		return w.applyRelationshipTransition(ev, p.RelationshipID, "", "Archived")

	case event.ClaimDefined:
		return w.applyClaimDefined(ev, p)
	case event.RoleDefined:
		return w.applyRoleDefined(ev, p)
	case event.PolicyCreated:
		return w.applyPolicyCreated(ev, p)
	case event.PolicyActivated:
		return w.applyPolicyTransition(ev, p.PolicyID, "", "Active")
	case event.PolicySuspended:
		return w.applyPolicyTransition(ev, p.PolicyID, p.Reason, "Suspended")
	case event.PolicyRevoked:
		return w.applyPolicyTransition(ev, p.PolicyID, p.Reason, "Revoked")
	case event.PolicyBindingCreated:
		return w.applyPolicyBindingCreated(ev, p)

	case event.ManifestCreated:
		return nil // the manifest is maintained incrementally by every handler above

	default:
		return xerrors.InvariantViolated(fmt.Sprintf("projection: no handler registered for payload kind %q", ev.Kind))
	}
}

// SealPrivateKey encrypts signer's private material at rest and writes it
// alongside the key's public half. It must be called by the same caller that
// applied the corresponding KeyGenerated/KeyImported event, since private
// material is deliberately never carried by the event itself (see
// domain/command.KeyState.Private and domain/event.KeyGenerated's doc
// comment). Calling it for a hardware-backed key is a caller error: those
// keys never leave the smartcard and have no private material to seal.
func (w *Writer) SealPrivateKey(keyID ids.ID, signer crypto.Signer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	der, err := x509.MarshalPKCS8PrivateKey(signer)
	if err != nil {
		return xerrors.CryptoFailure("marshal private key for sealing", err)
	}
	envelope, err := cryptutil.Seal(w.passphrase, []byte(keyID.String()), der)
	if err != nil {
		return xerrors.CryptoFailure("seal private key", err)
	}
	dir := entityDir(w.root, "keys", keyID)
	return writeFile(filepath.Join(dir, "private.enc"), []byte(envelope))
}

// WriteExportArtifact writes an explicit, caller-requested export (a JWT, an
// nkey seed-derived credentials file, an NSC-style directory entry) beneath
// the given directory relative to root. Unlike Apply, this path is only ever
// taken when the operator explicitly asks for an export — it is not replayed
// automatically from the event log, consistent with §4.7's rule that bearer
// tokens are never part of the durable, always-replayed projection.
func (w *Writer) WriteExportArtifact(relDir, filename string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return writeFile(filepath.Join(w.root, relDir, filename), data)
}

func pemBlock(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}
