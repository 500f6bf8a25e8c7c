package projection

import (
	"path/filepath"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

type keyMetadata struct {
	KeyID     ids.ID          `json:"key_id"`
	Algorithm event.Algorithm `json:"algorithm"`
	Purpose   string          `json:"purpose"`
	OwnerID   *ids.ID         `json:"owner_id,omitempty"`
	SlotRef   *string         `json:"slot_ref,omitempty"`
}

func (w *Writer) applyKeyCreated(ev event.Event, keyID ids.ID, algo event.Algorithm, purpose string, publicKey []byte, ownerID *ids.ID, slotRef *string, initialState string) error {
	dir := entityDir(w.root, "keys", keyID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), keyMetadata{
		KeyID: keyID, Algorithm: algo, Purpose: purpose, OwnerID: ownerID, SlotRef: slotRef,
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "public.pem"), pemBlock("PUBLIC KEY", publicKey)); err != nil {
		return err
	}
	if err := w.writeState(dir, state.KeyMachine.IsTerminal(state.State(initialState)), initialState, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.Keys[keyID.String()] = Entry{ID: keyID.String(), CreatedAt: ids.Timestamp(keyID), State: initialState}
	w.manifest.Counts["keys"] = len(w.manifest.Keys)
	return w.saveManifest()
}

func (w *Writer) applyKeyTransition(ev event.Event, keyID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, "keys", keyID)
	terminal := state.KeyMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.Keys[keyID.String()]; ok {
		entry.State = to
		w.manifest.Keys[keyID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

// applyKeyRotationInitiated records the transition plus the successor key's
// id, which state.json has no field for (it carries only this key's own
// state, not a pointer to a sibling aggregate).
func (w *Writer) applyKeyRotationInitiated(ev event.Event, p event.KeyRotationInitiated) error {
	if err := w.applyKeyTransition(ev, p.KeyID, "", "RotationPending"); err != nil {
		return err
	}
	dir := entityDir(w.root, "keys", p.KeyID)
	return writeJSONFile(filepath.Join(dir, "rotation.json"), map[string]string{
		"successor_key_id": p.SuccessorKeyID.String(),
	})
}
