package projection

import (
	"path/filepath"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
)

func smartcardDir(root, serial string) string {
	return filepath.Join(root, "smartcards", serial)
}

type smartcardMetadata struct {
	Serial          string `json:"serial"`
	FirmwareVersion string `json:"firmware_version"`
}

func (w *Writer) applySmartcardDetected(ev event.Event, p event.YubiKeyDetected) error {
	dir := smartcardDir(w.root, p.Serial)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), smartcardMetadata{Serial: p.Serial, FirmwareVersion: p.FirmwareVersion}); err != nil {
		return err
	}
	initial := string(state.SmartcardDetected)
	if err := w.writeState(dir, state.SmartcardMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.Smartcards[p.Serial] = Entry{ID: p.Serial, State: initial}
	w.manifest.Counts["smartcards"] = len(w.manifest.Smartcards)
	return w.saveManifest()
}

func (w *Writer) applySmartcardTransition(ev event.Event, serial string, reason string, to string) error {
	dir := smartcardDir(w.root, serial)
	terminal := state.SmartcardMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.Smartcards[serial]; ok {
		entry.State = to
		w.manifest.Smartcards[serial] = entry
		return w.saveManifest()
	}
	return nil
}

// applyPinConfigured and applyPukConfigured persist only the hash and retry
// count, never the plaintext credential — the event itself never carries it
// either (see domain/event.PinConfigured's doc comment).
func (w *Writer) applyPinConfigured(ev event.Event, p event.PinConfigured) error {
	dir := smartcardDir(w.root, p.Serial)
	return writeJSONFile(filepath.Join(dir, "pin.json"), map[string]any{
		"pin_hash":    p.PinHash,
		"retry_count": p.RetryCount,
	})
}

func (w *Writer) applyPukConfigured(ev event.Event, p event.PukConfigured) error {
	dir := smartcardDir(w.root, p.Serial)
	return writeJSONFile(filepath.Join(dir, "puk.json"), map[string]any{
		"puk_hash":    p.PukHash,
		"retry_count": p.RetryCount,
	})
}

func (w *Writer) applyManagementKeyRotated(ev event.Event, p event.ManagementKeyRotated) error {
	dir := smartcardDir(w.root, p.Serial)
	return writeJSONFile(filepath.Join(dir, "management_key.json"), map[string]string{"algorithm": p.Algorithm})
}

func (w *Writer) applySlotAllocationPlanned(ev event.Event, p event.SlotAllocationPlanned) error {
	dir := smartcardDir(w.root, p.Serial)
	return writeJSONFile(filepath.Join(dir, "slots", p.Slot+".json"), map[string]any{
		"person_id": p.PersonID,
		"purpose":   p.Purpose,
		"allocated": true,
	})
}

// applySmartcardSealed marks the card's slots immutable without claiming a
// state-machine transition: Sealed is not one of state.SmartcardMachine's
// named states (the card's lifecycle state is unaffected; only its
// management key has been discarded), so this writes a side marker rather
// than overwriting state.json with a label the machine would reject.
func (w *Writer) applySmartcardSealed(ev event.Event, p event.SmartcardSealed) error {
	dir := smartcardDir(w.root, p.Serial)
	return writeJSONFile(filepath.Join(dir, "sealed.json"), map[string]bool{"sealed": true})
}

func (w *Writer) applyKeyGeneratedInSlot(ev event.Event, p event.KeyGeneratedInSlot) error {
	dir := smartcardDir(w.root, p.Serial)
	if err := writeFile(filepath.Join(dir, "slots", p.Slot+"_public.pem"), pemBlock("PUBLIC KEY", p.PublicKey)); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "slots", p.Slot+"_attestation.der"), p.AttestationCertDER); err != nil {
		return err
	}
	return writeJSONFile(filepath.Join(dir, "slots", p.Slot+".json"), map[string]any{
		"allocated":   true,
		"provisioned": true,
	})
}
