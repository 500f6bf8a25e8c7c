package projection

import (
	"path/filepath"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// Relationships, claims, roles and policies have no directory in spec.md's
// literal layout (§4.7 only enumerates organization/people/locations/keys/
// certificates/nats/*), despite each having its own event catalogue and
// state machine. They get the same per-entity-directory treatment as every
// other aggregate here rather than going unprojected.

type relationshipMetadata struct {
	RelationshipID ids.ID  `json:"relationship_id"`
	SourceID       ids.ID  `json:"source_id"`
	TargetID       ids.ID  `json:"target_id"`
	Type           string  `json:"type"`
	ValidFrom      string  `json:"valid_from"`
	ValidUntil     *string `json:"valid_until,omitempty"`
	Strength       float64 `json:"strength"`
}

func (w *Writer) applyRelationshipProposed(ev event.Event, p event.RelationshipProposed) error {
	dir := entityDir(w.root, "relationships", p.RelationshipID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), relationshipMetadata{
		RelationshipID: p.RelationshipID, SourceID: p.SourceID, TargetID: p.TargetID, Type: p.Type,
		ValidFrom: p.ValidFrom, ValidUntil: p.ValidUntil, Strength: p.Strength,
	}); err != nil {
		return err
	}
	initial := string(state.RelationshipProposed)
	if err := w.writeState(dir, state.RelationshipMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.Relationships[p.RelationshipID.String()] = Entry{ID: p.RelationshipID.String(), CreatedAt: ids.Timestamp(p.RelationshipID), State: initial}
	w.manifest.Counts["relationships"] = len(w.manifest.Relationships)
	return w.saveManifest()
}

func (w *Writer) applyRelationshipModified(ev event.Event, p event.RelationshipModified) error {
	dir := entityDir(w.root, "relationships", p.RelationshipID)
	if err := writeJSONFile(filepath.Join(dir, "metadata_update.json"), p.Metadata); err != nil {
		return err
	}
	return w.applyRelationshipTransition(ev, p.RelationshipID, "", string(state.RelationshipModified))
}

func (w *Writer) applyRelationshipTransition(ev event.Event, relationshipID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, "relationships", relationshipID)
	terminal := state.RelationshipMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.Relationships[relationshipID.String()]; ok {
		entry.State = to
		w.manifest.Relationships[relationshipID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

func (w *Writer) applyClaimDefined(ev event.Event, p event.ClaimDefined) error {
	return writeJSONFile(filepath.Join(w.root, "policy", "claims", p.ClaimID+".json"), p)
}

func (w *Writer) applyRoleDefined(ev event.Event, p event.RoleDefined) error {
	return writeJSONFile(filepath.Join(w.root, "policy", "roles", p.RoleID+".json"), p)
}

type policyMetadata struct {
	PolicyID   ids.ID   `json:"policy_id"`
	RoleID     string   `json:"role_id"`
	Conditions []string `json:"conditions,omitempty"`
	Priority   int      `json:"priority"`
}

func (w *Writer) applyPolicyCreated(ev event.Event, p event.PolicyCreated) error {
	dir := entityDir(w.root, filepath.Join("policy", "policies"), p.PolicyID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), policyMetadata{
		PolicyID: p.PolicyID, RoleID: p.RoleID, Conditions: p.Conditions, Priority: p.Priority,
	}); err != nil {
		return err
	}
	initial := string(state.PolicyDraft)
	if err := w.writeState(dir, state.PolicyMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.Policies[p.PolicyID.String()] = Entry{ID: p.PolicyID.String(), CreatedAt: ids.Timestamp(p.PolicyID), State: initial}
	w.manifest.Counts["policies"] = len(w.manifest.Policies)
	return w.saveManifest()
}

func (w *Writer) applyPolicyTransition(ev event.Event, policyID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, filepath.Join("policy", "policies"), policyID)
	terminal := state.PolicyMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.Policies[policyID.String()]; ok {
		entry.State = to
		w.manifest.Policies[policyID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

func (w *Writer) applyPolicyBindingCreated(ev event.Event, p event.PolicyBindingCreated) error {
	return writeJSONFile(filepath.Join(w.root, "policy", "bindings", p.BindingID.String()+".json"), p)
}
