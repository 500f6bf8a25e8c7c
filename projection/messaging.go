package projection

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
)

// nkeyID derives a stable filename for a bare nkey public key: the messaging
// identity hierarchy mints no separate identifier for its verification keys,
// so the key material itself (content-addressable, like everything else in
// this projection) stands in for one.
func nkeyID(publicKey string) string {
	sum := sha256.Sum256([]byte(publicKey))
	return hex.EncodeToString(sum[:])[:32]
}

func (w *Writer) recordNkey(ownerKind string, ownerID ids.ID, publicKey string) error {
	return writeJSONFile(filepath.Join(w.root, "nats", "nkeys", nkeyID(publicKey)+".json"), map[string]string{
		"owner_kind": ownerKind,
		"owner_id":   ownerID.String(),
		"public_key": publicKey,
	})
}

type operatorMetadata struct {
	OperatorID      ids.ID `json:"operator_id"`
	OrganizationID  ids.ID `json:"organization_id"`
	Name            string `json:"name"`
	PublicKey       string `json:"public_key"`
	SignerPublicKey string `json:"signer_public_key"`
}

func (w *Writer) applyOperatorCreated(ev event.Event, p event.NatsOperatorCreated) error {
	dir := entityDir(w.root, filepath.Join("nats", "operators"), p.OperatorID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), operatorMetadata{
		OperatorID: p.OperatorID, OrganizationID: p.OrganizationID, Name: p.Name,
		PublicKey: p.PublicKey, SignerPublicKey: p.SignerPublicKey,
	}); err != nil {
		return err
	}
	if err := w.recordNkey("operator", p.OperatorID, p.PublicKey); err != nil {
		return err
	}
	initial := string(state.MessagingCreated)
	if err := w.writeState(dir, state.MessagingOperatorMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.NatsOperators[p.OperatorID.String()] = Entry{ID: p.OperatorID.String(), CreatedAt: ids.Timestamp(p.OperatorID), State: initial}
	w.manifest.Counts["nats_operators"] = len(w.manifest.NatsOperators)
	return w.saveManifest()
}

func (w *Writer) applyOperatorTransition(ev event.Event, operatorID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, filepath.Join("nats", "operators"), operatorID)
	terminal := state.MessagingOperatorMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.NatsOperators[operatorID.String()]; ok {
		entry.State = to
		w.manifest.NatsOperators[operatorID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

type accountMetadata struct {
	AccountID       ids.ID          `json:"account_id"`
	OperatorID      ids.ID          `json:"operator_id"`
	Name            string          `json:"name"`
	UnitID          *ids.ID         `json:"unit_id,omitempty"`
	IsSystem        bool            `json:"is_system"`
	PublicKey       string          `json:"public_key"`
	SignerPublicKey string          `json:"signer_public_key"`
	Permissions     event.Permissions `json:"permissions"`
	Limits          event.Limits      `json:"limits"`
}

func (w *Writer) applyAccountCreated(ev event.Event, p event.NatsAccountCreated) error {
	dir := entityDir(w.root, filepath.Join("nats", "accounts"), p.AccountID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), accountMetadata{
		AccountID: p.AccountID, OperatorID: p.OperatorID, Name: p.Name, UnitID: p.UnitID, IsSystem: p.IsSystem,
		PublicKey: p.PublicKey, SignerPublicKey: p.SignerPublicKey, Permissions: p.Permissions, Limits: p.Limits,
	}); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, "permissions.json"), map[string]any{"permissions": p.Permissions, "limits": p.Limits}); err != nil {
		return err
	}
	if err := w.recordNkey("account", p.AccountID, p.PublicKey); err != nil {
		return err
	}
	initial := string(state.MessagingCreated)
	if err := w.writeState(dir, state.MessagingAccountMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.NatsAccounts[p.AccountID.String()] = Entry{ID: p.AccountID.String(), CreatedAt: ids.Timestamp(p.AccountID), State: initial}
	w.manifest.Counts["nats_accounts"] = len(w.manifest.NatsAccounts)
	return w.saveManifest()
}

func (w *Writer) applyAccountTransition(ev event.Event, accountID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, filepath.Join("nats", "accounts"), accountID)
	terminal := state.MessagingAccountMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.NatsAccounts[accountID.String()]; ok {
		entry.State = to
		w.manifest.NatsAccounts[accountID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

type userMetadata struct {
	UserID                ids.ID            `json:"user_id"`
	AccountID             ids.ID            `json:"account_id"`
	Name                  string            `json:"name"`
	OwnerPersonID         *ids.ID           `json:"owner_person_id,omitempty"`
	OwnerServiceAccountID *ids.ID           `json:"owner_service_account_id,omitempty"`
	OwnerAgentID          *ids.ID           `json:"owner_agent_id,omitempty"`
	PublicKey             string            `json:"public_key"`
	SignerPublicKey       string            `json:"signer_public_key"`
	Permissions           event.Permissions `json:"permissions"`
	Limits                event.Limits      `json:"limits"`
}

func (w *Writer) applyUserCreated(ev event.Event, p event.NatsUserCreated) error {
	dir := entityDir(w.root, filepath.Join("nats", "users"), p.UserID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), userMetadata{
		UserID: p.UserID, AccountID: p.AccountID, Name: p.Name,
		OwnerPersonID: p.OwnerPersonID, OwnerServiceAccountID: p.OwnerServiceAccountID, OwnerAgentID: p.OwnerAgentID,
		PublicKey: p.PublicKey, SignerPublicKey: p.SignerPublicKey, Permissions: p.Permissions, Limits: p.Limits,
	}); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(dir, "permissions.json"), map[string]any{"permissions": p.Permissions, "limits": p.Limits}); err != nil {
		return err
	}
	if err := w.recordNkey("user", p.UserID, p.PublicKey); err != nil {
		return err
	}
	initial := string(state.MessagingCreated)
	if err := w.writeState(dir, state.MessagingUserMachine.IsTerminal(state.State(initial)), initial, "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.NatsUsers[p.UserID.String()] = Entry{ID: p.UserID.String(), CreatedAt: ids.Timestamp(p.UserID), State: initial}
	w.manifest.Counts["nats_users"] = len(w.manifest.NatsUsers)
	return w.saveManifest()
}

func (w *Writer) applyUserTransition(ev event.Event, userID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, filepath.Join("nats", "users"), userID)
	terminal := state.MessagingUserMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.NatsUsers[userID.String()]; ok {
		entry.State = to
		w.manifest.NatsUsers[userID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

func (w *Writer) applySigningKeyGenerated(ev event.Event, p event.NatsSigningKeyGenerated) error {
	var dir string
	switch p.OwnerKind {
	case "operator":
		dir = entityDir(w.root, filepath.Join("nats", "operators"), p.OwnerID)
	case "account":
		dir = entityDir(w.root, filepath.Join("nats", "accounts"), p.OwnerID)
	default:
		dir = filepath.Join(w.root, "nats", p.OwnerKind+"s", p.OwnerID.String())
	}
	if err := writeJSONFile(filepath.Join(dir, "signing_keys", nkeyID(p.PublicKey)+".json"), p); err != nil {
		return err
	}
	return w.recordNkey(p.OwnerKind+"-signing", p.OwnerID, p.PublicKey)
}

func (w *Writer) applyPermissionsSet(ev event.Event, p event.NatsPermissionsSet) error {
	var dir string
	switch p.OwnerKind {
	case "account":
		dir = entityDir(w.root, filepath.Join("nats", "accounts"), p.OwnerID)
	case "user":
		dir = entityDir(w.root, filepath.Join("nats", "users"), p.OwnerID)
	default:
		dir = filepath.Join(w.root, "nats", p.OwnerKind+"s", p.OwnerID.String())
	}
	return writeJSONFile(filepath.Join(dir, "permissions.json"), map[string]any{"permissions": p.Permissions, "limits": p.Limits})
}

type serviceAccountMetadata struct {
	ServiceAccountID    ids.ID `json:"service_account_id"`
	Name                string `json:"name"`
	Purpose             string `json:"purpose"`
	UnitID              ids.ID `json:"unit_id"`
	ResponsiblePersonID ids.ID `json:"responsible_person_id"`
}

func (w *Writer) applyServiceAccountCreated(ev event.Event, p event.ServiceAccountCreated) error {
	dir := entityDir(w.root, filepath.Join("nats", "service_accounts"), p.ServiceAccountID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), serviceAccountMetadata{
		ServiceAccountID: p.ServiceAccountID, Name: p.Name, Purpose: p.Purpose, UnitID: p.UnitID, ResponsiblePersonID: p.ResponsiblePersonID,
	}); err != nil {
		return err
	}
	w.manifest.ServiceAccounts[p.ServiceAccountID.String()] = Entry{ID: p.ServiceAccountID.String(), CreatedAt: ids.Timestamp(p.ServiceAccountID)}
	w.manifest.Counts["service_accounts"] = len(w.manifest.ServiceAccounts)
	return w.saveManifest()
}

type agentMetadata struct {
	AgentID             ids.ID `json:"agent_id"`
	Name                string `json:"name"`
	Purpose             string `json:"purpose"`
	UnitID              ids.ID `json:"unit_id"`
	ResponsiblePersonID ids.ID `json:"responsible_person_id"`
}

func (w *Writer) applyAgentCreated(ev event.Event, p event.AgentCreated) error {
	dir := entityDir(w.root, filepath.Join("nats", "agents"), p.AgentID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), agentMetadata{
		AgentID: p.AgentID, Name: p.Name, Purpose: p.Purpose, UnitID: p.UnitID, ResponsiblePersonID: p.ResponsiblePersonID,
	}); err != nil {
		return err
	}
	w.manifest.Agents[p.AgentID.String()] = Entry{ID: p.AgentID.String(), CreatedAt: ids.Timestamp(p.AgentID)}
	w.manifest.Counts["agents"] = len(w.manifest.Agents)
	return w.saveManifest()
}
