package projection

import (
	"path/filepath"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

type organizationMetadata struct {
	OrganizationID ids.ID  `json:"organization_id"`
	Name           string  `json:"name"`
	DisplayName    string  `json:"display_name"`
	Domain         string  `json:"domain"`
	ParentID       *ids.ID `json:"parent_id,omitempty"`
}

// applyOrganizationCreated is the genesis write: exactly one may ever
// succeed. A second OrganizationCreated for a different id is rejected
// independently of anything the in-memory aggregate already enforced, since
// the durable projection is the last line of defense against a corrupted or
// hand-edited replay log.
func (w *Writer) applyOrganizationCreated(ev event.Event, p event.OrganizationCreated) error {
	if w.manifest.Organization != nil && w.manifest.Organization.ID != p.OrganizationID {
		return xerrors.InvariantViolated("projection: a manifest may hold only one organization")
	}
	if err := writeJSONFile(filepath.Join(w.root, "organization", "metadata.json"), organizationMetadata{
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		DisplayName:    p.DisplayName,
		Domain:         p.Domain,
		ParentID:       p.ParentID,
	}); err != nil {
		return err
	}
	w.manifest.Organization = &OrganizationEntry{ID: p.OrganizationID, Name: p.Name, DisplayName: p.DisplayName, Domain: p.Domain}
	return w.saveManifest()
}

type unitMetadata struct {
	UnitID              ids.ID  `json:"unit_id"`
	OrganizationID      ids.ID  `json:"organization_id"`
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	ParentUnitID        *ids.ID `json:"parent_unit_id,omitempty"`
	ResponsiblePersonID *ids.ID `json:"responsible_person_id,omitempty"`
}

func (w *Writer) applyOrganizationUnitAdded(ev event.Event, p event.OrganizationUnitAdded) error {
	return writeJSONFile(filepath.Join(w.root, "organization", "units", p.UnitID.String()+".json"), unitMetadata{
		UnitID: p.UnitID, OrganizationID: p.OrganizationID, Name: p.Name, Type: p.Type,
		ParentUnitID: p.ParentUnitID, ResponsiblePersonID: p.ResponsiblePersonID,
	})
}

type personMetadata struct {
	PersonID       ids.ID   `json:"person_id"`
	OrganizationID ids.ID   `json:"organization_id"`
	LegalName      string   `json:"legal_name"`
	RoleIDs        []string `json:"role_ids,omitempty"`
}

func (w *Writer) applyPersonCreated(ev event.Event, p event.PersonCreated) error {
	dir := entityDir(w.root, "people", p.PersonID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), personMetadata{
		PersonID: p.PersonID, OrganizationID: p.OrganizationID, LegalName: p.LegalName, RoleIDs: p.RoleIDs,
	}); err != nil {
		return err
	}
	if err := w.writeState(dir, state.PersonMachine.IsTerminal(state.PersonCreated), string(state.PersonCreated), "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.People[p.PersonID.String()] = Entry{ID: p.PersonID.String(), CreatedAt: ids.Timestamp(p.PersonID), State: string(state.PersonCreated)}
	w.manifest.Counts["people"] = len(w.manifest.People)
	return w.saveManifest()
}

func (w *Writer) applyPersonTransition(ev event.Event, personID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, "people", personID)
	terminal := state.PersonMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.People[personID.String()]; ok {
		entry.State = to
		w.manifest.People[personID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

type locationMetadata struct {
	LocationID ids.ID  `json:"location_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Address    *string `json:"address,omitempty"`
}

func (w *Writer) applyLocationPlanned(ev event.Event, p event.LocationPlanned) error {
	dir := entityDir(w.root, "locations", p.LocationID)
	if err := writeJSONFile(filepath.Join(dir, "metadata.json"), locationMetadata{
		LocationID: p.LocationID, Name: p.Name, Type: p.Type, Address: p.Address,
	}); err != nil {
		return err
	}
	if err := w.writeState(dir, state.LocationMachine.IsTerminal(state.LocationPlanned), string(state.LocationPlanned), "", ev.CorrelationID); err != nil {
		return err
	}
	w.manifest.Locations[p.LocationID.String()] = Entry{ID: p.LocationID.String(), CreatedAt: ids.Timestamp(p.LocationID), State: string(state.LocationPlanned)}
	w.manifest.Counts["locations"] = len(w.manifest.Locations)
	return w.saveManifest()
}

func (w *Writer) applyLocationTransition(ev event.Event, locationID ids.ID, reason string, to string) error {
	dir := entityDir(w.root, "locations", locationID)
	terminal := state.LocationMachine.IsTerminal(state.State(to))
	if err := w.writeState(dir, terminal, to, reason, ev.CorrelationID); err != nil {
		return err
	}
	if entry, ok := w.manifest.Locations[locationID.String()]; ok {
		entry.State = to
		w.manifest.Locations[locationID.String()] = entry
		return w.saveManifest()
	}
	return nil
}

// applyLocationDecommissioned records the transition plus the count of
// assets that were in custody at the location, which state.json has no
// field for.
func (w *Writer) applyLocationDecommissioned(ev event.Event, p event.LocationDecommissioned) error {
	if err := w.applyLocationTransition(ev, p.LocationID, p.Reason, "Decommissioned"); err != nil {
		return err
	}
	dir := entityDir(w.root, "locations", p.LocationID)
	return writeJSONFile(filepath.Join(dir, "decommission.json"), map[string]int{
		"assets_stored": p.AssetsStored,
	})
}
