package command

import (
	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// CreateOrganization is the command struct for the genesis event of a
// projection. Exactly one organization may ever be created per projection.
type CreateOrganization struct {
	Name        string
	DisplayName string
	Domain      string
	ParentID    *ids.ID
}

// Handle resolves, validates, and emits CreateOrganization's event.
func (c CreateOrganization) Handle(a *Aggregate) ([]event.Event, error) {
	if a.Projection.OrganizationID != ids.Nil {
		return nil, xerrors.InvariantViolated("an organization already exists in this projection; manifest is single-organization")
	}

	orgID := ids.New()
	b := newBatch(orgID, ids.Nil)
	ev, err := b.Emit(event.OrganizationCreated{
		OrganizationID: orgID,
		Name:           c.Name,
		DisplayName:    c.DisplayName,
		Domain:         c.Domain,
		ParentID:       c.ParentID,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.OrganizationID = orgID
	return []event.Event{ev}, nil
}

// AddOrganizationUnit adds a unit under the organization's tree.
type AddOrganizationUnit struct {
	Name                string
	Type                string
	ParentUnitID        *ids.ID
	ResponsiblePersonID *ids.ID
}

func (c AddOrganizationUnit) Handle(a *Aggregate) ([]event.Event, error) {
	if a.Projection.OrganizationID == ids.Nil {
		return nil, xerrors.InvariantViolated("cannot add a unit before the organization is created")
	}
	if c.ParentUnitID != nil && !a.Projection.Units[*c.ParentUnitID] {
		return nil, xerrors.AggregateNotFound("OrganizationUnit", c.ParentUnitID.String())
	}
	if c.ResponsiblePersonID != nil {
		if _, ok := a.Projection.People[*c.ResponsiblePersonID]; !ok {
			return nil, xerrors.AggregateNotFound("Person", c.ResponsiblePersonID.String())
		}
	}

	unitID := ids.New()
	b := newBatch(unitID, ids.Nil)
	ev, err := b.Emit(event.OrganizationUnitAdded{
		UnitID:              unitID,
		OrganizationID:      a.Projection.OrganizationID,
		Name:                c.Name,
		Type:                c.Type,
		ParentUnitID:        c.ParentUnitID,
		ResponsiblePersonID: c.ResponsiblePersonID,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Units[unitID] = true
	return []event.Event{ev}, nil
}

// CreatePerson introduces a person into the organization in state Created.
type CreatePerson struct {
	LegalName string
	RoleIDs   []string
}

func (c CreatePerson) Handle(a *Aggregate) ([]event.Event, error) {
	personID := ids.New()
	b := newBatch(personID, ids.Nil)
	ev, err := b.Emit(event.PersonCreated{
		PersonID:       personID,
		OrganizationID: a.Projection.OrganizationID,
		LegalName:      c.LegalName,
		RoleIDs:        c.RoleIDs,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.People[personID] = &PersonState{ID: personID, State: state.PersonCreated, Roles: c.RoleIDs}
	return []event.Event{ev}, nil
}

// ActivatePerson transitions Created -> Active or Suspended -> Active.
type ActivatePerson struct {
	PersonID ids.ID
	Reason   string
}

func (c ActivatePerson) Handle(a *Aggregate) ([]event.Event, error) {
	person, ok := a.Projection.People[c.PersonID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Person", c.PersonID.String())
	}
	to, err := state.PersonMachine.Transition(person.State, state.PersonActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.PersonID, ids.Nil)
	ev, err := b.Emit(event.PersonActivated{PersonID: c.PersonID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}

	person.State = to
	return []event.Event{ev}, nil
}

// SuspendPerson transitions Active -> Suspended, preserving roles.
type SuspendPerson struct {
	PersonID ids.ID
	Reason   string
}

func (c SuspendPerson) Handle(a *Aggregate) ([]event.Event, error) {
	person, ok := a.Projection.People[c.PersonID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Person", c.PersonID.String())
	}
	to, err := state.PersonMachine.Transition(person.State, state.PersonSuspended)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.PersonID, ids.Nil)
	ev, err := b.Emit(event.PersonSuspended{PersonID: c.PersonID, Reason: c.Reason, PreservedRoles: person.Roles})
	if err != nil {
		return nil, err
	}

	person.State = to
	return []event.Event{ev}, nil
}

// DeactivatePerson transitions Suspended -> Deactivated.
type DeactivatePerson struct {
	PersonID ids.ID
	Reason   string
}

func (c DeactivatePerson) Handle(a *Aggregate) ([]event.Event, error) {
	person, ok := a.Projection.People[c.PersonID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Person", c.PersonID.String())
	}
	to, err := state.PersonMachine.Transition(person.State, state.PersonDeactivated)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.PersonID, ids.Nil)
	ev, err := b.Emit(event.PersonDeactivated{PersonID: c.PersonID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}

	person.State = to
	return []event.Event{ev}, nil
}

// ArchivePerson is the terminal transition for a person record.
type ArchivePerson struct {
	PersonID ids.ID
}

func (c ArchivePerson) Handle(a *Aggregate) ([]event.Event, error) {
	person, ok := a.Projection.People[c.PersonID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Person", c.PersonID.String())
	}
	to, err := state.PersonMachine.Transition(person.State, state.PersonArchived)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.PersonID, ids.Nil)
	ev, err := b.Emit(event.PersonArchived{PersonID: c.PersonID})
	if err != nil {
		return nil, err
	}

	person.State = to
	return []event.Event{ev}, nil
}

// BootstrapOrganization atomically creates the organization together with
// its initial units and people. Unlike a caller issuing CreateOrganization
// then CreatePerson as separate commands, this one shares a correlation
// across every event AND chains each unit/person's causation back to the
// OrganizationCreated event itself, since the whole bootstrap is one
// logical operation rather than a sequence of independently-caused ones.
type BootstrapOrganization struct {
	Name        string
	DisplayName string
	Domain      string
	UnitNames   []string
	PersonNames []string
}

func (c BootstrapOrganization) Handle(a *Aggregate) ([]event.Event, error) {
	if a.Projection.OrganizationID != ids.Nil {
		return nil, xerrors.InvariantViolated("an organization already exists in this projection; manifest is single-organization")
	}

	orgID := ids.New()
	correlationID := ids.New()
	orgBatch := newBatch(orgID, correlationID)
	orgEv, err := orgBatch.Emit(event.OrganizationCreated{
		OrganizationID: orgID, Name: c.Name, DisplayName: c.DisplayName, Domain: c.Domain,
	})
	if err != nil {
		return nil, err
	}
	a.Projection.OrganizationID = orgID
	events := []event.Event{orgEv}

	for _, unitName := range c.UnitNames {
		unitID := ids.New()
		unitBatch := newBatch(unitID, correlationID)
		ev, err := unitBatch.Emit(event.OrganizationUnitAdded{
			UnitID: unitID, OrganizationID: orgID, Name: unitName, Type: "department",
		})
		if err != nil {
			return nil, err
		}
		ev.CausationID = orgEv.EventID
		a.Projection.Units[unitID] = true
		events = append(events, ev)
	}

	for _, personName := range c.PersonNames {
		personID := ids.New()
		personBatch := newBatch(personID, correlationID)
		ev, err := personBatch.Emit(event.PersonCreated{
			PersonID: personID, OrganizationID: orgID, LegalName: personName,
		})
		if err != nil {
			return nil, err
		}
		ev.CausationID = orgEv.EventID
		a.Projection.People[personID] = &PersonState{ID: personID, State: state.PersonCreated}
		events = append(events, ev)
	}

	return events, nil
}

// PlanLocation introduces a location in state Planned.
type PlanLocation struct {
	Name    string
	Type    string
	Address *string
}

func (c PlanLocation) Handle(a *Aggregate) ([]event.Event, error) {
	locationID := ids.New()
	b := newBatch(locationID, ids.Nil)
	ev, err := b.Emit(event.LocationPlanned{
		LocationID: locationID,
		Name:       c.Name,
		Type:       c.Type,
		Address:    c.Address,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.Locations[locationID] = &LocationState{ID: locationID, State: state.LocationPlanned}
	return []event.Event{ev}, nil
}

// ActivateLocation transitions Planned -> Active.
type ActivateLocation struct {
	LocationID ids.ID
}

func (c ActivateLocation) Handle(a *Aggregate) ([]event.Event, error) {
	location, ok := a.Projection.Locations[c.LocationID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Location", c.LocationID.String())
	}
	to, err := state.LocationMachine.Transition(location.State, state.LocationActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.LocationID, ids.Nil)
	ev, err := b.Emit(event.LocationActivated{LocationID: c.LocationID})
	if err != nil {
		return nil, err
	}

	location.State = to
	return []event.Event{ev}, nil
}

// DecommissionLocation transitions Active -> Decommissioned.
type DecommissionLocation struct {
	LocationID   ids.ID
	AssetsStored int
	Reason       string
}

func (c DecommissionLocation) Handle(a *Aggregate) ([]event.Event, error) {
	location, ok := a.Projection.Locations[c.LocationID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Location", c.LocationID.String())
	}
	to, err := state.LocationMachine.Transition(location.State, state.LocationDecommissioned)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.LocationID, ids.Nil)
	ev, err := b.Emit(event.LocationDecommissioned{
		LocationID:   c.LocationID,
		AssetsStored: c.AssetsStored,
		Reason:       c.Reason,
	})
	if err != nil {
		return nil, err
	}

	location.State = to
	location.AssetsStored = c.AssetsStored
	return []event.Event{ev}, nil
}

// ArchiveLocation is the terminal transition for a location record;
// archival is refused while assets_stored is nonzero.
type ArchiveLocation struct {
	LocationID ids.ID
}

func (c ArchiveLocation) Handle(a *Aggregate) ([]event.Event, error) {
	location, ok := a.Projection.Locations[c.LocationID]
	if !ok {
		return nil, xerrors.AggregateNotFound("Location", c.LocationID.String())
	}
	if location.AssetsStored != 0 {
		return nil, xerrors.InvariantViolated("cannot archive a location with assets_stored != 0")
	}
	to, err := state.LocationMachine.Transition(location.State, state.LocationArchived)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.LocationID, ids.Nil)
	ev, err := b.Emit(event.LocationArchived{LocationID: c.LocationID})
	if err != nil {
		return nil, err
	}

	location.State = to
	return []event.Event{ev}, nil
}
