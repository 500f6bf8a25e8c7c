package event

import "github.com/cowboyai/genesis-issuer/internal/ids"

const (
	KindOrganizationCreated Kind = "OrganizationCreated"
	KindOrganizationUnitAdded Kind = "OrganizationUnitAdded"
	KindPersonCreated       Kind = "PersonCreated"
	KindPersonActivated     Kind = "PersonActivated"
	KindPersonSuspended     Kind = "PersonSuspended"
	KindPersonDeactivated   Kind = "PersonDeactivated"
	KindPersonArchived      Kind = "PersonArchived"
	KindLocationPlanned       Kind = "LocationPlanned"
	KindLocationActivated     Kind = "LocationActivated"
	KindLocationDecommissioned Kind = "LocationDecommissioned"
	KindLocationArchived      Kind = "LocationArchived"
)

// OrganizationCreated is the genesis event of a projection: exactly one may
// ever be applied (manifest multi-org is explicitly rejected, see projection).
type OrganizationCreated struct {
	OrganizationID ids.ID  `json:"organization_id"`
	Name           string  `json:"name"`
	DisplayName    string  `json:"display_name"`
	Domain         string  `json:"domain"`
	ParentID       *ids.ID `json:"parent_id,omitempty"`
}

func (OrganizationCreated) Kind() Kind { return KindOrganizationCreated }

// OrganizationUnitAdded adds a unit under the organization's tree.
type OrganizationUnitAdded struct {
	UnitID               ids.ID  `json:"unit_id"`
	OrganizationID       ids.ID  `json:"organization_id"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	ParentUnitID         *ids.ID `json:"parent_unit_id,omitempty"`
	ResponsiblePersonID  *ids.ID `json:"responsible_person_id,omitempty"`
}

func (OrganizationUnitAdded) Kind() Kind { return KindOrganizationUnitAdded }

// PersonCreated introduces a person into the organization in state Created.
type PersonCreated struct {
	PersonID       ids.ID   `json:"person_id"`
	OrganizationID ids.ID   `json:"organization_id"`
	LegalName      string   `json:"legal_name"`
	RoleIDs        []string `json:"role_ids,omitempty"`
}

func (PersonCreated) Kind() Kind { return KindPersonCreated }

// PersonActivated transitions a person Created -> Active or Suspended -> Active.
type PersonActivated struct {
	PersonID ids.ID `json:"person_id"`
	Reason   string `json:"reason,omitempty"`
}

func (PersonActivated) Kind() Kind { return KindPersonActivated }

// PersonSuspended transitions a person Active -> Suspended, preserving roles for reactivation.
type PersonSuspended struct {
	PersonID        ids.ID `json:"person_id"`
	Reason          string `json:"reason"`
	PreservedRoles  []string `json:"preserved_roles,omitempty"`
}

func (PersonSuspended) Kind() Kind { return KindPersonSuspended }

// PersonDeactivated transitions a person Suspended -> Deactivated.
type PersonDeactivated struct {
	PersonID ids.ID `json:"person_id"`
	Reason   string `json:"reason"`
}

func (PersonDeactivated) Kind() Kind { return KindPersonDeactivated }

// PersonArchived is the terminal transition for a person record.
type PersonArchived struct {
	PersonID ids.ID `json:"person_id"`
}

func (PersonArchived) Kind() Kind { return KindPersonArchived }

// LocationPlanned introduces a location in state Planned.
type LocationPlanned struct {
	LocationID ids.ID  `json:"location_id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Address    *string `json:"address,omitempty"`
}

func (LocationPlanned) Kind() Kind { return KindLocationPlanned }

// LocationActivated transitions a location Planned -> Active.
type LocationActivated struct {
	LocationID ids.ID `json:"location_id"`
}

func (LocationActivated) Kind() Kind { return KindLocationActivated }

// LocationDecommissioned transitions a location Active -> Decommissioned.
// Archival (a later, separate event) requires assets_stored == 0 at that time.
type LocationDecommissioned struct {
	LocationID    ids.ID `json:"location_id"`
	AssetsStored  int    `json:"assets_stored"`
	Reason        string `json:"reason"`
}

func (LocationDecommissioned) Kind() Kind { return KindLocationDecommissioned }

// LocationArchived is the terminal transition for a location record.
type LocationArchived struct {
	LocationID ids.ID `json:"location_id"`
}

func (LocationArchived) Kind() Kind { return KindLocationArchived }
