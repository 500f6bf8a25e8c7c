package state

// Location lifecycle states.
const (
	LocationPlanned        State = "Planned"
	LocationActive         State = "Active"
	LocationDecommissioned State = "Decommissioned"
	LocationArchived       State = "Archived"
)

// LocationMachine: archival requires assets_stored == 0 at command time, a
// precondition the machine does not see — it only knows Decommissioned can
// reach Archived.
var LocationMachine = NewMachine("Location",
	map[State][]State{
		LocationPlanned:        {LocationActive},
		LocationActive:         {LocationDecommissioned},
		LocationDecommissioned: {LocationArchived},
	},
	[]State{LocationArchived},
)
