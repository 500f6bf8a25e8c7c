package state

// Person lifecycle states.
const (
	PersonCreated     State = "Created"
	PersonActive      State = "Active"
	PersonSuspended   State = "Suspended"
	PersonDeactivated State = "Deactivated"
	PersonArchived    State = "Archived"
)

// PersonMachine: key generation on behalf of a person requires Active,
// enforced by domain/command rather than the machine; suspension preserves
// the person's prior roles so reactivation restores them unchanged.
var PersonMachine = NewMachine("Person",
	map[State][]State{
		PersonCreated:     {PersonActive},
		PersonActive:      {PersonSuspended, PersonDeactivated, PersonArchived},
		PersonSuspended:   {PersonActive, PersonDeactivated},
		PersonDeactivated: {PersonArchived},
	},
	[]State{PersonArchived},
)
