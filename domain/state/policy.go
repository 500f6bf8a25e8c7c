package state

// Policy lifecycle states.
const (
	PolicyDraft     State = "Draft"
	PolicyActive    State = "Active"
	PolicyModified  State = "Modified"
	PolicySuspended State = "Suspended"
	PolicyRevoked   State = "Revoked"
)

// PolicyMachine: activation (Draft -> Active) additionally requires, at the
// command layer, that the bound role carry at least one claim (conditions are
// not checked there); the machine itself only enforces reachability.
var PolicyMachine = NewMachine("Policy",
	map[State][]State{
		PolicyDraft:     {PolicyActive, PolicyRevoked},
		PolicyActive:    {PolicyModified, PolicySuspended, PolicyRevoked},
		PolicyModified:  {PolicyActive, PolicySuspended, PolicyRevoked},
		PolicySuspended: {PolicyActive, PolicyRevoked},
	},
	[]State{PolicyRevoked},
)
