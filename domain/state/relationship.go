package state

// Relationship lifecycle states.
const (
	RelationshipProposed   State = "Proposed"
	RelationshipActive     State = "Active"
	RelationshipModified   State = "Modified"
	RelationshipSuspended  State = "Suspended"
	RelationshipTerminated State = "Terminated"
	RelationshipArchived   State = "Archived"
)

// RelationshipMachine: authorization use requires Active AND temporal
// validity (valid_from/valid_until), the latter checked by the caller.
var RelationshipMachine = NewMachine("Relationship",
	map[State][]State{
		RelationshipProposed:  {RelationshipActive, RelationshipTerminated},
		RelationshipActive:    {RelationshipModified, RelationshipSuspended, RelationshipTerminated},
		RelationshipModified:  {RelationshipActive, RelationshipSuspended, RelationshipTerminated},
		RelationshipSuspended: {RelationshipActive, RelationshipTerminated},
		RelationshipTerminated: {RelationshipArchived},
	},
	[]State{RelationshipArchived},
)
