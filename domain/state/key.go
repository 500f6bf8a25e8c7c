package state

// Key lifecycle states.
const (
	KeyGenerated       State = "Generated"
	KeyImported        State = "Imported"
	KeyActive          State = "Active"
	KeyRotationPending State = "RotationPending"
	KeyRotated         State = "Rotated"
	KeyRevoked         State = "Revoked"
	KeyExpired         State = "Expired"
	KeyArchived        State = "Archived"
)

// KeyMachine enforces that a revoked or archived key never transitions again,
// and that rotation cannot be re-initiated while already pending.
var KeyMachine = NewMachine("Key",
	map[State][]State{
		KeyGenerated:       {KeyActive, KeyRevoked},
		KeyImported:        {KeyActive, KeyRevoked},
		KeyActive:          {KeyRotationPending, KeyRevoked, KeyExpired},
		KeyRotationPending: {KeyRotated, KeyRevoked},
		KeyRotated:         {KeyArchived, KeyRevoked},
		KeyExpired:         {KeyArchived, KeyRevoked},
	},
	[]State{KeyRevoked, KeyArchived},
)
