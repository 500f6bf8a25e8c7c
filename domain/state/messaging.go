package state

// MessagingIdentity lifecycle states, shared by Operator, Account and User
// records. An operator's revocation leaves the state of every account and
// user beneath it unchanged; domain/command only refuses to create new
// accounts under a non-Active operator and new users under a non-Active
// account.
const (
	MessagingCreated   State = "Created"
	MessagingActive    State = "Active"
	MessagingSuspended State = "Suspended"
	MessagingRevoked   State = "Revoked" // operator/user terminal label
	MessagingDeleted   State = "Deleted" // account terminal label
)

var MessagingOperatorMachine = NewMachine("MessagingOperator",
	map[State][]State{
		MessagingCreated:   {MessagingActive},
		MessagingActive:    {MessagingSuspended, MessagingRevoked},
		MessagingSuspended: {MessagingActive, MessagingRevoked},
	},
	[]State{MessagingRevoked},
)

var MessagingAccountMachine = NewMachine("MessagingAccount",
	map[State][]State{
		MessagingCreated:   {MessagingActive},
		MessagingActive:    {MessagingSuspended, MessagingDeleted},
		MessagingSuspended: {MessagingActive, MessagingDeleted},
	},
	[]State{MessagingDeleted},
)

var MessagingUserMachine = NewMachine("MessagingUser",
	map[State][]State{
		MessagingCreated:   {MessagingActive},
		MessagingActive:    {MessagingSuspended, MessagingDeleted},
		MessagingSuspended: {MessagingActive, MessagingDeleted},
	},
	[]State{MessagingDeleted},
)
