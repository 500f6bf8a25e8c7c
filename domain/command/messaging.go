package command

import (
	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/domain/state"
	"github.com/cowboyai/genesis-issuer/internal/ids"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/messaging"
)

func toEventPermissions(p messaging.Permissions) event.Permissions {
	return event.Permissions{
		Publish: p.Publish, Subscribe: p.Subscribe, MaxPayload: p.MaxPayload, AllowResponses: p.AllowResponses,
	}
}

func toEventLimits(l messaging.Limits) event.Limits {
	return event.Limits{MaxConnections: int(l.MaxConnections), MaxSubscriptions: int(l.MaxSubscriptions)}
}

// CreateMessagingOperator mints the root of the messaging-identity hierarchy:
// a self-signed operator token. organizationID anchors it to the org tree.
type CreateMessagingOperator struct {
	Name string
}

func (c CreateMessagingOperator) Handle(a *Aggregate) ([]event.Event, error) {
	if a.Projection.OrganizationID == ids.Nil {
		return nil, xerrors.InvariantViolated("cannot create a messaging operator before the organization is created")
	}

	identity, _, err := messaging.GenerateOperatorIdentity(c.Name)
	if err != nil {
		return nil, err
	}

	operatorID := ids.New()
	b := newBatch(operatorID, ids.Nil)
	ev, err := b.Emit(event.NatsOperatorCreated{
		OperatorID: operatorID, OrganizationID: a.Projection.OrganizationID, Name: c.Name,
		PublicKey: identity.PublicKey, SignerPublicKey: identity.PublicKey,
	})
	if err != nil {
		return nil, err
	}

	a.Projection.MessagingOperators[operatorID] = &MessagingOperatorState{
		ID: operatorID, State: state.MessagingActive, PublicKey: identity.PublicKey, KeyPair: identity.KeyPair,
	}
	return []event.Event{ev}, nil
}

// SuspendMessagingOperator transitions Active -> Suspended.
type SuspendMessagingOperator struct {
	OperatorID ids.ID
	Reason     string
}

func (c SuspendMessagingOperator) Handle(a *Aggregate) ([]event.Event, error) {
	op, ok := a.Projection.MessagingOperators[c.OperatorID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingOperator", c.OperatorID.String())
	}
	to, err := state.MessagingOperatorMachine.Transition(op.State, state.MessagingSuspended)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.OperatorID, ids.Nil)
	ev, err := b.Emit(event.NatsOperatorSuspended{OperatorID: c.OperatorID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	op.State = to
	return []event.Event{ev}, nil
}

// ReactivateMessagingOperator transitions Suspended -> Active.
type ReactivateMessagingOperator struct {
	OperatorID ids.ID
}

func (c ReactivateMessagingOperator) Handle(a *Aggregate) ([]event.Event, error) {
	op, ok := a.Projection.MessagingOperators[c.OperatorID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingOperator", c.OperatorID.String())
	}
	to, err := state.MessagingOperatorMachine.Transition(op.State, state.MessagingActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.OperatorID, ids.Nil)
	ev, err := b.Emit(event.NatsOperatorReactivated{OperatorID: c.OperatorID})
	if err != nil {
		return nil, err
	}
	op.State = to
	return []event.Event{ev}, nil
}

// RevokeMessagingOperator is terminal. It changes only the operator's state;
// the accounts and users beneath it keep their current states.
type RevokeMessagingOperator struct {
	OperatorID ids.ID
	Reason     string
}

func (c RevokeMessagingOperator) Handle(a *Aggregate) ([]event.Event, error) {
	op, ok := a.Projection.MessagingOperators[c.OperatorID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingOperator", c.OperatorID.String())
	}
	to, err := state.MessagingOperatorMachine.Transition(op.State, state.MessagingRevoked)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.OperatorID, ids.Nil)
	ev, err := b.Emit(event.NatsOperatorRevoked{OperatorID: c.OperatorID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	op.State = to
	return []event.Event{ev}, nil
}

// CreateMessagingAccount mints an account signed by its parent operator's
// keypair, never by its own.
type CreateMessagingAccount struct {
	OperatorID  ids.ID
	Name        string
	UnitID      *ids.ID
	IsSystem    bool
	Permissions messaging.Permissions
	Limits      messaging.Limits
}

func (c CreateMessagingAccount) Handle(a *Aggregate) ([]event.Event, error) {
	op, ok := a.Projection.MessagingOperators[c.OperatorID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingOperator", c.OperatorID.String())
	}
	if op.State != state.MessagingActive {
		return nil, xerrors.InvariantViolated("messaging: operator must be Active to sign a new account")
	}

	operatorIdentity := &messaging.Identity{KeyPair: op.KeyPair, PublicKey: op.PublicKey}
	identity, _, err := messaging.GenerateAccountIdentity(c.Name, operatorIdentity, c.Permissions, c.Limits)
	if err != nil {
		return nil, err
	}

	accountID := ids.New()
	b := newBatch(accountID, ids.Nil)
	ev, err := b.Emit(event.NatsAccountCreated{
		AccountID: accountID, OperatorID: c.OperatorID, Name: c.Name, UnitID: c.UnitID, IsSystem: c.IsSystem,
		PublicKey: identity.PublicKey, SignerPublicKey: op.PublicKey,
		Permissions: toEventPermissions(c.Permissions), Limits: toEventLimits(c.Limits),
	})
	if err != nil {
		return nil, err
	}

	a.Projection.MessagingAccounts[accountID] = &MessagingAccountState{
		ID: accountID, OperatorID: c.OperatorID, State: state.MessagingActive,
		PublicKey: identity.PublicKey, KeyPair: identity.KeyPair,
	}
	return []event.Event{ev}, nil
}

// SuspendMessagingAccount transitions Active -> Suspended.
type SuspendMessagingAccount struct {
	AccountID ids.ID
	Reason    string
}

func (c SuspendMessagingAccount) Handle(a *Aggregate) ([]event.Event, error) {
	acc, ok := a.Projection.MessagingAccounts[c.AccountID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingAccount", c.AccountID.String())
	}
	to, err := state.MessagingAccountMachine.Transition(acc.State, state.MessagingSuspended)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.AccountID, ids.Nil)
	ev, err := b.Emit(event.NatsAccountSuspended{AccountID: c.AccountID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	acc.State = to
	return []event.Event{ev}, nil
}

// ReactivateMessagingAccount transitions Suspended -> Active.
type ReactivateMessagingAccount struct {
	AccountID ids.ID
}

func (c ReactivateMessagingAccount) Handle(a *Aggregate) ([]event.Event, error) {
	acc, ok := a.Projection.MessagingAccounts[c.AccountID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingAccount", c.AccountID.String())
	}
	to, err := state.MessagingAccountMachine.Transition(acc.State, state.MessagingActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.AccountID, ids.Nil)
	ev, err := b.Emit(event.NatsAccountReactivated{AccountID: c.AccountID})
	if err != nil {
		return nil, err
	}
	acc.State = to
	return []event.Event{ev}, nil
}

// DeleteMessagingAccount is terminal.
type DeleteMessagingAccount struct {
	AccountID ids.ID
	Reason    string
}

func (c DeleteMessagingAccount) Handle(a *Aggregate) ([]event.Event, error) {
	acc, ok := a.Projection.MessagingAccounts[c.AccountID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingAccount", c.AccountID.String())
	}
	to, err := state.MessagingAccountMachine.Transition(acc.State, state.MessagingDeleted)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.AccountID, ids.Nil)
	ev, err := b.Emit(event.NatsAccountDeleted{AccountID: c.AccountID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	acc.State = to
	return []event.Event{ev}, nil
}

// CreateMessagingUser mints a user signed by its parent account's keypair.
// The Owner* fields are recorded as given: the handler does not check how
// many are set (none, one or several are all accepted). A ServiceAccount or
// Agent carries a responsible person, enforced at that entity's own creation.
type CreateMessagingUser struct {
	AccountID             ids.ID
	Name                  string
	OwnerPersonID         *ids.ID
	OwnerServiceAccountID *ids.ID
	OwnerAgentID          *ids.ID
	Permissions           messaging.Permissions
	Limits                messaging.Limits
}

func (c CreateMessagingUser) Handle(a *Aggregate) ([]event.Event, error) {
	acc, ok := a.Projection.MessagingAccounts[c.AccountID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingAccount", c.AccountID.String())
	}
	if acc.State != state.MessagingActive {
		return nil, xerrors.InvariantViolated("messaging: account must be Active to sign a new user")
	}

	accountIdentity := &messaging.Identity{KeyPair: acc.KeyPair, PublicKey: acc.PublicKey}
	identity, _, err := messaging.GenerateUserIdentity(c.Name, accountIdentity, c.Permissions, c.Limits)
	if err != nil {
		return nil, err
	}

	userID := ids.New()
	b := newBatch(userID, ids.Nil)
	ev, err := b.Emit(event.NatsUserCreated{
		UserID: userID, AccountID: c.AccountID, Name: c.Name,
		OwnerPersonID: c.OwnerPersonID, OwnerServiceAccountID: c.OwnerServiceAccountID, OwnerAgentID: c.OwnerAgentID,
		PublicKey: identity.PublicKey, SignerPublicKey: acc.PublicKey,
		Permissions: toEventPermissions(c.Permissions), Limits: toEventLimits(c.Limits),
	})
	if err != nil {
		return nil, err
	}

	a.Projection.MessagingUsers[userID] = &MessagingUserState{
		ID: userID, AccountID: c.AccountID, State: state.MessagingActive, PublicKey: identity.PublicKey,
	}
	return []event.Event{ev}, nil
}

// SuspendMessagingUser transitions Active -> Suspended.
type SuspendMessagingUser struct {
	UserID ids.ID
	Reason string
}

func (c SuspendMessagingUser) Handle(a *Aggregate) ([]event.Event, error) {
	user, ok := a.Projection.MessagingUsers[c.UserID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingUser", c.UserID.String())
	}
	to, err := state.MessagingUserMachine.Transition(user.State, state.MessagingSuspended)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.UserID, ids.Nil)
	ev, err := b.Emit(event.NatsUserSuspended{UserID: c.UserID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	user.State = to
	return []event.Event{ev}, nil
}

// ReactivateMessagingUser transitions Suspended -> Active.
type ReactivateMessagingUser struct {
	UserID ids.ID
}

func (c ReactivateMessagingUser) Handle(a *Aggregate) ([]event.Event, error) {
	user, ok := a.Projection.MessagingUsers[c.UserID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingUser", c.UserID.String())
	}
	to, err := state.MessagingUserMachine.Transition(user.State, state.MessagingActive)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.UserID, ids.Nil)
	ev, err := b.Emit(event.NatsUserReactivated{UserID: c.UserID})
	if err != nil {
		return nil, err
	}
	user.State = to
	return []event.Event{ev}, nil
}

// DeleteMessagingUser is terminal.
type DeleteMessagingUser struct {
	UserID ids.ID
	Reason string
}

func (c DeleteMessagingUser) Handle(a *Aggregate) ([]event.Event, error) {
	user, ok := a.Projection.MessagingUsers[c.UserID]
	if !ok {
		return nil, xerrors.AggregateNotFound("MessagingUser", c.UserID.String())
	}
	to, err := state.MessagingUserMachine.Transition(user.State, state.MessagingDeleted)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.UserID, ids.Nil)
	ev, err := b.Emit(event.NatsUserDeleted{UserID: c.UserID, Reason: c.Reason})
	if err != nil {
		return nil, err
	}
	user.State = to
	return []event.Event{ev}, nil
}

// GenerateMessagingSigningKey mints an additional rotatable signing key for
// an operator or account, beyond its primary identity key.
type GenerateMessagingSigningKey struct {
	OwnerID   ids.ID
	OwnerKind string // "operator" | "account"
}

func (c GenerateMessagingSigningKey) Handle(a *Aggregate) ([]event.Event, error) {
	switch c.OwnerKind {
	case "operator":
		if _, ok := a.Projection.MessagingOperators[c.OwnerID]; !ok {
			return nil, xerrors.AggregateNotFound("MessagingOperator", c.OwnerID.String())
		}
	case "account":
		if _, ok := a.Projection.MessagingAccounts[c.OwnerID]; !ok {
			return nil, xerrors.AggregateNotFound("MessagingAccount", c.OwnerID.String())
		}
	default:
		return nil, xerrors.InvariantViolated("messaging: unknown signing-key owner kind " + c.OwnerKind)
	}

	_, pub, err := messaging.GenerateSigningKey(c.OwnerKind)
	if err != nil {
		return nil, err
	}

	b := newBatch(c.OwnerID, ids.Nil)
	ev, err := b.Emit(event.NatsSigningKeyGenerated{OwnerID: c.OwnerID, OwnerKind: c.OwnerKind, PublicKey: pub})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// SetMessagingPermissions updates an existing account or user's
// permission/limit set.
type SetMessagingPermissions struct {
	OwnerID     ids.ID
	OwnerKind   string // "account" | "user"
	Permissions messaging.Permissions
	Limits      messaging.Limits
}

func (c SetMessagingPermissions) Handle(a *Aggregate) ([]event.Event, error) {
	switch c.OwnerKind {
	case "account":
		if _, ok := a.Projection.MessagingAccounts[c.OwnerID]; !ok {
			return nil, xerrors.AggregateNotFound("MessagingAccount", c.OwnerID.String())
		}
	case "user":
		if _, ok := a.Projection.MessagingUsers[c.OwnerID]; !ok {
			return nil, xerrors.AggregateNotFound("MessagingUser", c.OwnerID.String())
		}
	default:
		return nil, xerrors.InvariantViolated("messaging: unknown permissions owner kind " + c.OwnerKind)
	}

	b := newBatch(c.OwnerID, ids.Nil)
	ev, err := b.Emit(event.NatsPermissionsSet{
		OwnerID: c.OwnerID, OwnerKind: c.OwnerKind,
		Permissions: toEventPermissions(c.Permissions), Limits: toEventLimits(c.Limits),
	})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// ExportMessagingConfig records that the deployable NSC-compatible directory
// tree was written to destination.
type ExportMessagingConfig struct {
	OperatorID  ids.ID
	Destination string
}

func (c ExportMessagingConfig) Handle(a *Aggregate) ([]event.Event, error) {
	if _, ok := a.Projection.MessagingOperators[c.OperatorID]; !ok {
		return nil, xerrors.AggregateNotFound("MessagingOperator", c.OperatorID.String())
	}

	b := newBatch(c.OperatorID, ids.Nil)
	ev, err := b.Emit(event.NatsConfigExported{OperatorID: c.OperatorID, Destination: c.Destination})
	if err != nil {
		return nil, err
	}
	return []event.Event{ev}, nil
}

// CreateServiceAccount introduces a non-human automated identity. A nil
// ResponsiblePersonID is an accountability violation: the command is
// rejected, but an AccountabilityViolated audit event is still returned
// alongside the error so the rejection itself leaves a durable trace.
type CreateServiceAccount struct {
	Name                string
	Purpose             string
	UnitID              ids.ID
	ResponsiblePersonID *ids.ID
}

func (c CreateServiceAccount) Handle(a *Aggregate) ([]event.Event, error) {
	if c.ResponsiblePersonID == nil {
		b := newBatch(ids.New(), ids.Nil)
		ev, emitErr := b.Emit(event.AccountabilityViolated{EntityType: "ServiceAccount", AttemptedName: c.Name})
		if emitErr != nil {
			return nil, emitErr
		}
		return []event.Event{ev}, xerrors.AccountabilityViolation("ServiceAccount", c.Name)
	}
	if _, ok := a.Projection.People[*c.ResponsiblePersonID]; !ok {
		return nil, xerrors.AggregateNotFound("Person", c.ResponsiblePersonID.String())
	}

	serviceAccountID := ids.New()
	b := newBatch(serviceAccountID, ids.Nil)
	events := []event.Event{}
	created, err := b.Emit(event.ServiceAccountCreated{
		ServiceAccountID: serviceAccountID, Name: c.Name, Purpose: c.Purpose,
		UnitID: c.UnitID, ResponsiblePersonID: *c.ResponsiblePersonID,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, created)

	validated, err := b.Emit(event.AccountabilityValidated{
		EntityType: "ServiceAccount", EntityID: serviceAccountID, ResponsiblePersonID: *c.ResponsiblePersonID,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, validated)

	a.Projection.ServiceAccounts[serviceAccountID] = &ServiceIdentityState{
		ID: serviceAccountID, ResponsiblePersonID: *c.ResponsiblePersonID,
	}
	return events, nil
}

// CreateAgent is CreateServiceAccount's counterpart for autonomous agents.
type CreateAgent struct {
	Name                string
	Purpose             string
	UnitID              ids.ID
	ResponsiblePersonID *ids.ID
}

func (c CreateAgent) Handle(a *Aggregate) ([]event.Event, error) {
	if c.ResponsiblePersonID == nil {
		b := newBatch(ids.New(), ids.Nil)
		ev, emitErr := b.Emit(event.AccountabilityViolated{EntityType: "Agent", AttemptedName: c.Name})
		if emitErr != nil {
			return nil, emitErr
		}
		return []event.Event{ev}, xerrors.AccountabilityViolation("Agent", c.Name)
	}
	if _, ok := a.Projection.People[*c.ResponsiblePersonID]; !ok {
		return nil, xerrors.AggregateNotFound("Person", c.ResponsiblePersonID.String())
	}

	agentID := ids.New()
	b := newBatch(agentID, ids.Nil)
	events := []event.Event{}
	created, err := b.Emit(event.AgentCreated{
		AgentID: agentID, Name: c.Name, Purpose: c.Purpose,
		UnitID: c.UnitID, ResponsiblePersonID: *c.ResponsiblePersonID,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, created)

	validated, err := b.Emit(event.AccountabilityValidated{
		EntityType: "Agent", EntityID: agentID, ResponsiblePersonID: *c.ResponsiblePersonID,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, validated)

	a.Projection.Agents[agentID] = &ServiceIdentityState{ID: agentID, ResponsiblePersonID: *c.ResponsiblePersonID}
	return events, nil
}

// BootstrapMessaging atomically provisions an operator, one account and one
// user under it, sharing a single correlation ID across the three
// per-aggregate batches.
type BootstrapMessaging struct {
	OperatorName string
	AccountName  string
	UnitID       *ids.ID
	UserName     string
	OwnerPersonID *ids.ID
}

func (c BootstrapMessaging) Handle(a *Aggregate) ([]event.Event, error) {
	if a.Projection.OrganizationID == ids.Nil {
		return nil, xerrors.InvariantViolated("cannot bootstrap messaging before the organization is created")
	}

	correlationID := ids.New()
	var events []event.Event

	operatorIdentity, _, err := messaging.GenerateOperatorIdentity(c.OperatorName)
	if err != nil {
		return nil, err
	}
	operatorID := ids.New()
	operatorBatch := newBatch(operatorID, correlationID)
	operatorEv, err := operatorBatch.Emit(event.NatsOperatorCreated{
		OperatorID: operatorID, OrganizationID: a.Projection.OrganizationID, Name: c.OperatorName,
		PublicKey: operatorIdentity.PublicKey, SignerPublicKey: operatorIdentity.PublicKey,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, operatorEv)
	a.Projection.MessagingOperators[operatorID] = &MessagingOperatorState{
		ID: operatorID, State: state.MessagingActive, PublicKey: operatorIdentity.PublicKey, KeyPair: operatorIdentity.KeyPair,
	}

	accountIdentity, _, err := messaging.GenerateAccountIdentity(c.AccountName, operatorIdentity, messaging.Permissions{}, messaging.Limits{})
	if err != nil {
		return nil, err
	}
	accountID := ids.New()
	accountBatch := newBatch(accountID, correlationID)
	accountEv, err := accountBatch.Emit(event.NatsAccountCreated{
		AccountID: accountID, OperatorID: operatorID, Name: c.AccountName, UnitID: c.UnitID,
		PublicKey: accountIdentity.PublicKey, SignerPublicKey: operatorIdentity.PublicKey,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, accountEv)
	a.Projection.MessagingAccounts[accountID] = &MessagingAccountState{
		ID: accountID, OperatorID: operatorID, State: state.MessagingActive,
		PublicKey: accountIdentity.PublicKey, KeyPair: accountIdentity.KeyPair,
	}

	userIdentity, _, err := messaging.GenerateUserIdentity(c.UserName, accountIdentity, messaging.Permissions{}, messaging.Limits{})
	if err != nil {
		return nil, err
	}
	userID := ids.New()
	userBatch := newBatch(userID, correlationID)
	userEv, err := userBatch.Emit(event.NatsUserCreated{
		UserID: userID, AccountID: accountID, Name: c.UserName, OwnerPersonID: c.OwnerPersonID,
		PublicKey: userIdentity.PublicKey, SignerPublicKey: accountIdentity.PublicKey,
	})
	if err != nil {
		return nil, err
	}
	events = append(events, userEv)
	a.Projection.MessagingUsers[userID] = &MessagingUserState{
		ID: userID, AccountID: accountID, State: state.MessagingActive, PublicKey: userIdentity.PublicKey,
	}

	return events, nil
}
