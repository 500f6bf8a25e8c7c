package command

import (
	"testing"

	"github.com/cowboyai/genesis-issuer/domain/event"
	"github.com/cowboyai/genesis-issuer/internal/xerrors"
	"github.com/cowboyai/genesis-issuer/messaging"
)

func mustOrg(t *testing.T, a *Aggregate) {
	t.Helper()
	if _, err := (CreateOrganization{Name: "cowboyai", DisplayName: "Cowboy AI", Domain: "cowboyai.com"}).Handle(a); err != nil {
		t.Fatalf("create organization: %v", err)
	}
}

func TestMessagingSignerChainOperatorAccountUser(t *testing.T) {
	a := newTestAggregate()
	mustOrg(t, a)

	opEvs, err := (CreateMessagingOperator{Name: "cowboyai"}).Handle(a)
	if err != nil {
		t.Fatalf("create operator: %v", err)
	}
	operatorID := opEvs[0].AggregateID
	operator := a.Projection.MessagingOperators[operatorID]

	accEvs, err := (CreateMessagingAccount{
		OperatorID: operatorID, Name: "platform", Permissions: messaging.Permissions{Publish: []string{"events.>"}}, Limits: messaging.Limits{MaxConnections: 10},
	}).Handle(a)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	account, ok := accEvs[0].Payload.(event.NatsAccountCreated)
	if !ok {
		t.Fatalf("expected a NatsAccountCreated payload, got %T", accEvs[0].Payload)
	}
	if account.SignerPublicKey != operator.PublicKey {
		t.Fatalf("expected the account to be signed by its operator, got signer %q want %q", account.SignerPublicKey, operator.PublicKey)
	}

	userEvs, err := (CreateMessagingUser{
		AccountID: accEvs[0].AggregateID, Name: "worker-1", Permissions: messaging.Permissions{Subscribe: []string{"events.>"}},
	}).Handle(a)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	user, ok := userEvs[0].Payload.(event.NatsUserCreated)
	if !ok {
		t.Fatalf("expected a NatsUserCreated payload, got %T", userEvs[0].Payload)
	}
	if user.SignerPublicKey != account.PublicKey {
		t.Fatalf("expected the user to be signed by its account, got signer %q want %q", user.SignerPublicKey, account.PublicKey)
	}
}

func TestCreateServiceAccountRejectsMissingResponsiblePersonButRecordsViolation(t *testing.T) {
	a := newTestAggregate()
	mustOrg(t, a)

	evs, err := (CreateServiceAccount{Name: "ci-deployer", Purpose: "automated deploys"}).Handle(a)
	if err == nil {
		t.Fatal("expected a service account with no responsible person to be rejected")
	}
	if !xerrors.HasCode(err, xerrors.CodeAccountabilityViolation) {
		t.Fatalf("expected ACCOUNTABILITY_VIOLATION, got %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("expected the rejected attempt to still record one audit event, got %d", len(evs))
	}
	if _, ok := evs[0].Payload.(event.AccountabilityViolated); !ok {
		t.Fatalf("expected an AccountabilityViolated payload, got %T", evs[0].Payload)
	}
}

func TestCreateServiceAccountWithResponsiblePersonSucceeds(t *testing.T) {
	a := newTestAggregate()
	mustOrg(t, a)
	personEvs, err := (CreatePerson{LegalName: "Morgan Lee"}).Handle(a)
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	personID := personEvs[0].AggregateID

	evs, err := (CreateServiceAccount{Name: "ci-deployer", Purpose: "automated deploys", ResponsiblePersonID: &personID}).Handle(a)
	if err != nil {
		t.Fatalf("create service account: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected ServiceAccountCreated + AccountabilityValidated, got %d events", len(evs))
	}
	if evs[0].CorrelationID != evs[1].CorrelationID {
		t.Fatal("expected both events from one command to share a correlation")
	}
}

func TestBootstrapMessagingSharesOneCorrelationAcrossThreeAggregates(t *testing.T) {
	a := newTestAggregate()
	mustOrg(t, a)

	evs, err := (BootstrapMessaging{OperatorName: "cowboyai", AccountName: "platform", UserName: "worker-1"}).Handle(a)
	if err != nil {
		t.Fatalf("bootstrap messaging: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("expected operator + account + user events, got %d", len(evs))
	}
	correlation := evs[0].CorrelationID
	aggregates := map[string]bool{}
	for _, ev := range evs {
		if ev.CorrelationID != correlation {
			t.Fatalf("expected every event to share correlation %v, got %v", correlation, ev.CorrelationID)
		}
		aggregates[ev.AggregateID.String()] = true
	}
	if len(aggregates) != 3 {
		t.Fatalf("expected three distinct aggregates (operator, account, user), got %d", len(aggregates))
	}
}
