package state

import "testing"

func TestKeyMachineTerminalStatesRejectAnyTransition(t *testing.T) {
	for _, terminal := range []State{KeyRevoked, KeyArchived} {
		if !KeyMachine.IsTerminal(terminal) {
			t.Fatalf("%s: expected terminal", terminal)
		}
		for _, target := range []State{KeyGenerated, KeyActive, KeyRotationPending, KeyRotated, KeyExpired} {
			if KeyMachine.CanTransitionTo(terminal, target) {
				t.Fatalf("%s -> %s: expected rejected, terminal state allowed transition", terminal, target)
			}
		}
	}
}

func TestKeyMachineNoRotateWhileRotating(t *testing.T) {
	if KeyMachine.CanTransitionTo(KeyRotationPending, KeyRotationPending) {
		t.Fatal("expected RotationPending -> RotationPending to be rejected")
	}
	if _, err := KeyMachine.Transition(KeyRotationPending, KeyRotationPending); err == nil {
		t.Fatal("expected error re-initiating rotation while pending")
	}
}

func TestKeyMachineRevokedRejectsRotate(t *testing.T) {
	_, err := KeyMachine.Transition(KeyRevoked, KeyRotationPending)
	if err == nil {
		t.Fatal("expected InvalidStateTransition rotating a revoked key")
	}
}

func TestKeyMachineHappyPath(t *testing.T) {
	steps := []struct{ from, to State }{
		{KeyGenerated, KeyActive},
		{KeyActive, KeyRotationPending},
		{KeyRotationPending, KeyRotated},
		{KeyRotated, KeyArchived},
	}
	for _, s := range steps {
		got, err := KeyMachine.Transition(s.from, s.to)
		if err != nil {
			t.Fatalf("%s -> %s: unexpected error: %v", s.from, s.to, err)
		}
		if got != s.to {
			t.Fatalf("expected resulting state %s, got %s", s.to, got)
		}
	}
}

func TestCertificateMachineRevokeFromAnyNonTerminalState(t *testing.T) {
	nonTerminal := []State{CertPending, CertIssued, CertActive, CertRenewalPending, CertRenewed, CertExpired}
	for _, from := range nonTerminal {
		if !CertificateMachine.CanTransitionTo(from, CertRevoked) {
			t.Fatalf("%s -> Revoked: expected allowed", from)
		}
	}
}

func TestPolicyMachineActivationPath(t *testing.T) {
	if !PolicyMachine.CanTransitionTo(PolicyDraft, PolicyActive) {
		t.Fatal("expected Draft -> Active to be reachable (command layer enforces claim/condition preconditions)")
	}
	if PolicyMachine.CanTransitionTo(PolicyRevoked, PolicyActive) {
		t.Fatal("expected Revoked to be terminal")
	}
}

func TestPersonMachineSuspensionRoundTrip(t *testing.T) {
	if !PersonMachine.CanTransitionTo(PersonActive, PersonSuspended) {
		t.Fatal("expected Active -> Suspended")
	}
	if !PersonMachine.CanTransitionTo(PersonSuspended, PersonActive) {
		t.Fatal("expected Suspended -> Active (roles preserved by the command layer)")
	}
}

func TestLocationMachineArchivalRequiresDecommissioned(t *testing.T) {
	if LocationMachine.CanTransitionTo(LocationActive, LocationArchived) {
		t.Fatal("expected Active -> Archived to be rejected without an intervening Decommissioned")
	}
	if !LocationMachine.CanTransitionTo(LocationDecommissioned, LocationArchived) {
		t.Fatal("expected Decommissioned -> Archived to be reachable")
	}
}

func TestSmartcardMachineLockedRecoversOnlyViaProvisioned(t *testing.T) {
	if !SmartcardMachine.CanTransitionTo(SmartcardLocked, SmartcardProvisioned) {
		t.Fatal("expected Locked -> Provisioned (PUK unlock) to be reachable")
	}
	if SmartcardMachine.CanTransitionTo(SmartcardLocked, SmartcardActive) {
		t.Fatal("expected Locked -> Active to be rejected; must re-traverse Provisioned")
	}
}

func TestMessagingOperatorRevocationIsTerminal(t *testing.T) {
	if !MessagingOperatorMachine.IsTerminal(MessagingRevoked) {
		t.Fatal("expected operator Revoked to be terminal")
	}
	if MessagingOperatorMachine.CanTransitionTo(MessagingRevoked, MessagingActive) {
		t.Fatal("expected no reactivation after operator revocation")
	}
}

func TestMessagingAccountDeletedIsTerminal(t *testing.T) {
	if !MessagingAccountMachine.IsTerminal(MessagingDeleted) {
		t.Fatal("expected account Deleted to be terminal")
	}
}
