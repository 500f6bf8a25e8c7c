package policy

import (
	"testing"
	"time"

	"github.com/cowboyai/genesis-issuer/internal/ids"
)

func seedRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.DefineClaim(Claim{ID: "pki.certificate.issue", Category: "pki", Resource: "certificate", Action: "issue"}); err != nil {
		t.Fatalf("define claim: %v", err)
	}
	if err := r.DefineRole(Role{ID: "issuer", Purpose: "issue certificates", ClaimIDs: []string{"pki.certificate.issue"}}); err != nil {
		t.Fatalf("define role: %v", err)
	}
	return r
}

func TestActivatePolicyRequiresNonEmptyRole(t *testing.T) {
	r := NewRegistry()
	if err := r.DefineRole(Role{ID: "empty", Purpose: "nothing"}); err != nil {
		t.Fatalf("define role: %v", err)
	}
	p, err := r.CreatePolicy(Policy{ID: ids.New(), RoleID: "empty"})
	if err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if _, err := r.Activate(p.ID); err == nil {
		t.Fatal("expected activation to fail for a role with no claims")
	}
}

func TestBindGrantsClaimsWithinValidityWindow(t *testing.T) {
	r := seedRegistry(t)
	p, err := r.CreatePolicy(Policy{ID: ids.New(), RoleID: "issuer", Priority: 1})
	if err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if _, err := r.Activate(p.ID); err != nil {
		t.Fatalf("activate policy: %v", err)
	}

	entity := ids.New()
	now := time.Unix(1700000000, 0).UTC()
	if _, err := r.Bind(Binding{ID: ids.New(), PolicyID: p.ID, EntityID: entity, EntityType: "Person", ValidFrom: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	claims := r.GrantedClaims(entity, now)
	if len(claims) != 1 || claims[0] != "pki.certificate.issue" {
		t.Fatalf("expected exactly the issuer claim granted, got %v", claims)
	}
}

func TestBindRejectsMutuallyExclusiveRoles(t *testing.T) {
	r := seedRegistry(t)
	if err := r.DefineRole(Role{ID: "auditor", Purpose: "audit", ClaimIDs: []string{"pki.certificate.issue"}, MutuallyExclusiveRoleIDs: []string{"issuer"}}); err != nil {
		t.Fatalf("define role: %v", err)
	}

	issuerPolicy, err := r.CreatePolicy(Policy{ID: ids.New(), RoleID: "issuer"})
	if err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if _, err := r.Activate(issuerPolicy.ID); err != nil {
		t.Fatalf("activate issuer policy: %v", err)
	}
	auditorPolicy, err := r.CreatePolicy(Policy{ID: ids.New(), RoleID: "auditor"})
	if err != nil {
		t.Fatalf("create policy: %v", err)
	}
	if _, err := r.Activate(auditorPolicy.ID); err != nil {
		t.Fatalf("activate auditor policy: %v", err)
	}

	entity := ids.New()
	now := time.Unix(1700000000, 0).UTC()
	if _, err := r.Bind(Binding{ID: ids.New(), PolicyID: issuerPolicy.ID, EntityID: entity, EntityType: "Person", ValidFrom: now}); err != nil {
		t.Fatalf("bind issuer: %v", err)
	}
	if _, err := r.Bind(Binding{ID: ids.New(), PolicyID: auditorPolicy.ID, EntityID: entity, EntityType: "Person", ValidFrom: now}); err == nil {
		t.Fatal("expected bind to reject a mutually exclusive role")
	}
}
