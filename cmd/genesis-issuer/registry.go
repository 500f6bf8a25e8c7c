package main

import (
	"github.com/cowboyai/genesis-issuer/domain/command"
	"github.com/cowboyai/genesis-issuer/domain/event"
)

// Command is satisfied by every value type in domain/command: each already
// exposes a method of this exact shape, so no adapter boilerplate is needed
// per command, only a name-to-constructor entry below.
type Command interface {
	Handle(a *command.Aggregate) ([]event.Event, error)
}

// registry maps the envelope's "type" field to a zero-valued command ready
// for json.Unmarshal. Every exported domain/command type has an entry; a
// command absent here is a registry bug, not an unsupported operation (see
// TestRegistrySpotChecksEachDomainArea).
var registry = map[string]func() Command{
	"create-organization":   func() Command { return &command.CreateOrganization{} },
	"add-organization-unit": func() Command { return &command.AddOrganizationUnit{} },
	"bootstrap-organization": func() Command { return &command.BootstrapOrganization{} },
	"create-person":          func() Command { return &command.CreatePerson{} },
	"activate-person":        func() Command { return &command.ActivatePerson{} },
	"suspend-person":         func() Command { return &command.SuspendPerson{} },
	"deactivate-person":      func() Command { return &command.DeactivatePerson{} },
	"archive-person":         func() Command { return &command.ArchivePerson{} },
	"plan-location":          func() Command { return &command.PlanLocation{} },
	"activate-location":      func() Command { return &command.ActivateLocation{} },
	"decommission-location":  func() Command { return &command.DecommissionLocation{} },
	"archive-location":       func() Command { return &command.ArchiveLocation{} },

	"generate-key":           func() Command { return &command.GenerateKey{} },
	"import-key":             func() Command { return &command.ImportKey{} },
	"store-key-offline":      func() Command { return &command.StoreKeyOffline{} },
	"revoke-key":             func() Command { return &command.RevokeKey{} },
	"initiate-key-rotation":  func() Command { return &command.InitiateKeyRotation{} },
	"complete-key-rotation":  func() Command { return &command.CompleteKeyRotation{} },
	"expire-key":             func() Command { return &command.ExpireKey{} },
	"archive-key":            func() Command { return &command.ArchiveKey{} },

	"create-pki-hierarchy":          func() Command { return &command.CreatePkiHierarchy{} },
	"issue-leaf-certificate":        func() Command { return &command.IssueLeafCertificate{} },
	"sign-certificate-request":      func() Command { return &command.SignCertificateRequest{} },
	"verify-certificate-chain":      func() Command { return &command.VerifyCertificateChain{} },
	"export-certificate":            func() Command { return &command.ExportCertificate{} },
	"initiate-certificate-renewal":  func() Command { return &command.InitiateCertificateRenewal{} },
	"complete-certificate-renewal":  func() Command { return &command.CompleteCertificateRenewal{} },
	"revoke-certificate":            func() Command { return &command.RevokeCertificate{} },
	"expire-certificate":            func() Command { return &command.ExpireCertificate{} },
	"archive-certificate":           func() Command { return &command.ArchiveCertificate{} },

	"detect-smartcard":                 func() Command { return &command.DetectSmartcard{} },
	"configure-smartcard-pin":          func() Command { return &command.ConfigureSmartcardPIN{} },
	"configure-smartcard-puk":          func() Command { return &command.ConfigureSmartcardPUK{} },
	"rotate-smartcard-management-key":  func() Command { return &command.RotateSmartcardManagementKey{} },
	"plan-slot-allocation":             func() Command { return &command.PlanSlotAllocation{} },
	"generate-slot-key":                func() Command { return &command.GenerateSlotKey{} },
	"import-slot-certificate":          func() Command { return &command.ImportSlotCertificate{} },
	"seal-smartcard":                   func() Command { return &command.SealSmartcard{} },
	"lock-smartcard":                   func() Command { return &command.LockSmartcard{} },
	"report-smartcard-lost":            func() Command { return &command.ReportSmartcardLost{} },
	"retire-smartcard":                 func() Command { return &command.RetireSmartcard{} },

	"bootstrap-messaging":             func() Command { return &command.BootstrapMessaging{} },
	"create-messaging-operator":       func() Command { return &command.CreateMessagingOperator{} },
	"suspend-messaging-operator":      func() Command { return &command.SuspendMessagingOperator{} },
	"reactivate-messaging-operator":   func() Command { return &command.ReactivateMessagingOperator{} },
	"revoke-messaging-operator":       func() Command { return &command.RevokeMessagingOperator{} },
	"create-messaging-account":        func() Command { return &command.CreateMessagingAccount{} },
	"suspend-messaging-account":       func() Command { return &command.SuspendMessagingAccount{} },
	"reactivate-messaging-account":    func() Command { return &command.ReactivateMessagingAccount{} },
	"delete-messaging-account":        func() Command { return &command.DeleteMessagingAccount{} },
	"create-messaging-user":           func() Command { return &command.CreateMessagingUser{} },
	"suspend-messaging-user":          func() Command { return &command.SuspendMessagingUser{} },
	"reactivate-messaging-user":       func() Command { return &command.ReactivateMessagingUser{} },
	"delete-messaging-user":           func() Command { return &command.DeleteMessagingUser{} },
	"generate-messaging-signing-key":  func() Command { return &command.GenerateMessagingSigningKey{} },
	"set-messaging-permissions":       func() Command { return &command.SetMessagingPermissions{} },
	"export-messaging-config":         func() Command { return &command.ExportMessagingConfig{} },
	"create-service-account":          func() Command { return &command.CreateServiceAccount{} },
	"create-agent":                    func() Command { return &command.CreateAgent{} },

	"propose-relationship":   func() Command { return &command.ProposeRelationship{} },
	"activate-relationship":  func() Command { return &command.ActivateRelationship{} },
	"modify-relationship":    func() Command { return &command.ModifyRelationship{} },
	"suspend-relationship":   func() Command { return &command.SuspendRelationship{} },
	"terminate-relationship": func() Command { return &command.TerminateRelationship{} },
	"archive-relationship":   func() Command { return &command.ArchiveRelationship{} },

	"define-claim":          func() Command { return &command.DefineClaim{} },
	"define-role":           func() Command { return &command.DefineRole{} },
	"create-policy":         func() Command { return &command.CreatePolicy{} },
	"activate-policy":       func() Command { return &command.ActivatePolicy{} },
	"suspend-policy":        func() Command { return &command.SuspendPolicy{} },
	"revoke-policy":         func() Command { return &command.RevokePolicy{} },
	"create-policy-binding": func() Command { return &command.CreatePolicyBinding{} },
}
