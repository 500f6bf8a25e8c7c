package event

import (
	"encoding/json"
	"fmt"
)

// wireEvent is the on-the-wire shape of an Event: the envelope and kind are
// stored alongside a raw payload so it can be routed to the right concrete
// type before unmarshaling, mirroring the repository's "tagged variant"
// design note rather than relying on interface{} polymorphism.
type wireEvent struct {
	Envelope
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// payloadFactories maps each Kind to a constructor for its zero-valued
// payload, used only during decode to pick the concrete type to unmarshal
// into. Registered in init() below; every Kind constant in payloads_*.go has
// an entry here, keeping the set exhaustive.
var payloadFactories = map[Kind]func() Payload{}

func register(k Kind, factory func() Payload) {
	payloadFactories[k] = factory
}

func init() {
	register(KindOrganizationCreated, func() Payload { return &OrganizationCreated{} })
	register(KindOrganizationUnitAdded, func() Payload { return &OrganizationUnitAdded{} })
	register(KindPersonCreated, func() Payload { return &PersonCreated{} })
	register(KindPersonActivated, func() Payload { return &PersonActivated{} })
	register(KindPersonSuspended, func() Payload { return &PersonSuspended{} })
	register(KindPersonDeactivated, func() Payload { return &PersonDeactivated{} })
	register(KindPersonArchived, func() Payload { return &PersonArchived{} })
	register(KindLocationPlanned, func() Payload { return &LocationPlanned{} })
	register(KindLocationActivated, func() Payload { return &LocationActivated{} })
	register(KindLocationDecommissioned, func() Payload { return &LocationDecommissioned{} })
	register(KindLocationArchived, func() Payload { return &LocationArchived{} })

	register(KindKeyGenerated, func() Payload { return &KeyGenerated{} })
	register(KindKeyImported, func() Payload { return &KeyImported{} })
	register(KindKeyStoredOffline, func() Payload { return &KeyStoredOffline{} })
	register(KindKeyRevoked, func() Payload { return &KeyRevoked{} })
	register(KindKeyRotationInitiated, func() Payload { return &KeyRotationInitiated{} })
	register(KindKeyRotationCompleted, func() Payload { return &KeyRotationCompleted{} })
	register(KindKeyExpired, func() Payload { return &KeyExpired{} })
	register(KindKeyArchived, func() Payload { return &KeyArchived{} })

	register(KindPkiHierarchyCreated, func() Payload { return &PkiHierarchyCreated{} })
	register(KindCertificateGenerated, func() Payload { return &CertificateGenerated{} })
	register(KindCertificateSigned, func() Payload { return &CertificateSigned{} })
	register(KindCertificateImportedToSlot, func() Payload { return &CertificateImportedToSlot{} })
	register(KindCertificateExported, func() Payload { return &CertificateExported{} })
	register(KindCertificateRenewalInitiated, func() Payload { return &CertificateRenewalInitiated{} })
	register(KindCertificateRenewed, func() Payload { return &CertificateRenewed{} })
	register(KindCertificateRevoked, func() Payload { return &CertificateRevoked{} })
	register(KindCertificateExpired, func() Payload { return &CertificateExpired{} })
	register(KindCertificateArchived, func() Payload { return &CertificateArchived{} })
	register(KindTrustEstablished, func() Payload { return &TrustEstablished{} })

	register(KindYubiKeyDetected, func() Payload { return &YubiKeyDetected{} })
	register(KindYubiKeyProvisioned, func() Payload { return &YubiKeyProvisioned{} })
	register(KindPinConfigured, func() Payload { return &PinConfigured{} })
	register(KindPukConfigured, func() Payload { return &PukConfigured{} })
	register(KindManagementKeyRotated, func() Payload { return &ManagementKeyRotated{} })
	register(KindSlotAllocationPlanned, func() Payload { return &SlotAllocationPlanned{} })
	register(KindKeyGeneratedInSlot, func() Payload { return &KeyGeneratedInSlot{} })
	register(KindSmartcardSealed, func() Payload { return &SmartcardSealed{} })
	register(KindSmartcardLocked, func() Payload { return &SmartcardLocked{} })
	register(KindSmartcardLost, func() Payload { return &SmartcardLost{} })
	register(KindSmartcardRetired, func() Payload { return &SmartcardRetired{} })

	register(KindNatsOperatorCreated, func() Payload { return &NatsOperatorCreated{} })
	register(KindNatsOperatorSuspended, func() Payload { return &NatsOperatorSuspended{} })
	register(KindNatsOperatorReactivated, func() Payload { return &NatsOperatorReactivated{} })
	register(KindNatsOperatorRevoked, func() Payload { return &NatsOperatorRevoked{} })
	register(KindNatsAccountCreated, func() Payload { return &NatsAccountCreated{} })
	register(KindNatsAccountSuspended, func() Payload { return &NatsAccountSuspended{} })
	register(KindNatsAccountReactivated, func() Payload { return &NatsAccountReactivated{} })
	register(KindNatsAccountDeleted, func() Payload { return &NatsAccountDeleted{} })
	register(KindNatsUserCreated, func() Payload { return &NatsUserCreated{} })
	register(KindNatsUserSuspended, func() Payload { return &NatsUserSuspended{} })
	register(KindNatsUserReactivated, func() Payload { return &NatsUserReactivated{} })
	register(KindNatsUserDeleted, func() Payload { return &NatsUserDeleted{} })
	register(KindNatsSigningKeyGenerated, func() Payload { return &NatsSigningKeyGenerated{} })
	register(KindNatsPermissionsSet, func() Payload { return &NatsPermissionsSet{} })
	register(KindNatsConfigExported, func() Payload { return &NatsConfigExported{} })
	register(KindServiceAccountCreated, func() Payload { return &ServiceAccountCreated{} })
	register(KindAgentCreated, func() Payload { return &AgentCreated{} })
	register(KindAccountabilityValidated, func() Payload { return &AccountabilityValidated{} })
	register(KindAccountabilityViolated, func() Payload { return &AccountabilityViolated{} })

	register(KindRelationshipProposed, func() Payload { return &RelationshipProposed{} })
	register(KindRelationshipActivated, func() Payload { return &RelationshipActivated{} })
	register(KindRelationshipModified, func() Payload { return &RelationshipModified{} })
	register(KindRelationshipSuspended, func() Payload { return &RelationshipSuspended{} })
	register(KindRelationshipTerminated, func() Payload { return &RelationshipTerminated{} })
	register(KindRelationshipArchived, func() Payload { return &RelationshipArchived{} })

	register(KindClaimDefined, func() Payload { return &ClaimDefined{} })
	register(KindRoleDefined, func() Payload { return &RoleDefined{} })
	register(KindPolicyCreated, func() Payload { return &PolicyCreated{} })
	register(KindPolicyActivated, func() Payload { return &PolicyActivated{} })
	register(KindPolicySuspended, func() Payload { return &PolicySuspended{} })
	register(KindPolicyRevoked, func() Payload { return &PolicyRevoked{} })
	register(KindPolicyBindingCreated, func() Payload { return &PolicyBindingCreated{} })

	register(KindManifestCreated, func() Payload { return &ManifestCreated{} })
}

// Marshal encodes an event for append-only persistence (events.jsonl).
func Marshal(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("event: marshal payload: %w", err)
	}
	return json.Marshal(wireEvent{Envelope: ev.Envelope, Kind: ev.Kind, Payload: payload})
}

// Unmarshal decodes an event previously produced by Marshal, recovering its
// concrete payload type from the registry above.
func Unmarshal(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return Event{}, fmt.Errorf("event: unmarshal envelope: %w", err)
	}

	factory, ok := payloadFactories[wire.Kind]
	if !ok {
		return Event{}, fmt.Errorf("event: unknown kind %q", wire.Kind)
	}
	payload := factory()
	if err := json.Unmarshal(wire.Payload, payload); err != nil {
		return Event{}, fmt.Errorf("event: unmarshal payload for %q: %w", wire.Kind, err)
	}

	return Event{Envelope: wire.Envelope, Kind: wire.Kind, Payload: payload}, nil
}
