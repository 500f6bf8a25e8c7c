package state

// Smartcard lifecycle states.
const (
	SmartcardDetected    State = "Detected"
	SmartcardProvisioned State = "Provisioned"
	SmartcardActive      State = "Active"
	SmartcardLocked      State = "Locked"
	SmartcardLost        State = "Lost"
	SmartcardRetired     State = "Retired"
)

// SmartcardMachine: Detected -> Provisioned requires the full security
// configuration pipeline (PIN, PUK, management key all non-default);
// Provisioned -> Active requires at least one slot allocation completed with
// a verified attestation. Locked is reachable from any non-terminal state on
// PIN-retry exhaustion; it recovers only via PUK-based unlock, modeled here
// as a return to Provisioned.
var SmartcardMachine = NewMachine("Smartcard",
	map[State][]State{
		SmartcardDetected:    {SmartcardProvisioned, SmartcardLost},
		SmartcardProvisioned: {SmartcardActive, SmartcardLocked, SmartcardLost, SmartcardRetired},
		SmartcardActive:      {SmartcardLocked, SmartcardLost, SmartcardRetired},
		SmartcardLocked:      {SmartcardProvisioned, SmartcardRetired},
		SmartcardLost:        {SmartcardRetired},
	},
	[]State{SmartcardRetired},
)
