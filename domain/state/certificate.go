package state

// Certificate lifecycle states.
const (
	CertPending         State = "Pending"
	CertIssued          State = "Issued"
	CertActive          State = "Active"
	CertRenewalPending  State = "RenewalPending"
	CertRenewed         State = "Renewed"
	CertRevoked         State = "Revoked"
	CertExpired         State = "Expired"
	CertArchived        State = "Archived"
)

// CertificateMachine: use-for-trust requires Active (enforced by callers, not
// the machine itself); revocation publishes a CRL record as a side effect of
// the same command, not a separate transition.
var CertificateMachine = NewMachine("Certificate",
	map[State][]State{
		CertPending:        {CertIssued, CertRevoked},
		CertIssued:         {CertActive, CertRevoked},
		CertActive:         {CertRenewalPending, CertRevoked, CertExpired},
		CertRenewalPending: {CertRenewed, CertRevoked},
		CertRenewed:        {CertArchived, CertRevoked},
		CertExpired:        {CertArchived, CertRevoked},
	},
	[]State{CertRevoked, CertArchived},
)
