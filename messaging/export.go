package messaging

import "fmt"

// CredentialsFile renders the NSC-compatible composite ".creds" format: a
// JWT block and a seed block, each fenced by standardized BEGIN/END
// banners, suitable for a NATS client's credentials file option.
func CredentialsFile(token string, seed []byte) []byte {
	return []byte(fmt.Sprintf(
		"-----BEGIN NATS USER JWT-----\n%s\n------END NATS USER JWT------\n\n"+
			"************************* IMPORTANT *************************\n"+
			"NKEY Seed printed below can be used to sign and prove identity.\n"+
			"NKEYs are sensitive and should be treated as secrets.\n\n"+
			"-----BEGIN USER NKEY SEED-----\n%s\n------END USER NKEY SEED------\n\n"+
			"*************************************************************\n",
		token, seed,
	))
}

// ExportPaths names the NSC-compatible relative paths a credential export
// writes beneath a caller-chosen destination root; the projection writer
// (for durable verification data) and a standalone export command (for the
// full token/seed material) both consult this layout so the two stay
// aligned.
type ExportPaths struct {
	OperatorJWT string
	AccountJWT  string
	UserCreds   string
}

// PathsFor computes the NSC-style export paths for one operator/account/user
// triple, rooted at an operator name and account name.
func PathsFor(operatorName, accountName, userName string) ExportPaths {
	return ExportPaths{
		OperatorJWT: fmt.Sprintf("%s/%s.jwt", operatorName, operatorName),
		AccountJWT:  fmt.Sprintf("%s/accounts/%s/%s.jwt", operatorName, accountName, accountName),
		UserCreds:   fmt.Sprintf("%s/accounts/%s/users/%s.creds", operatorName, accountName, userName),
	}
}
