// Package messaging implements the messaging-identity engine: Ed25519
// keypairs and NATS-compatible nkey-encoded public keys and signed JWT
// bearer tokens for the Operator -> Account -> User hierarchy. Each level
// is a pure function over an explicit parent signer, never over its own
// seed, so the account-self-signing defect described in design notes is
// structurally unreachable here rather than merely avoided by convention.
package messaging

import (
	"github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// Identity pairs an nkey key pair with its encoded public key. The key pair
// is retained only so this identity can later sign a child identity's
// token (an account signs its users); it is never used to sign its own.
type Identity struct {
	KeyPair   nkeys.KeyPair
	PublicKey string
}

// Permissions mirrors the publish/subscribe subject patterns and payload
// ceiling carried by account and user tokens.
type Permissions struct {
	Publish        []string
	Subscribe      []string
	MaxPayload     int64
	AllowResponses bool
}

// Limits mirrors the connection/subscription ceilings carried by account tokens.
type Limits struct {
	MaxConnections   int64
	MaxSubscriptions int64
}

func seedFail(op string, err error) error {
	return xerrors.CryptoFailure(op, err)
}

func applyPermissions(p jwt.Permissions, perm Permissions) jwt.Permissions {
	p.Pub.Allow = append(p.Pub.Allow, perm.Publish...)
	p.Sub.Allow = append(p.Sub.Allow, perm.Subscribe...)
	if perm.AllowResponses {
		p.Resp = &jwt.ResponsePermission{MaxMsgs: 1}
	}
	return p
}

// GenerateOperatorIdentity mints a new operator keypair and a self-signed
// operator token: the operator is the trust anchor, so it is the only
// level in the hierarchy permitted to sign its own claims.
func GenerateOperatorIdentity(name string) (*Identity, string, error) {
	kp, err := nkeys.CreateOperator()
	if err != nil {
		return nil, "", seedFail("create operator keypair", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, "", seedFail("derive operator public key", err)
	}

	claims := jwt.NewOperatorClaims(pub)
	claims.Name = name

	token, err := claims.Encode(kp)
	if err != nil {
		return nil, "", seedFail("encode operator token", err)
	}
	return &Identity{KeyPair: kp, PublicKey: pub}, token, nil
}

// GenerateAccountIdentity mints a new account keypair and a token signed by
// the parent operator's keypair, never by the account's own seed.
func GenerateAccountIdentity(name string, operator *Identity, perm Permissions, lim Limits) (*Identity, string, error) {
	kp, err := nkeys.CreateAccount()
	if err != nil {
		return nil, "", seedFail("create account keypair", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, "", seedFail("derive account public key", err)
	}

	claims := jwt.NewAccountClaims(pub)
	claims.Name = name
	claims.Limits.NatsLimits = jwt.NatsLimits{
		Subs:    int64(lim.MaxSubscriptions),
		Payload: perm.MaxPayload,
	}
	claims.Limits.AccountLimits.Conn = int64(lim.MaxConnections)
	claims.DefaultPermissions = applyPermissions(claims.DefaultPermissions, perm)

	token, err := claims.Encode(operator.KeyPair)
	if err != nil {
		return nil, "", seedFail("encode account token", err)
	}
	return &Identity{KeyPair: kp, PublicKey: pub}, token, nil
}

// GenerateUserIdentity mints a new user keypair and a token signed by the
// parent account's keypair, never by the user's own seed.
func GenerateUserIdentity(name string, account *Identity, perm Permissions, lim Limits) (*Identity, string, error) {
	kp, err := nkeys.CreateUser()
	if err != nil {
		return nil, "", seedFail("create user keypair", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, "", seedFail("derive user public key", err)
	}

	claims := jwt.NewUserClaims(pub)
	claims.Name = name
	claims.Limits.NatsLimits = jwt.NatsLimits{
		Subs:    int64(lim.MaxSubscriptions),
		Payload: perm.MaxPayload,
	}
	claims.Permissions.Permissions = applyPermissions(claims.Permissions.Permissions, perm)

	token, err := claims.Encode(account.KeyPair)
	if err != nil {
		return nil, "", seedFail("encode user token", err)
	}
	return &Identity{KeyPair: kp, PublicKey: pub}, token, nil
}

// GenerateSigningKey mints an additional signing keypair for an operator or
// account, beyond its primary identity key, following NSC convention of
// rotatable signing keys distinct from the identity key.
func GenerateSigningKey(ownerKind string) (nkeys.KeyPair, string, error) {
	var kp nkeys.KeyPair
	var err error
	switch ownerKind {
	case "operator":
		kp, err = nkeys.CreateOperator()
	case "account":
		kp, err = nkeys.CreateAccount()
	default:
		return nil, "", xerrors.InvariantViolated("messaging: unknown signing-key owner kind " + ownerKind)
	}
	if err != nil {
		return nil, "", seedFail("create signing keypair", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, "", seedFail("derive signing public key", err)
	}
	return kp, pub, nil
}

// Seed returns the identity's private seed, for export under a
// caller-controlled keys tree. Callers must never route this through the
// durable projection directly; see projection's sensitive-data discipline.
func Seed(identity *Identity) ([]byte, error) {
	seed, err := identity.KeyPair.Seed()
	if err != nil {
		return nil, seedFail("extract seed", err)
	}
	return seed, nil
}
