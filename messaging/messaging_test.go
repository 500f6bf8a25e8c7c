package messaging

import (
	"strings"
	"testing"

	"github.com/nats-io/jwt/v2"
	"github.com/stretchr/testify/require"
)

func TestOperatorTokenIsSelfSigned(t *testing.T) {
	op, token, err := GenerateOperatorIdentity("genesis-operator")
	require.NoError(t, err)
	claims, err := jwt.DecodeOperatorClaims(token)
	require.NoError(t, err)
	require.Equal(t, op.PublicKey, claims.Issuer)
}

func TestAccountTokenSignedByOperatorNotItself(t *testing.T) {
	op, _, err := GenerateOperatorIdentity("genesis-operator")
	require.NoError(t, err)
	acct, token, err := GenerateAccountIdentity("treasury", op, Permissions{Publish: []string{"genesis.treasury.>"}}, Limits{MaxConnections: 10})
	require.NoError(t, err)
	claims, err := jwt.DecodeAccountClaims(token)
	require.NoError(t, err)
	require.Equal(t, op.PublicKey, claims.Issuer, "account token must be issued by the operator")
	require.NotEqual(t, acct.PublicKey, claims.Issuer, "account token must never be self-signed")
}

func TestUserTokenSignedByAccountNotItself(t *testing.T) {
	op, _, err := GenerateOperatorIdentity("genesis-operator")
	require.NoError(t, err)
	acct, _, err := GenerateAccountIdentity("treasury", op, Permissions{}, Limits{})
	require.NoError(t, err)
	user, token, err := GenerateUserIdentity("alice", acct, Permissions{Subscribe: []string{"genesis.treasury.alice.>"}}, Limits{})
	require.NoError(t, err)
	claims, err := jwt.DecodeUserClaims(token)
	require.NoError(t, err)
	require.Equal(t, acct.PublicKey, claims.Issuer, "user token must be issued by the account")
	require.NotEqual(t, user.PublicKey, claims.Issuer, "user token must never be self-signed")
}

func TestCredentialsFileContainsBothBanners(t *testing.T) {
	op, _, err := GenerateOperatorIdentity("genesis-operator")
	require.NoError(t, err)
	acct, _, err := GenerateAccountIdentity("treasury", op, Permissions{}, Limits{})
	require.NoError(t, err)
	user, token, err := GenerateUserIdentity("alice", acct, Permissions{}, Limits{})
	require.NoError(t, err)
	seed, err := Seed(user)
	require.NoError(t, err)
	creds := string(CredentialsFile(token, seed))
	require.Contains(t, creds, "BEGIN NATS USER JWT")
	require.Contains(t, creds, "BEGIN USER NKEY SEED")
}
