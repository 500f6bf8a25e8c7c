package pki

import (
	"crypto/x509"
	"strconv"
	"time"

	"github.com/cowboyai/genesis-issuer/internal/xerrors"
)

// VerifyChain checks an ordered chain `leaf, intermediates..., root`: for
// each adjacent (cert, issuer) pair, the issuer's signature over cert must
// verify, cert's validity window must contain at, and every non-root issuer
// must be a CA whose path length accommodates its position (counted from the
// leaf). The chain is invalid if any check fails.
func VerifyChain(leaf *x509.Certificate, intermediates []*x509.Certificate, root *x509.Certificate, at time.Time) error {
	chain := append([]*x509.Certificate{leaf}, intermediates...)
	chain = append(chain, root)

	for i, cert := range chain {
		if at.Before(cert.NotBefore) || at.After(cert.NotAfter) {
			return xerrors.InvariantViolated("pki: certificate outside validity window in chain position " + strconv.Itoa(i))
		}

		isLast := i == len(chain)-1
		issuer := cert
		if !isLast {
			issuer = chain[i+1]
		}

		if err := cert.CheckSignatureFrom(issuer); err != nil {
			return xerrors.CryptoFailure("verify chain signature", err)
		}

		if !isLast {
			if !issuer.IsCA {
				return xerrors.InvariantViolated("pki: non-CA certificate used as issuer in chain")
			}
			// pathlen(issuer) >= i counting from the leaf (i=0): the issuer at
			// position i+1 must be able to certify i intermediates below it.
			if (issuer.MaxPathLen > 0 || issuer.MaxPathLenZero) && issuer.MaxPathLen < i {
				return xerrors.InvariantViolated("pki: path length constraint violated in chain")
			}
		}
	}

	return nil
}
