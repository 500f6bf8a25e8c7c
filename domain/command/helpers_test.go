package command

import (
	"crypto/sha256"
)

func newTestAggregate() *Aggregate {
	return NewAggregate(NewProjection(), func(s string) []byte {
		sum := sha256.Sum256([]byte(s))
		return sum[:]
	})
}
