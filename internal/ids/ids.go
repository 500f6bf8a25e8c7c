// Package ids generates the time-ordered identifiers used throughout the
// core: event IDs, aggregate IDs and content IDs all share the same 128-bit,
// millisecond-prefixed layout so that sort order on the identifier is also
// creation order. This is exactly the layout of a version-7 UUID (RFC 9562),
// so identifiers are minted with google/uuid rather than a bespoke encoder.
package ids

import (
	"time"

	"github.com/google/uuid"
)

// ID is a time-ordered 128-bit identifier.
type ID = uuid.UUID

// Nil is the zero-value identifier, used only for never-generated references.
var Nil = uuid.Nil

// New mints a fresh time-ordered identifier.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the entropy source is broken; the process
		// cannot safely mint credentials at that point.
		panic("ids: failed to generate time-ordered identifier: " + err.Error())
	}
	return id
}

// Parse parses a canonical string representation of an ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse is like Parse but panics on error; used for compile-time-known constants in tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Timestamp extracts the embedded creation time from a time-ordered identifier.
// Any created_at/generated_at field on the same row as a newly-minted
// identifier should be derived from it rather than sampled from the clock a
// second time.
func Timestamp(id ID) time.Time {
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}
