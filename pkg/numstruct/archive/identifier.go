package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Identifier is the document-unique number of a record.
type Identifier uint64

// Well-known identifiers present in every document.
const (
	DocumentID Identifier = 1
	PackageID  Identifier = 2
)

func (id Identifier) String() string {
	return fmt.Sprintf("#%d", uint64(id))
}

// UUID is a 128-bit owner key stored as two 64-bit halves.
type UUID struct {
	Lower uint64
	Upper uint64
}

// IsZero reports whether both halves are zero.
func (u UUID) IsZero() bool {
	return u.Lower == 0 && u.Upper == 0
}

// Less orders UUIDs by upper then lower half.
func (u UUID) Less(o UUID) bool {
	if u.Upper != o.Upper {
		return u.Upper < o.Upper
	}
	return u.Lower < o.Lower
}

// UUIDFromWords builds a UUID from four 32-bit words, least significant first.
func UUIDFromWords(w0, w1, w2, w3 uint32) UUID {
	return UUID{
		Lower: uint64(w1)<<32 | uint64(w0),
		Upper: uint64(w3)<<32 | uint64(w2),
	}
}

// Words splits the UUID into four 32-bit words, least significant first.
func (u UUID) Words() (w0, w1, w2, w3 uint32) {
	return uint32(u.Lower), uint32(u.Lower >> 32), uint32(u.Upper), uint32(u.Upper >> 32)
}

// NewUUID returns a random owner key.
func NewUUID() UUID {
	return FromStandard(uuid.New())
}

// FromStandard converts an RFC 4122 UUID, reading the bytes big-endian.
func FromStandard(s uuid.UUID) UUID {
	return UUID{
		Upper: binary.BigEndian.Uint64(s[:8]),
		Lower: binary.BigEndian.Uint64(s[8:]),
	}
}

// Standard converts to an RFC 4122 UUID value.
func (u UUID) Standard() uuid.UUID {
	var s uuid.UUID
	binary.BigEndian.PutUint64(s[:8], u.Upper)
	binary.BigEndian.PutUint64(s[8:], u.Lower)
	return s
}

// ParseUUID parses the canonical hyphenated text form.
func ParseUUID(s string) (UUID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, err
	}
	return FromStandard(v), nil
}

func (u UUID) String() string {
	return u.Standard().String()
}
