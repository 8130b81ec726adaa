package ginternals

import (
	"crypto/sha1" //nolint:gosec // git's object ids are sha1 by definition
	"encoding/hex"

	"golang.org/x/xerrors"
)

// OidSize is the length, in bytes, of a raw Oid
const OidSize = 20

// NullOid is the zero-value Oid. It never identifies a real object and
// is used as a sentinel for "no object"/"no parent"
var NullOid = Oid{}

// Oid represents a git Object ID: the SHA-1 digest of an object's
// uncompressed "<type> <size>\0<content>" representation
type Oid [OidSize]byte

// NewOidFromContent returns the Oid of the given content, by summing it
// with SHA-1. The content passed in is expected to already contain the
// "<type> <size>\0" header
func NewOidFromContent(data []byte) Oid {
	return Oid(sha1.Sum(data))
}

// NewOidFromHex returns an Oid from its 20 raw bytes
func NewOidFromHex(id []byte) (Oid, error) {
	if len(id) != OidSize {
		return NullOid, xerrors.Errorf("oid has %d bytes, expected %d: %w", len(id), OidSize, ErrInvalidOid)
	}
	var oid Oid
	copy(oid[:], id)
	return oid, nil
}

// NewOidFromStr returns an Oid from its 40-character hex-encoded string
// representation
func NewOidFromStr(id string) (Oid, error) {
	return NewOidFromChars([]byte(id))
}

// NewOidFromChars returns an Oid from its 40-character hex-encoded
// representation, passed as a byte slice
func NewOidFromChars(id []byte) (Oid, error) {
	raw, err := hex.DecodeString(string(id))
	if err != nil {
		return NullOid, xerrors.Errorf("%s is not a valid Oid: %w", string(id), ErrInvalidOid)
	}
	return NewOidFromHex(raw)
}

// Bytes returns the raw Oid as []byte.
// This is different than doing []byte(oid.String())
// For the oid 642480605b8b0fd464ab5762e044269cf29a60a3:
// oid.Bytes(): []byte{ 0x64, 0x24, 0x80, ... }
// []byte(oid.String()): []byte{ '6', '4', '2', '4', '8' '0', ... }
func (o Oid) Bytes() []byte {
	return o[:]
}

// String converts an oid to its 40-character hex-encoded representation
func (o Oid) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero returns whether the oid has the zero value (NullOid)
func (o Oid) IsZero() bool {
	return o == NullOid
}
