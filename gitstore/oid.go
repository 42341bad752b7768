package gitstore

import (
	"encoding/hex"

	"github.com/go-git/go-git/v5/plumbing"
)

// Oid is a content-addressed object identifier from the underlying object
// store. The zero value, ZeroOid, signals absence (spec.md §3).
type Oid struct {
	hash plumbing.Hash
}

// ZeroOid is the Oid signalling "no object" — used by RefUpdate to detect
// reference creation/deletion.
var ZeroOid = Oid{}

// NewOid wraps a go-git plumbing.Hash as an Oid.
func NewOid(h plumbing.Hash) Oid { return Oid{hash: h} }

// OidFromHex parses a lowercase-hex object id, as found in the signed-refs
// manifest text format (spec.md §6).
func OidFromHex(s string) (Oid, error) {
	if len(s) != len(plumbing.ZeroHash)*2 {
		return Oid{}, &invalidOidError{s}
	}
	if _, err := hex.DecodeString(s); err != nil {
		return Oid{}, &invalidOidError{s}
	}
	return Oid{hash: plumbing.NewHash(s)}, nil
}

// Hash returns the underlying go-git hash, for calls into the object store.
func (o Oid) Hash() plumbing.Hash { return o.hash }

// Bytes returns the raw object-id bytes, used to derive the RID from the
// initial identity-document commit.
func (o Oid) Bytes() []byte {
	b := make([]byte, len(o.hash))
	copy(b, o.hash[:])
	return b
}

// String returns the lowercase-hex form.
func (o Oid) String() string { return o.hash.String() }

// Short returns the first 7 hex characters, used by RefUpdate's Display
// format (spec.md §4.B).
func (o Oid) Short() string {
	s := o.String()
	if len(s) < 7 {
		return s
	}
	return s[:7]
}

// IsZero reports whether this is the absence sentinel.
func (o Oid) IsZero() bool { return o.hash.IsZero() }

// Equal reports whether o and p identify the same object.
func (o Oid) Equal(p Oid) bool { return o.hash == p.hash }

type invalidOidError struct{ s string }

func (e *invalidOidError) Error() string { return "gitstore: invalid oid " + e.s }
