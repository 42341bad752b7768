// Package rid implements the Repository Identifier (RID): an opaque,
// globally unique identifier derived from a repository's initial identity
// document (spec.md §3). Its textual form is "rad:" plus a multibase
// encoding of a self-describing multihash, so the ID is future-proof
// against a change of the underlying object store's hash function.
package rid

import (
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

// Prefix is prepended to the multibase-encoded hash in the textual form.
const Prefix = "rad:"

// codeForLen picks the multihash function code matching the object store's
// hash width: SHA-1 for 20-byte Oids, SHA-256 for 32-byte Oids.
func codeForLen(n int) (uint64, error) {
	switch n {
	case 20:
		return multihash.SHA1, nil
	case 32:
		return multihash.SHA2_256, nil
	default:
		return 0, errors.Errorf("rid: unsupported hash length %d", n)
	}
}

// ID is a Repository Identifier. The zero value is not a valid ID.
type ID struct {
	mh multihash.Multihash
}

// FromHash builds an ID from the raw bytes of the initial identity
// document's commit hash (20 bytes for SHA-1 stores, 32 for SHA-256).
func FromHash(hash []byte) (ID, error) {
	code, err := codeForLen(len(hash))
	if err != nil {
		return ID{}, err
	}
	mh, err := multihash.Encode(hash, code)
	if err != nil {
		return ID{}, errors.Wrap(err, "rid: encode multihash")
	}
	return ID{mh: mh}, nil
}

// Parse decodes a textual RID of the form "rad:<multibase>".
func Parse(s string) (ID, error) {
	if len(s) <= len(Prefix) || s[:len(Prefix)] != Prefix {
		return ID{}, errors.Errorf("rid: missing %q prefix", Prefix)
	}
	_, data, err := multibase.Decode(s[len(Prefix):])
	if err != nil {
		return ID{}, errors.Wrap(err, "rid: decode multibase")
	}
	mh, err := multihash.Cast(data)
	if err != nil {
		return ID{}, errors.Wrap(err, "rid: decode multihash")
	}
	return ID{mh: mh}, nil
}

// String returns the textual form: "rad:" + base58btc-encoded multihash.
func (id ID) String() string {
	if len(id.mh) == 0 {
		return ""
	}
	enc, err := multibase.Encode(multibase.Base58BTC, id.mh)
	if err != nil {
		// Base58BTC encoding of a well-formed multihash cannot fail.
		panic(fmt.Sprintf("rid: encode multibase: %v", err))
	}
	return Prefix + enc
}

// IsZero reports whether id carries no hash.
func (id ID) IsZero() bool {
	return len(id.mh) == 0
}

// Equal reports whether id and o identify the same repository.
func (id ID) Equal(o ID) bool {
	if len(id.mh) != len(o.mh) {
		return false
	}
	for i := range id.mh {
		if id.mh[i] != o.mh[i] {
			return false
		}
	}
	return true
}

// Hash returns the raw digest bytes underlying this ID, without the
// multihash's type/length prefix.
func (id ID) Hash() ([]byte, error) {
	decoded, err := multihash.Decode(id.mh)
	if err != nil {
		return nil, errors.Wrap(err, "rid: decode multihash")
	}
	return decoded.Digest, nil
}
