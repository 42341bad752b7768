// Package remote implements the Remote (spec.md §4.E): one author's
// contribution to a repository, carried as their signed-refs manifest plus
// a verification state.
package remote

import (
	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/signer"
	"github.com/gsaslis/heartwood/sigrefs"
)

// ID identifies a remote by its public signing key. A repository holds at
// most one remote per distinct key.
type ID = signer.PublicKey

// Unverified is a remote built from the tip of refs/rad/sigrefs under its
// namespace, before the signature has been checked.
type Unverified struct {
	ID      ID
	Sigrefs sigrefs.Signed
}

// Verified is a remote whose signed-refs have been confirmed to be signed
// by the key that names the remote.
type Verified struct {
	ID      ID
	Sigrefs sigrefs.Signed
}

// New builds an Unverified remote from a parsed signed-refs manifest.
func New(id ID, signed sigrefs.Signed) Unverified {
	return Unverified{ID: id, Sigrefs: signed}
}

// Verify returns a Verified remote iff the inner signed refs verify, and
// the key that signed them is the same key that names the remote
// (spec.md §4.E: "key == remote id").
func (u Unverified) Verify() (Verified, error) {
	if !u.ID.Equal(u.Sigrefs.SignedBy()) {
		return Verified{}, corerr.New(corerr.KindUnknownKey, "remote: signed-refs key does not match remote id")
	}
	if err := u.Sigrefs.Verify(); err != nil {
		return Verified{}, err
	}
	return Verified{ID: u.ID, Sigrefs: u.Sigrefs}, nil
}

// Refs returns the verified manifest's (ref-name -> oid) pairs.
func (v Verified) Refs() map[string]gitstore.Oid {
	return v.Sigrefs.Refs()
}
