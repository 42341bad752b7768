package repo

import (
	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/quorum"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/remote"
)

// IdentityDocAt decodes the identity document committed at oid, without
// structurally verifying it.
func (r *Repo) IdentityDocAt(oid gitstore.Oid) (identity.Unverified, error) {
	blob, err := r.store.Blob(oid, identity.Path)
	if err != nil {
		return identity.Unverified{}, err
	}
	commit, err := r.store.Commit(oid)
	if err != nil {
		return identity.Unverified{}, err
	}
	parent := gitstore.ZeroOid
	if len(commit.Parents) > 0 {
		parent = commit.Parents[0]
	}
	return identity.Decode(blob, parent)
}

// IdentityDoc returns the document at the current in-force identity
// pointer (IdentityHead), unverified.
func (r *Repo) IdentityDoc() (gitstore.Oid, identity.Unverified, error) {
	oid, err := r.IdentityHead()
	if err != nil {
		return gitstore.ZeroOid, identity.Unverified{}, err
	}
	doc, err := r.IdentityDocAt(oid)
	return oid, doc, err
}

// currentIdentityOid is the oid this node currently treats as in force:
// its own materialized refs/rad/id if set, else its own contribution
// under its local namespace (set at Create time), else zero if neither
// exists yet (a freshly fetched repository with no local view at all).
func (r *Repo) currentIdentityOid() (gitstore.Oid, error) {
	oid, err := r.store.Reference(ref.IdentityName.String())
	if err == nil {
		return oid, nil
	}
	if !corerr.IsNotFound(err) {
		return gitstore.ZeroOid, err
	}
	if r.local != nil {
		oid, err := r.store.Reference(ref.Namespaced(r.local.Public().Base58(), ref.IdentityName))
		if err == nil {
			return oid, nil
		}
		if !corerr.IsNotFound(err) {
			return gitstore.ZeroOid, err
		}
	}
	return gitstore.ZeroOid, nil
}

// currentDelegateSet resolves the verified document that names the
// delegate set and threshold quorum runs against, bootstrapping from any
// one discovered remote's identity chain if this node has no view of its
// own yet.
func (r *Repo) currentDelegateSet() (identity.Verified, error) {
	oid, err := r.currentIdentityOid()
	if err != nil {
		return identity.Verified{}, err
	}
	if !oid.IsZero() {
		doc, err := r.IdentityDocAt(oid)
		if err != nil {
			return identity.Verified{}, err
		}
		return identity.Verify(doc)
	}

	namespaces, err := r.namespaces()
	if err != nil {
		return identity.Verified{}, err
	}
	for _, ns := range namespaces {
		tip, err := r.store.Reference(ref.Namespaced(ns, ref.IdentityName))
		if err != nil {
			continue
		}
		doc, err := r.IdentityDocAt(tip)
		if err != nil {
			continue
		}
		if verified, err := identity.Verify(doc); err == nil {
			return verified, nil
		}
	}
	return identity.Verified{}, corerr.New(corerr.KindDoc, "repo: no identity document available")
}

// delegateTipsFor collects, for each of doc's delegates that has a
// verified remote on disk, the oid that remote publishes at name.
func (r *Repo) delegateTipsFor(doc identity.Doc, name ref.Qualified) (map[remote.ID]gitstore.Oid, error) {
	remotes, err := r.Remotes()
	if err != nil {
		return nil, err
	}
	out := make(map[remote.ID]gitstore.Oid, len(doc.Delegates))
	for _, d := range doc.Delegates {
		for id, v := range remotes {
			if !identity.DidFromKey(id).Equal(d) {
				continue
			}
			if oid, ok := v.Refs()[name.String()]; ok {
				out[id] = oid
			}
		}
	}
	return out, nil
}

// CanonicalIdentityHead computes the canonical rad/id oid by quorum over
// the current delegate set (spec.md §4.I).
func (r *Repo) CanonicalIdentityHead() (gitstore.Oid, error) {
	current, err := r.currentIdentityOid()
	if err != nil {
		return gitstore.ZeroOid, err
	}
	inForce, err := r.currentDelegateSet()
	if err != nil {
		return gitstore.ZeroOid, err
	}
	tips, err := r.delegateTipsFor(inForce.Doc, ref.IdentityName)
	if err != nil {
		return gitstore.ZeroOid, err
	}
	return quorum.CanonicalIdentity(current, tips, int(inForce.Doc.Threshold), storeAncestry{r.store})
}

// IdentityHead returns this node's local refs/rad/id if set, else the
// canonical identity oid (spec.md §4.F).
func (r *Repo) IdentityHead() (gitstore.Oid, error) {
	oid, err := r.store.Reference(ref.IdentityName.String())
	if err == nil {
		return oid, nil
	}
	if !corerr.IsNotFound(err) {
		return gitstore.ZeroOid, err
	}
	return r.CanonicalIdentityHead()
}

// SetIdentityHead writes the local refs/rad/id to the canonical identity
// oid and returns it.
func (r *Repo) SetIdentityHead() (gitstore.Oid, error) {
	oid, err := r.CanonicalIdentityHead()
	if err != nil {
		return gitstore.ZeroOid, err
	}
	if err := r.store.SetReference(ref.IdentityName.String(), oid); err != nil {
		return gitstore.ZeroOid, err
	}
	return oid, nil
}

// canonicalIdentityDoc returns the verified document at the canonical
// identity oid — the one CanonicalHead computes the default branch
// against.
func (r *Repo) canonicalIdentityDoc() (identity.Verified, error) {
	oid, err := r.CanonicalIdentityHead()
	if err != nil {
		return identity.Verified{}, err
	}
	if oid.IsZero() {
		return identity.Verified{}, corerr.NoCanonicalHead
	}
	doc, err := r.IdentityDocAt(oid)
	if err != nil {
		return identity.Verified{}, err
	}
	return identity.Verify(doc)
}
