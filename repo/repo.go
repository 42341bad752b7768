// Package repo implements the Repository (spec.md §4.F) and is the load-
// bearing package that wires the object store, reference model, signed
// refs, identity document, remotes, verification, and quorum packages
// together into the operations named by ReadRepository/WriteRepository in
// the original storage contract.
package repo

import (
	"time"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/logging"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/rid"
	"github.com/gsaslis/heartwood/signer"
)

// Repo is a handle to one repository identity on disk (spec.md §3,
// "Repository"): it enumerates remotes, reads any namespaced ref, reads
// the identity document at any commit, and writes HEAD and refs/rad/id to
// computed canonical values.
type Repo struct {
	store *gitstore.Store
	id    rid.ID
	local signer.Signer // nil if this handle has no local signing identity
	log   logging.Logger
}

// Open opens an existing on-disk repository already known (by a Storage
// registry) to hold id. local is the signer this handle writes as, or nil
// for a read-only handle.
func Open(path string, id rid.ID, local signer.Signer, log logging.Logger) (*Repo, error) {
	store, err := gitstore.Open(path, log)
	if err != nil {
		return nil, err
	}
	return wrap(store, id, local, log), nil
}

// Create materializes a brand-new repository's on-disk namespace skeleton
// (spec.md §3, "Lifecycle"): a bare object store, plus a root commit on
// refs/rad/id — namespaced under the creating signer — holding doc. The
// RID is derived from that root commit (spec.md §3, "Repository
// Identifier") and doc's own rid field plays no part in the derivation,
// sidestepping the chicken-and-egg problem of a document hashing itself.
func Create(path string, doc identity.Doc, local signer.Signer, log logging.Logger, now time.Time) (*Repo, error) {
	store, err := gitstore.Init(path, log)
	if err != nil {
		return nil, err
	}

	doc.Parent = gitstore.ZeroOid
	blobBytes, err := identity.Encode(doc)
	if err != nil {
		return nil, err
	}
	blobOid, err := store.WriteBlob(blobBytes)
	if err != nil {
		return nil, err
	}
	treeOid, err := store.WriteTree([]gitstore.TreeEntry{{Name: identity.Path, Blob: blobOid}})
	if err != nil {
		return nil, err
	}
	meta := gitstore.CommitMeta{
		Name:    local.Public().Base58(),
		Email:   local.Public().Base58() + "@local",
		When:    now,
		Message: "Initialize identity document",
	}
	rootOid, err := store.WriteCommit(treeOid, nil, meta)
	if err != nil {
		return nil, err
	}

	id, err := identity.RIDFromRoot(rootOid)
	if err != nil {
		return nil, err
	}

	r := wrap(store, id, local, log)
	namespace := local.Public().Base58()
	if err := store.SetReference(ref.Namespaced(namespace, ref.IdentityName), rootOid); err != nil {
		return nil, err
	}
	return r, nil
}

func wrap(store *gitstore.Store, id rid.ID, local signer.Signer, log logging.Logger) *Repo {
	if log == nil {
		log = logging.Noop()
	}
	return &Repo{store: store, id: id, local: local, log: log.Module("repo")}
}

// ID returns the repository's identifier.
func (r *Repo) ID() rid.ID { return r.id }

// Path returns the repository's on-disk path.
func (r *Repo) Path() string { return r.store.Path() }

// Raw exposes the underlying object store adapter for callers that need
// operations this type doesn't wrap directly.
func (r *Repo) Raw() *gitstore.Store { return r.store }

// BlobAt reads the file at path inside commit's tree — most commonly the
// identity document blob at identity.Path.
func (r *Repo) BlobAt(commit gitstore.Oid, path string) ([]byte, error) {
	return r.store.Blob(commit, path)
}

// Commit looks up a commit object by oid.
func (r *Repo) Commit(oid gitstore.Oid) (gitstore.CommitInfo, error) {
	return r.store.Commit(oid)
}

// Revwalk starts a walk of commit's history.
func (r *Repo) Revwalk(head gitstore.Oid, firstParentOnly bool) (*gitstore.RevWalk, error) {
	return r.store.Revwalk(head, firstParentOnly)
}

// IsEmpty reports whether the repository has no references under
// refs/namespaces/* at all (spec.md §4.F, original storage.rs:287) — not
// whether it has no remote that currently verifies. A namespace whose
// sigrefs fail to verify still counts as non-empty: its refs are present
// on disk even though Remotes() drops it from the quorum view.
func (r *Repo) IsEmpty() (bool, error) {
	entries, err := r.store.IterRefs(ref.Prefix + "namespaces/")
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

func (r *Repo) localSigner() (signer.Signer, error) {
	if r.local == nil {
		return nil, corerr.New(corerr.KindIO, "repo: no local signing identity configured")
	}
	return r.local, nil
}
