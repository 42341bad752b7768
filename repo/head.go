package repo

import (
	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/quorum"
	"github.com/gsaslis/heartwood/ref"
)

// defaultBranchRef qualifies doc's default_branch field as refs/heads/<name>.
func defaultBranchRef(branch string) (ref.Qualified, error) {
	return ref.NewQualified(ref.Prefix + "heads/" + branch)
}

// CanonicalHead computes the canonical tip of the canonical identity
// document's default branch by quorum over its delegate set (spec.md
// §4.I: "Let B be the default_branch from the verified canonical
// identity document"), along with the qualified branch name itself.
func (r *Repo) CanonicalHead() (ref.Qualified, gitstore.Oid, error) {
	doc, err := r.canonicalIdentityDoc()
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	branch, err := defaultBranchRef(doc.Doc.DefaultBranch)
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	tips, err := r.delegateTipsFor(doc.Doc, branch)
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	if len(tips) == 0 {
		return ref.Qualified{}, gitstore.ZeroOid, corerr.NoCanonicalHead
	}
	oid, err := quorum.CanonicalBranch(tips, int(doc.Doc.Threshold), storeAncestry{r.store})
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	return branch, oid, nil
}

// Head returns the qualified default-branch name and this node's local
// tip for it, falling back to the canonical head if no local copy is
// materialized yet.
func (r *Repo) Head() (ref.Qualified, gitstore.Oid, error) {
	doc, err := r.canonicalIdentityDoc()
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	branch, err := defaultBranchRef(doc.Doc.DefaultBranch)
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	oid, err := r.store.Reference(branch.String())
	if err == nil {
		return branch, oid, nil
	}
	if !corerr.IsNotFound(err) {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	return r.CanonicalHead()
}

// SetHead writes the local default-branch ref to the computed canonical
// head and returns the branch name together with the oid.
func (r *Repo) SetHead() (ref.Qualified, gitstore.Oid, error) {
	branch, oid, err := r.CanonicalHead()
	if err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	if err := r.store.SetReference(branch.String(), oid); err != nil {
		return ref.Qualified{}, gitstore.ZeroOid, err
	}
	return branch, oid, nil
}
