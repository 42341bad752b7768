package gitstore

import (
	"sort"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gsaslis/heartwood/corerr"
)

// TreeEntry describes one file to place in a tree written by WriteTree.
// Only flat trees (no subdirectories) are needed by the core: the identity
// document always lives at a single fixed path (identity.Path).
type TreeEntry struct {
	Name string
	Blob Oid
}

// WriteTree writes a flat tree object containing entries, sorted by name as
// git requires, and returns its Oid.
func (s *Store) WriteTree(entries []TreeEntry) (Oid, error) {
	t := &object.Tree{}
	for _, e := range entries {
		t.Entries = append(t.Entries, object.TreeEntry{
			Name: e.Name,
			Mode: filemode.Regular,
			Hash: e.Blob.Hash(),
		})
	}
	sort.Slice(t.Entries, func(i, j int) bool { return t.Entries[i].Name < t.Entries[j].Name })
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.TreeObject)
	if err := t.Encode(obj); err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: encode tree")
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: store tree")
	}
	return NewOid(h), nil
}

// CommitMeta carries the author/committer identity and message for a
// WriteCommit call.
type CommitMeta struct {
	Name    string
	Email   string
	When    time.Time
	Message string
}

// WriteCommit writes a commit object over tree with the given parents
// (empty for a root commit) and returns its Oid.
func (s *Store) WriteCommit(tree Oid, parents []Oid, meta CommitMeta) (Oid, error) {
	sig := object.Signature{Name: meta.Name, Email: meta.Email, When: meta.When}
	c := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      meta.Message,
		TreeHash:     tree.Hash(),
		ParentHashes: make([]plumbing.Hash, 0, len(parents)),
	}
	for _, p := range parents {
		c.ParentHashes = append(c.ParentHashes, p.Hash())
	}
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	if err := c.Encode(obj); err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: encode commit")
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: store commit")
	}
	return NewOid(h), nil
}
