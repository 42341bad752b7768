// Package gitstore is the Object Store Adapter (spec.md §4.A): a minimal
// typed façade over the underlying Git object database. It is the only
// package in the core that imports go-git directly — every other package
// talks to object storage through Oid and Store.
package gitstore

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/logging"
)

// RefEntry is one (name, oid) pair returned by IterRefs.
type RefEntry struct {
	Name string
	Oid  Oid
}

// Store opens a bare Git repository and exposes the operations the core
// needs: ref reads/writes, commit and blob lookup, and revwalk. All
// failures are classified into corerr.KindNotFound vs corerr.KindGit.
type Store struct {
	repo *git.Repository
	path string
	log  logging.Logger
}

// Init creates a new bare repository at path and opens it.
func Init(path string, log logging.Logger) (*Store, error) {
	r, err := git.PlainInit(path, true)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: init "+path)
	}
	return wrap(r, path, log), nil
}

// Open opens an existing repository (bare or not) at path.
func Open(path string, log logging.Logger) (*Store, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, corerr.Wrap(corerr.KindNotFound, err, "gitstore: open "+path)
		}
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: open "+path)
	}
	return wrap(r, path, log), nil
}

func wrap(r *git.Repository, path string, log logging.Logger) *Store {
	if log == nil {
		log = logging.Noop()
	}
	return &Store{repo: r, path: path, log: log.Module("gitstore")}
}

// Path returns the repository's on-disk path.
func (s *Store) Path() string { return s.path }

// Reference resolves a fully-qualified ref name to its Oid. Returns a
// corerr.KindNotFound error if the ref does not exist.
func (s *Store) Reference(name string) (Oid, error) {
	ref, err := s.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return ZeroOid, corerr.Wrap(corerr.KindNotFound, err, "gitstore: reference "+name)
		}
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: reference "+name)
	}
	return NewOid(ref.Hash()), nil
}

// SetReference atomically points name at oid, creating it if absent.
func (s *Store) SetReference(name string, oid Oid) error {
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), oid.Hash())
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return corerr.Wrap(corerr.KindGit, err, "gitstore: set reference "+name)
	}
	return nil
}

// DeleteReference removes name, if present.
func (s *Store) DeleteReference(name string) error {
	if err := s.repo.Storer.RemoveReference(plumbing.ReferenceName(name)); err != nil {
		return corerr.Wrap(corerr.KindGit, err, "gitstore: delete reference "+name)
	}
	return nil
}

// IterRefs returns every ref whose name starts with prefix, sorted
// lexicographically by name for deterministic downstream processing.
func (s *Store) IterRefs(prefix string) ([]RefEntry, error) {
	iter, err := s.repo.References()
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: iterate references")
	}
	defer iter.Close()

	var out []RefEntry
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		out = append(out, RefEntry{Name: name, Oid: NewOid(ref.Hash())})
		return nil
	})
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: iterate references")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CommitInfo is the subset of a commit object the core needs, so that
// callers outside this package never have to import go-git's object
// types directly.
type CommitInfo struct {
	Oid         Oid
	Tree        Oid
	Parents     []Oid
	AuthorName  string
	AuthorEmail string
	AuthorWhen  time.Time
	Message     string
}

func (s *Store) lookupCommit(oid Oid) (*object.Commit, error) {
	c, err := s.repo.CommitObject(oid.Hash())
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return nil, corerr.Wrap(corerr.KindNotFound, err, "gitstore: commit "+oid.String())
		}
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: commit "+oid.String())
	}
	return c, nil
}

// Commit looks up a commit object by Oid.
func (s *Store) Commit(oid Oid) (CommitInfo, error) {
	c, err := s.lookupCommit(oid)
	if err != nil {
		return CommitInfo{}, err
	}
	parents := make([]Oid, 0, len(c.ParentHashes))
	for _, h := range c.ParentHashes {
		parents = append(parents, NewOid(h))
	}
	return CommitInfo{
		Oid:         NewOid(c.Hash),
		Tree:        NewOid(c.TreeHash),
		Parents:     parents,
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		AuthorWhen:  c.Author.When,
		Message:     c.Message,
	}, nil
}

// ObjectExists reports whether oid names any object in the store.
func (s *Store) ObjectExists(oid Oid) bool {
	_, err := s.repo.Object(plumbing.AnyObject, oid.Hash())
	return err == nil
}

// Blob reads the contents of the file at path in the tree of commit.
func (s *Store) Blob(commit Oid, path string) ([]byte, error) {
	c, err := s.lookupCommit(commit)
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: commit tree")
	}
	f, err := tree.File(path)
	if err != nil {
		if err == object.ErrFileNotFound {
			return nil, corerr.Wrap(corerr.KindNotFound, err, "gitstore: blob "+path)
		}
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: blob "+path)
	}
	r, err := f.Reader()
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: open blob "+path)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: read blob "+path)
	}
	return data, nil
}

// ReadBlob reads the content of a blob object directly by its own Oid,
// used for objects a ref points at straight away rather than through a
// commit's tree — the signed-refs manifest, in particular.
func (s *Store) ReadBlob(oid Oid) ([]byte, error) {
	blob, err := s.repo.BlobObject(oid.Hash())
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return nil, corerr.Wrap(corerr.KindNotFound, err, "gitstore: blob "+oid.String())
		}
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: blob "+oid.String())
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: open blob "+oid.String())
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindGit, err, "gitstore: read blob "+oid.String())
	}
	return data, nil
}

// IsAncestor reports whether a is an ancestor of (or equal to) b.
func (s *Store) IsAncestor(a, b Oid) (bool, error) {
	if a.Equal(b) {
		return true, nil
	}
	ca, err := s.lookupCommit(a)
	if err != nil {
		return false, err
	}
	cb, err := s.lookupCommit(b)
	if err != nil {
		return false, err
	}
	yes, err := ca.IsAncestor(cb)
	if err != nil {
		return false, corerr.Wrap(corerr.KindGit, err, "gitstore: ancestry check")
	}
	return yes, nil
}

// RevWalk is a lazy, non-restartable iterator over a commit's history
// (spec.md §9: "Iteration ... lazy sequences; finite; non-restartable").
type RevWalk struct {
	iter object.CommitIter
}

// Revwalk starts a walk of head's history. Without firstParentOnly the
// walk is ordered by committer time. With firstParentOnly the walk is a
// depth-first pre-order that follows each commit's first parent before its
// others: the first-parent chain down to the root comes first, and the
// commits reachable only through other parents still follow it. It is not
// restricted to the first-parent chain.
func (s *Store) Revwalk(head Oid, firstParentOnly bool) (*RevWalk, error) {
	c, err := s.lookupCommit(head)
	if err != nil {
		return nil, err
	}
	var iter object.CommitIter
	if firstParentOnly {
		iter = object.NewCommitPreorderIter(c, nil, nil)
	} else {
		iter = object.NewCommitIterCTime(c, nil, nil)
	}
	return &RevWalk{iter: iter}, nil
}

// Next returns the next commit's Oid in the walk, or ok=false once
// exhausted.
func (w *RevWalk) Next() (oid Oid, ok bool, err error) {
	c, err := w.iter.Next()
	if err != nil {
		if err == io.EOF {
			return ZeroOid, false, nil
		}
		return ZeroOid, false, corerr.Wrap(corerr.KindGit, err, "gitstore: revwalk")
	}
	return NewOid(c.Hash), true, nil
}

// Close releases resources held by the walk.
func (w *RevWalk) Close() { w.iter.Close() }

// WriteBlob stores content as a blob object and returns its Oid, used when
// the core writes its own objects (e.g. the signed-refs manifest, or an
// identity document update).
func (s *Store) WriteBlob(content []byte) (Oid, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: new blob writer")
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: write blob")
	}
	if err := w.Close(); err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: close blob writer")
	}
	h, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return ZeroOid, corerr.Wrap(corerr.KindGit, err, "gitstore: store blob")
	}
	return NewOid(h), nil
}
