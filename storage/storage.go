// Package storage implements the Storage registry (spec.md §4.G): the
// top-level directory of repositories a node hosts, keyed by RID, with
// open/create operations and a namespace-filtered inventory listing.
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/thoas/go-funk"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/logging"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/remote"
	"github.com/gsaslis/heartwood/repo"
	"github.com/gsaslis/heartwood/rid"
	"github.com/gsaslis/heartwood/signer"
)

// Inventory is the set of repository identifiers hosted under a Storage.
type Inventory []rid.ID

// Namespaces filters which remotes' contributions a node considers when
// reporting an inventory (supplemented from original_source's Namespaces
// enum, dropped from the distilled spec): either every remote, or only an
// explicit trusted set.
type Namespaces struct {
	all     bool
	trusted []remote.ID
}

// AllNamespaces matches every remote.
func AllNamespaces() Namespaces { return Namespaces{all: true} }

// TrustedNamespaces matches only the given remotes.
func TrustedNamespaces(ids ...remote.ID) Namespaces {
	return Namespaces{trusted: ids}
}

// Includes reports whether id passes this filter.
func (n Namespaces) Includes(id remote.ID) bool {
	if n.all {
		return true
	}
	return funk.Contains(n.trusted, id)
}

// Storage is a directory of repositories, one subdirectory per RID.
type Storage struct {
	root string
	log  logging.Logger
}

// Open returns a handle to the storage directory at root, creating it if
// it does not already exist.
func Open(root string, log logging.Logger) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, corerr.Wrap(corerr.KindIO, err, "storage: mkdir "+root)
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Storage{root: root, log: log.Module("storage")}, nil
}

// Path returns the storage root.
func (s *Storage) Path() string { return s.root }

// PathOf returns the on-disk path of the repository identified by id.
func (s *Storage) PathOf(id rid.ID) string {
	return filepath.Join(s.root, id.String())
}

// Contains reports whether a repository with id is present on disk.
func (s *Storage) Contains(id rid.ID) (bool, error) {
	info, err := os.Stat(s.PathOf(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, corerr.Wrap(corerr.KindIO, err, "storage: stat "+id.String())
	}
	return info.IsDir(), nil
}

// Repository opens a read-only handle to the repository named by id.
func (s *Storage) Repository(id rid.ID) (*repo.Repo, error) {
	ok, err := s.Contains(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, corerr.New(corerr.KindNotFound, "storage: no repository "+id.String())
	}
	return repo.Open(s.PathOf(id), id, nil, s.log)
}

// RepositoryMut opens a read-write handle to the repository named by id,
// signing as local.
func (s *Storage) RepositoryMut(id rid.ID, local signer.Signer) (*repo.Repo, error) {
	ok, err := s.Contains(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, corerr.New(corerr.KindNotFound, "storage: no repository "+id.String())
	}
	return repo.Open(s.PathOf(id), id, local, s.log)
}

// Create materializes a new repository holding doc, signed by local, and
// returns a read-write handle to it.
func (s *Storage) Create(doc identity.Doc, local signer.Signer, now time.Time) (*repo.Repo, error) {
	// path is derived from the RID, which in turn is derived from the root
	// commit repo.Create writes — so the repository must be created in a
	// scratch location first, then the final path resolved from its RID.
	tmp, err := os.MkdirTemp(s.root, "creating-")
	if err != nil {
		return nil, corerr.Wrap(corerr.KindIO, err, "storage: create scratch dir")
	}
	r, err := repo.Create(tmp, doc, local, s.log, now)
	if err != nil {
		os.RemoveAll(tmp)
		return nil, err
	}
	final := s.PathOf(r.ID())
	if err := os.Rename(tmp, final); err != nil {
		os.RemoveAll(tmp)
		return nil, corerr.Wrap(corerr.KindIO, err, "storage: place repository "+r.ID().String())
	}
	return repo.Open(final, r.ID(), local, s.log)
}

// Get returns the verified identity document of rid as seen from remote's
// namespace, or nil if that remote has no contribution to rid.
func (s *Storage) Get(remoteID remote.ID, id rid.ID) (*identity.Doc, error) {
	r, err := s.Repository(id)
	if err != nil {
		return nil, err
	}
	v, err := r.Remote(remoteID)
	if err != nil {
		if corerr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	idRef, ok := v.Refs()[ref.IdentityName.String()]
	if !ok {
		return nil, nil
	}
	unverified, err := r.IdentityDocAt(idRef)
	if err != nil {
		return nil, err
	}
	verified, err := identity.Verify(unverified)
	if err != nil {
		return nil, err
	}
	return &verified.Doc, nil
}

// Inventory lists every repository on disk that has at least one remote
// matching ns, sorted by RID for deterministic output.
func (s *Storage) Inventory(ns Namespaces) (Inventory, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, corerr.Wrap(corerr.KindIO, err, "storage: read dir "+s.root)
	}

	var out Inventory
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := rid.Parse(e.Name())
		if err != nil {
			continue
		}
		r, err := s.Repository(id)
		if err != nil {
			continue
		}
		remotes, err := r.Remotes()
		if err != nil {
			continue
		}
		for remoteID := range remotes {
			if ns.Includes(remoteID) {
				out = append(out, id)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
