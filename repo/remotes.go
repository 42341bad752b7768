package repo

import (
	"strings"

	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/remote"
	"github.com/gsaslis/heartwood/signer"
	"github.com/gsaslis/heartwood/sigrefs"
)

// NamedRef pairs a qualified ref name with its resolved oid.
type NamedRef struct {
	Name ref.Qualified
	Oid  gitstore.Oid
}

// namespaces lists the distinct remote namespaces with any ref on disk,
// sorted for deterministic iteration.
func (r *Repo) namespaces() ([]string, error) {
	prefix := ref.Prefix + "namespaces/"
	entries, err := r.store.IterRefs(prefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		rest := strings.TrimPrefix(e.Name, prefix)
		idx := strings.Index(rest, "/")
		if idx < 0 {
			continue
		}
		ns := rest[:idx]
		if !seen[ns] {
			seen[ns] = true
			out = append(out, ns)
		}
	}
	return out, nil
}

func (r *Repo) signedRefsAt(namespace string, id remote.ID) (sigrefs.Signed, error) {
	tip, err := r.store.Reference(ref.Namespaced(namespace, ref.SigrefsName))
	if err != nil {
		return sigrefs.Signed{}, err
	}
	data, err := r.store.ReadBlob(tip)
	if err != nil {
		return sigrefs.Signed{}, err
	}
	return sigrefs.Parse(data, id)
}

// Remote parses and verifies id's signed-refs tip.
func (r *Repo) Remote(id remote.ID) (remote.Verified, error) {
	signed, err := r.signedRefsAt(id.Base58(), id)
	if err != nil {
		return remote.Verified{}, err
	}
	return remote.New(id, signed).Verify()
}

// Remotes returns every remote present on disk that verifies, keyed by
// id. A remote whose signed refs fail to parse or verify is dropped
// rather than propagated as fatal (spec.md §9: cryptographic failures
// "drop the offending remote from quorum").
func (r *Repo) Remotes() (map[remote.ID]remote.Verified, error) {
	namespaces, err := r.namespaces()
	if err != nil {
		return nil, err
	}
	out := make(map[remote.ID]remote.Verified, len(namespaces))
	for _, ns := range namespaces {
		id, err := signer.PublicKeyFromBase58(ns)
		if err != nil {
			r.log.Warn("skipping non-remote namespace", "namespace", ns, "err", err)
			continue
		}
		v, err := r.Remote(id)
		if err != nil {
			r.log.Warn("dropping remote that fails to verify", "remote", ns, "err", err)
			continue
		}
		out[id] = v
	}
	return out, nil
}

// Reference resolves name under id's namespace.
func (r *Repo) Reference(id remote.ID, name ref.Qualified) (NamedRef, error) {
	oid, err := r.store.Reference(ref.Namespaced(id.Base58(), name))
	if err != nil {
		return NamedRef{}, err
	}
	return NamedRef{Name: name, Oid: oid}, nil
}

// ReferenceOid is Reference without the name echoed back.
func (r *Repo) ReferenceOid(id remote.ID, name ref.Qualified) (gitstore.Oid, error) {
	nr, err := r.Reference(id, name)
	if err != nil {
		return gitstore.ZeroOid, err
	}
	return nr.Oid, nil
}

// ReferencesOf returns every ref under id's namespace, in deterministic
// (sorted by name) order.
func (r *Repo) ReferencesOf(id remote.ID) ([]NamedRef, error) {
	namespace := id.Base58()
	entries, err := r.store.IterRefs(ref.NamespacePrefix(namespace))
	if err != nil {
		return nil, err
	}
	out := make([]NamedRef, 0, len(entries))
	for _, e := range entries {
		q, ok := ref.StripNamespace(namespace, e.Name)
		if !ok {
			continue
		}
		out = append(out, NamedRef{Name: q, Oid: e.Oid})
	}
	return out, nil
}

// Delegates returns the verified in-force identity document's delegate
// set.
func (r *Repo) Delegates() ([]identity.Did, error) {
	_, doc, err := r.IdentityDoc()
	if err != nil {
		return nil, err
	}
	verified, err := identity.Verify(doc)
	if err != nil {
		return nil, err
	}
	return verified.Doc.Delegates, nil
}
