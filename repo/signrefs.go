package repo

import (
	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/sigrefs"
)

// SignRefs recomputes the local namespace's signed-refs manifest over
// every ref currently on disk under it (excluding rad/sigrefs itself,
// which can't sign over its own tip), signs it with the local key, and
// writes it to refs/rad/sigrefs. Idempotent: if the freshly-built
// manifest bytes match what's already at the current tip, no new blob is
// written and the existing tip is returned (spec.md §4.F: "sign_refs ...
// writes a new object only when the manifest actually changed").
func (r *Repo) SignRefs() (gitstore.Oid, error) {
	local, err := r.localSigner()
	if err != nil {
		return gitstore.ZeroOid, err
	}
	namespace := local.Public().Base58()

	entries, err := r.store.IterRefs(ref.NamespacePrefix(namespace))
	if err != nil {
		return gitstore.ZeroOid, err
	}
	refs := make(map[ref.Qualified]gitstore.Oid, len(entries))
	sigrefsName := ref.Namespaced(namespace, ref.SigrefsName)
	for _, e := range entries {
		if e.Name == sigrefsName {
			continue
		}
		q, ok := ref.StripNamespace(namespace, e.Name)
		if !ok {
			continue
		}
		refs[q] = e.Oid
	}

	signed, err := sigrefs.New(refs).Sign(local)
	if err != nil {
		return gitstore.ZeroOid, err
	}
	wire := signed.Encode()

	if tip, err := r.store.Reference(sigrefsName); err == nil {
		current, err := r.store.ReadBlob(tip)
		if err == nil && string(current) == string(wire) {
			return tip, nil
		}
	} else if !corerr.IsNotFound(err) {
		return gitstore.ZeroOid, err
	}

	blobOid, err := r.store.WriteBlob(wire)
	if err != nil {
		return gitstore.ZeroOid, err
	}
	if err := r.store.SetReference(sigrefsName, blobOid); err != nil {
		return gitstore.ZeroOid, err
	}
	return blobOid, nil
}
