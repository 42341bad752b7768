package repo

import (
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/remote"
	"github.com/gsaslis/heartwood/signer"
	"github.com/gsaslis/heartwood/sigrefs"
	"github.com/gsaslis/heartwood/verify"
)

// ValidateRemote runs the verification pipeline (spec.md §4.H) against a
// single remote already resolved to a signed-refs manifest.
func (r *Repo) ValidateRemote(id remote.ID) (verify.Result, error) {
	signed, err := r.signedRefsAt(id.Base58(), id)
	if err != nil {
		return verify.Result{}, err
	}
	return verify.ValidateRemote(r.store, verify.Remote{
		ID:        id,
		Namespace: id.Base58(),
		Sigrefs:   signed,
	})
}

// Validate runs the verification pipeline over every remote discovered on
// disk, returning on the first fatal failure.
func (r *Repo) Validate() error {
	namespaces, err := r.namespaces()
	if err != nil {
		return err
	}
	remotes := make([]verify.Remote, 0, len(namespaces))
	for _, ns := range namespaces {
		id, err := signer.PublicKeyFromBase58(ns)
		if err != nil {
			continue
		}
		tip, err := r.store.Reference(ref.Namespaced(ns, ref.SigrefsName))
		if err != nil {
			continue
		}
		blob, err := r.store.ReadBlob(tip)
		if err != nil {
			continue
		}
		signed, err := sigrefs.Parse(blob, id)
		if err != nil {
			continue
		}
		remotes = append(remotes, verify.Remote{ID: id, Namespace: ns, Sigrefs: signed})
	}
	return verify.Validate(r.store, remotes)
}
