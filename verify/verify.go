// Package verify implements the Verification Pipeline (spec.md §4.H):
// checking that one remote's published state is internally consistent and
// signed by its owner, and that a repository's remotes collectively are.
//
// It defines its own narrow object-store interface rather than importing
// package repo, so repo can depend on verify without a cycle.
package verify

import (
	"sort"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/remote"
	"github.com/gsaslis/heartwood/sigrefs"
)

// ObjectReader is the slice of gitstore.Store this pipeline needs: ref
// resolution, ref enumeration under a prefix, and blob reads.
type ObjectReader interface {
	Reference(name string) (gitstore.Oid, error)
	IterRefs(prefix string) ([]gitstore.RefEntry, error)
	Blob(commit gitstore.Oid, path string) ([]byte, error)
}

// Remote bundles what Validate needs to check one remote: its claimed id,
// the namespace its refs live under, and its parsed (not yet verified)
// signed-refs manifest.
type Remote struct {
	ID        remote.ID
	Namespace string
	Sigrefs   sigrefs.Signed
}

// Result carries the non-fatal findings of ValidateRemote: refs present on
// disk under the remote's namespace but absent from, or diverging from,
// its signed manifest (spec.md §4.H step 3 — "unlisted refs are reported,
// not fatal").
type Result struct {
	Unsigned []string
}

// ValidateRemote runs the four checks of spec.md §4.H against a single
// remote and returns the unsigned-ref set. Any of the four checks failing
// is fatal and reported as an error; only the caller decides whether to
// keep going with other remotes.
func ValidateRemote(store ObjectReader, r Remote) (Result, error) {
	// 1. Signature-verify.
	verified, err := remote.New(r.ID, r.Sigrefs).Verify()
	if err != nil {
		return Result{}, err
	}

	manifest := verified.Refs()

	// 2. Cross-check every listed ref against the object store.
	for name, oid := range manifest {
		q, err := ref.NewQualified(name)
		if err != nil {
			return Result{}, err
		}
		nsName := ref.Namespaced(r.Namespace, q)
		got, err := store.Reference(nsName)
		if err != nil {
			return Result{}, corerr.Wrap(corerr.KindMissingObject, err, "verify: missing ref "+nsName)
		}
		if !got.Equal(oid) {
			return Result{}, corerr.New(corerr.KindMissingObject, "verify: ref "+nsName+" does not resolve to the signed oid")
		}
	}

	// 3. Enumerate all refs under the remote's namespace and diff against
	// the manifest (minus rad/sigrefs, which is never itself listed).
	entries, err := store.IterRefs(ref.NamespacePrefix(r.Namespace))
	if err != nil {
		return Result{}, err
	}
	actual := make(map[string]gitstore.Oid, len(entries))
	sigrefsNs := ref.Namespaced(r.Namespace, ref.SigrefsName)
	for _, e := range entries {
		if e.Name == sigrefsNs {
			continue
		}
		q, ok := ref.StripNamespace(r.Namespace, e.Name)
		if !ok {
			continue
		}
		actual[q.String()] = e.Oid
	}
	unsigned := sigrefs.Diff(manifest, actual)
	sort.Strings(unsigned)

	// 4. Fetch refs/rad/id from this remote and structurally verify it.
	idRefName := ref.Namespaced(r.Namespace, ref.IdentityName)
	idTip, err := store.Reference(idRefName)
	if err != nil {
		return Result{}, corerr.Wrap(corerr.KindMissingObject, err, "verify: missing identity ref for remote")
	}
	blob, err := store.Blob(idTip, identity.Path)
	if err != nil {
		return Result{}, err
	}
	unverifiedDoc, err := identity.Decode(blob, gitstore.ZeroOid)
	if err != nil {
		return Result{}, err
	}
	if _, err := identity.Verify(unverifiedDoc); err != nil {
		return Result{}, err
	}

	return Result{Unsigned: unsigned}, nil
}

// Validate runs ValidateRemote over every given remote, returning on the
// first fatal failure (spec.md §4.H: "loops validate_remote over every
// remote; returns on the first fatal").
func Validate(store ObjectReader, remotes []Remote) error {
	for _, r := range remotes {
		if _, err := ValidateRemote(store, r); err != nil {
			return err
		}
	}
	return nil
}
