package verify_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/signer"
	"github.com/gsaslis/heartwood/sigrefs"
	"github.com/gsaslis/heartwood/verify"
)

func TestVerify(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Verify Suite")
}

// fakeStore is an in-memory stand-in for gitstore.Store, enough to drive
// verify.ObjectReader.
type fakeStore struct {
	refs  map[string]gitstore.Oid
	blobs map[gitstore.Oid]map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{refs: map[string]gitstore.Oid{}, blobs: map[gitstore.Oid]map[string][]byte{}}
}

func (s *fakeStore) Reference(name string) (gitstore.Oid, error) {
	oid, ok := s.refs[name]
	if !ok {
		return gitstore.ZeroOid, corerr.New(corerr.KindNotFound, "no such ref: "+name)
	}
	return oid, nil
}

func (s *fakeStore) IterRefs(prefix string) ([]gitstore.RefEntry, error) {
	var out []gitstore.RefEntry
	for name, oid := range s.refs {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			out = append(out, gitstore.RefEntry{Name: name, Oid: oid})
		}
	}
	return out, nil
}

func (s *fakeStore) Blob(commit gitstore.Oid, path string) ([]byte, error) {
	byCommit, ok := s.blobs[commit]
	if !ok {
		return nil, corerr.New(corerr.KindNotFound, "no such commit")
	}
	b, ok := byCommit[path]
	if !ok {
		return nil, corerr.New(corerr.KindNotFound, "no such blob")
	}
	return b, nil
}

func mustQualified(s string) ref.Qualified {
	q, err := ref.NewQualified(s)
	if err != nil {
		panic(err)
	}
	return q
}

var _ = Describe("ValidateRemote", func() {
	var store *fakeStore
	var key *signer.Key
	const namespace = "alice"

	masterOid, _ := gitstore.OidFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	idTip, _ := gitstore.OidFromHex("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	BeforeEach(func() {
		store = newFakeStore()
		key = signer.KeyFromSeed(make([]byte, 32))

		store.refs[ref.Namespaced(namespace, mustQualified("refs/heads/master"))] = masterOid
		store.refs[ref.Namespaced(namespace, ref.IdentityName)] = idTip

		doc := identity.Doc{
			Version:       identity.CurrentVersion,
			RID:           "rad:z1",
			DefaultBranch: "master",
			Visibility:    identity.Public,
			Delegates:     []identity.Did{identity.DidFromKey(key.Public())},
			Threshold:     1,
		}
		docBytes, err := identity.Encode(doc)
		Expect(err).To(BeNil())
		store.blobs[idTip] = map[string][]byte{identity.Path: docBytes}
	})

	sign := func(refs map[ref.Qualified]gitstore.Oid) sigrefs.Signed {
		signed, err := sigrefs.New(refs).Sign(key)
		Expect(err).To(BeNil())
		return signed
	}

	It("accepts a consistent remote with no unsigned refs", func() {
		signed := sign(map[ref.Qualified]gitstore.Oid{
			mustQualified("refs/heads/master"): masterOid,
			ref.IdentityName:                   idTip,
		})
		store.refs[ref.Namespaced(namespace, ref.SigrefsName)] = idTip // presence only; content unused by fake

		result, err := verify.ValidateRemote(store, verify.Remote{
			ID: key.Public(), Namespace: namespace, Sigrefs: signed,
		})
		Expect(err).To(BeNil())
		Expect(result.Unsigned).To(BeEmpty())
	})

	It("reports refs present on disk but outside the signed manifest", func() {
		extraOid, _ := gitstore.OidFromHex("cccccccccccccccccccccccccccccccccccccccc")
		store.refs[ref.Namespaced(namespace, mustQualified("refs/heads/feature"))] = extraOid

		signed := sign(map[ref.Qualified]gitstore.Oid{mustQualified("refs/heads/master"): masterOid})

		result, err := verify.ValidateRemote(store, verify.Remote{
			ID: key.Public(), Namespace: namespace, Sigrefs: signed,
		})
		Expect(err).To(BeNil())
		Expect(result.Unsigned).To(ContainElement("refs/heads/feature"))
	})

	It("fails fatally when a manifest entry doesn't resolve on disk", func() {
		missingOid, _ := gitstore.OidFromHex("dddddddddddddddddddddddddddddddddddddddd")
		signed := sign(map[ref.Qualified]gitstore.Oid{mustQualified("refs/heads/gone"): missingOid})

		_, err := verify.ValidateRemote(store, verify.Remote{
			ID: key.Public(), Namespace: namespace, Sigrefs: signed,
		})
		Expect(err).ToNot(BeNil())
	})

	It("fails fatally when the signature does not verify under the claimed id", func() {
		other, _ := signer.GenerateKey()
		signed := sign(map[ref.Qualified]gitstore.Oid{mustQualified("refs/heads/master"): masterOid})

		_, err := verify.ValidateRemote(store, verify.Remote{
			ID: other.Public(), Namespace: namespace, Sigrefs: signed,
		})
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Validate", func() {
	It("returns the error of a remote that fails fatally", func() {
		store := newFakeStore()
		key := signer.KeyFromSeed(make([]byte, 32))
		badSigned, err := sigrefs.New(map[ref.Qualified]gitstore.Oid{
			mustQualified("refs/heads/master"): func() gitstore.Oid {
				o, _ := gitstore.OidFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
				return o
			}(),
		}).Sign(key)
		Expect(err).To(BeNil())

		err = verify.Validate(store, []verify.Remote{
			{ID: key.Public(), Namespace: "alice", Sigrefs: badSigned},
		})
		Expect(err).ToNot(BeNil())
	})
})
