package identity_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/identity"
	"github.com/gsaslis/heartwood/signer"
)

func TestIdentity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Identity Suite")
}

func baseDoc() identity.Doc {
	alice, _ := signer.GenerateKey()
	bob, _ := signer.GenerateKey()
	return identity.Doc{
		Version:       identity.CurrentVersion,
		RID:           "rad:z123",
		Title:         "example",
		Description:   "an example project",
		DefaultBranch: "master",
		Visibility:    identity.Public,
		Delegates:     []identity.Did{identity.DidFromKey(alice.Public()), identity.DidFromKey(bob.Public())},
		Threshold:     1,
	}
}

var _ = Describe("Doc encode/decode", func() {
	It("round-trips through Encode and Decode", func() {
		doc := baseDoc()
		b, err := identity.Encode(doc)
		Expect(err).To(BeNil())

		u, err := identity.Decode(b, gitstore.ZeroOid)
		Expect(err).To(BeNil())
		Expect(u.Doc.Title).To(Equal(doc.Title))
		Expect(u.Doc.Delegates).To(HaveLen(2))
		Expect(u.Doc.Threshold).To(Equal(uint32(1)))
	})

	It("carries the parent oid across decode without it affecting encoded bytes", func() {
		doc := baseDoc()
		b, err := identity.Encode(doc)
		Expect(err).To(BeNil())

		parent, _ := gitstore.OidFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		u, err := identity.Decode(b, parent)
		Expect(err).To(BeNil())
		Expect(u.Doc.Parent.Equal(parent)).To(BeTrue())

		withParent := doc
		withParent.Parent = parent
		b2, err := identity.Encode(withParent)
		Expect(err).To(BeNil())
		Expect(b2).To(Equal(b))
	})
})

var _ = Describe("Verify", func() {
	It("accepts a well-formed document", func() {
		doc := baseDoc()
		v, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).To(BeNil())
		Expect(v.Doc.Title).To(Equal(doc.Title))
	})

	It("rejects an empty delegate set", func() {
		doc := baseDoc()
		doc.Delegates = nil
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})

	It("rejects duplicate delegates", func() {
		doc := baseDoc()
		doc.Delegates = []identity.Did{doc.Delegates[0], doc.Delegates[0]}
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})

	It("rejects threshold below 1", func() {
		doc := baseDoc()
		doc.Threshold = 0
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})

	It("rejects threshold above the delegate count", func() {
		doc := baseDoc()
		doc.Threshold = uint32(len(doc.Delegates)) + 1
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})

	It("rejects an unrecognized version", func() {
		doc := baseDoc()
		doc.Version = 99
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})

	It("rejects an invalid default branch name", func() {
		doc := baseDoc()
		doc.DefaultBranch = "/bad/"
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})

	It("rejects an unrecognized visibility", func() {
		doc := baseDoc()
		doc.Visibility = identity.Visibility("hidden")
		_, err := identity.Verify(identity.Unverified{Doc: doc})
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("RIDFromRoot", func() {
	It("derives a stable RID from the root commit's oid", func() {
		root, _ := gitstore.OidFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
		id1, err := identity.RIDFromRoot(root)
		Expect(err).To(BeNil())
		id2, err := identity.RIDFromRoot(root)
		Expect(err).To(BeNil())
		Expect(id1.Equal(id2)).To(BeTrue())
	})
})
