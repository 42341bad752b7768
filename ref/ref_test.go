package ref_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/ref"
)

func TestRef(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ref Suite")
}

var oidA, _ = gitstore.OidFromHex("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
var oidB, _ = gitstore.OidFromHex("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

var _ = Describe("Qualified", func() {
	Describe("NewQualified", func() {
		It("accepts names starting with refs/", func() {
			q, err := ref.NewQualified("refs/heads/master")
			Expect(err).To(BeNil())
			Expect(q.String()).To(Equal("refs/heads/master"))
		})

		It("rejects names not starting with refs/", func() {
			_, err := ref.NewQualified("heads/master")
			Expect(err).ToNot(BeNil())
		})
	})

	Describe("Namespaced", func() {
		It("prepends refs/namespaces/<remote>/", func() {
			q, _ := ref.NewQualified("refs/heads/master")
			Expect(ref.Namespaced("alice", q)).To(Equal("refs/namespaces/alice/heads/master"))
		})
	})

	Describe("StripNamespace", func() {
		It("recovers the qualified name under a remote's namespace", func() {
			q, ok := ref.StripNamespace("alice", "refs/namespaces/alice/heads/master")
			Expect(ok).To(BeTrue())
			Expect(q.String()).To(Equal("refs/heads/master"))
		})

		It("reports false for names outside the namespace", func() {
			_, ok := ref.StripNamespace("alice", "refs/namespaces/bob/heads/master")
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("Update classification", func() {
	q, _ := ref.NewQualified("refs/heads/master")

	It("rejects both old and new being zero", func() {
		_, err := ref.From(q, gitstore.ZeroOid, gitstore.ZeroOid)
		Expect(err).ToNot(BeNil())
	})

	It("classifies Created when old is zero", func() {
		u, err := ref.From(q, gitstore.ZeroOid, oidA)
		Expect(err).To(BeNil())
		Expect(u.Kind).To(Equal(ref.KindCreated))
		Expect(u.String()).To(Equal("* 0000000.." + oidA.Short() + " refs/heads/master"))
	})

	It("classifies Deleted when new is zero", func() {
		u, err := ref.From(q, oidA, gitstore.ZeroOid)
		Expect(err).To(BeNil())
		Expect(u.Kind).To(Equal(ref.KindDeleted))
		Expect(u.String()).To(Equal("- " + oidA.Short() + "..0000000 refs/heads/master"))
	})

	It("classifies Skipped when old equals new", func() {
		u, err := ref.From(q, oidA, oidA)
		Expect(err).To(BeNil())
		Expect(u.Kind).To(Equal(ref.KindSkipped))
		Expect(u.String()).To(Equal("= " + oidA.Short() + ".." + oidA.Short() + " refs/heads/master"))
	})

	It("classifies Updated otherwise", func() {
		u, err := ref.From(q, oidA, oidB)
		Expect(err).To(BeNil())
		Expect(u.Kind).To(Equal(ref.KindUpdated))
		Expect(u.String()).To(Equal("~ " + oidA.Short() + ".." + oidB.Short() + " refs/heads/master"))
	})
})
