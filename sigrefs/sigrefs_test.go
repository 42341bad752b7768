package sigrefs_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/sigrefs"
	"github.com/gsaslis/heartwood/signer"
)

func TestSigrefs(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sigrefs Suite")
}

func mustQualified(s string) ref.Qualified {
	q, err := ref.NewQualified(s)
	if err != nil {
		panic(err)
	}
	return q
}

func mustOid(s string) gitstore.Oid {
	o, err := gitstore.OidFromHex(s)
	if err != nil {
		panic(err)
	}
	return o
}

var _ = Describe("Signed refs manifest", func() {
	var key *signer.Key
	var refs map[ref.Qualified]gitstore.Oid

	BeforeEach(func() {
		key = signer.KeyFromSeed(make([]byte, 32))
		refs = map[ref.Qualified]gitstore.Oid{
			mustQualified("refs/heads/master"): mustOid("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			mustQualified("refs/rad/id"):       mustOid("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
		}
	})

	It("serializes refs as sorted lines of '<name> <oid>'", func() {
		u := sigrefs.New(refs)
		canon := string(u.Canonical())
		Expect(canon).To(Equal(
			"refs/heads/master aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
				"refs/rad/id bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n",
		))
	})

	It("round-trips through sign, encode, parse and verify", func() {
		u := sigrefs.New(refs)
		signed, err := u.Sign(key)
		Expect(err).To(BeNil())

		wire := signed.Encode()
		parsed, err := sigrefs.Parse(wire, key.Public())
		Expect(err).To(BeNil())
		Expect(parsed.Verify()).To(BeNil())
		Expect(parsed.Refs()).To(Equal(signed.Refs()))
	})

	It("rejects a signature that does not match the claimed key", func() {
		u := sigrefs.New(refs)
		signed, err := u.Sign(key)
		Expect(err).To(BeNil())

		other, err := signer.GenerateKey()
		Expect(err).To(BeNil())

		parsed, err := sigrefs.Parse(signed.Encode(), other.Public())
		Expect(err).To(BeNil())
		Expect(parsed.Verify()).ToNot(BeNil())
	})

	It("rejects a signature bound to different bytes", func() {
		u := sigrefs.New(refs)
		signed, err := u.Sign(key)
		Expect(err).To(BeNil())

		tampered := append([]byte{}, signed.Encode()...)
		tampered[0] = 'X'
		parsed, err := sigrefs.Parse(tampered, key.Public())
		Expect(err).To(BeNil())
		Expect(parsed.Verify()).ToNot(BeNil())
	})

	It("rejects malformed wire encoding missing a separator", func() {
		_, err := sigrefs.Parse([]byte("not a valid manifest"), key.Public())
		Expect(err).ToNot(BeNil())
	})

	It("detects refs present on disk but unsigned or diverging", func() {
		u := sigrefs.New(refs)
		signed, err := u.Sign(key)
		Expect(err).To(BeNil())

		actual := signed.Refs()
		actual["refs/heads/feature"] = mustOid("cccccccccccccccccccccccccccccccccccccccc")
		actual["refs/heads/master"] = mustOid("dddddddddddddddddddddddddddddddddddddddd")

		unsigned := sigrefs.Diff(signed.Refs(), actual)
		Expect(unsigned).To(Equal([]string{"refs/heads/feature", "refs/heads/master"}))
	})
})
