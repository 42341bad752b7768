package signer_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gsaslis/heartwood/signer"
)

func TestSigner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Signer Suite")
}

var _ = Describe("Key", func() {
	It("produces signatures that verify under its own public key", func() {
		k, err := signer.GenerateKey()
		Expect(err).To(BeNil())

		sig, err := k.Sign([]byte("hello"))
		Expect(err).To(BeNil())
		Expect(k.Public().Verify([]byte("hello"), sig)).To(BeTrue())
	})

	It("rejects signatures over different bytes", func() {
		k, err := signer.GenerateKey()
		Expect(err).To(BeNil())

		sig, err := k.Sign([]byte("hello"))
		Expect(err).To(BeNil())
		Expect(k.Public().Verify([]byte("goodbye"), sig)).To(BeFalse())
	})

	It("is deterministic given the same seed", func() {
		seed := make([]byte, 32)
		seed[0] = 7
		a := signer.KeyFromSeed(seed)
		b := signer.KeyFromSeed(seed)
		Expect(a.Public().Equal(b.Public())).To(BeTrue())
	})
})

var _ = Describe("PublicKey", func() {
	It("can be used as a map key", func() {
		a, _ := signer.GenerateKey()
		b, _ := signer.GenerateKey()
		m := map[signer.PublicKey]int{a.Public(): 1, b.Public(): 2}
		Expect(m[a.Public()]).To(Equal(1))
	})

	It("round-trips through Base58", func() {
		k, err := signer.GenerateKey()
		Expect(err).To(BeNil())

		parsed, err := signer.PublicKeyFromBase58(k.Public().Base58())
		Expect(err).To(BeNil())
		Expect(parsed.Equal(k.Public())).To(BeTrue())
	})
})
