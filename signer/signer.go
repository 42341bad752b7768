// Package signer provides the minimal signing capability the storage core
// depends on: something that produces and verifies signatures over byte
// strings. Key management beyond this is out of scope (spec.md §1) — this
// package does not handle key storage, rotation, or distribution.
//
// Modeled on the teacher's crypto/ed25519 key wrapper, trimmed to the
// sign/verify surface the core actually calls.
package signer

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"
)

// Signer signs byte strings with a private key. Implementations must be
// safe to share across goroutines for reads (Sign may be called
// concurrently by at most one signer per remote, per spec.md §5).
type Signer interface {
	// Sign returns a signature over data.
	Sign(data []byte) ([]byte, error)
	// Public returns the public key that verifies signatures from this Signer.
	Public() PublicKey
}

// PublicKey identifies a remote and verifies signatures produced by its
// matching private key. It is a fixed-size value (not a slice-backed
// struct) so it can be used directly as a map key — the core keys its
// delegate and remote maps by PublicKey throughout (spec.md §4.G, §4.I).
type PublicKey struct {
	raw [ed25519.PublicKeySize]byte
}

// PublicKeyFromBytes wraps a raw 32-byte Ed25519 public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return PublicKey{}, errInvalidKeySize
	}
	var p PublicKey
	copy(p.raw[:], b)
	return p, nil
}

// Bytes returns the raw public key bytes.
func (p PublicKey) Bytes() []byte {
	cp := make([]byte, len(p.raw))
	copy(cp, p.raw[:])
	return cp
}

// Base58 returns the base58check-encoded public key, used as a remote's
// human-readable identifier in logs and errors.
func (p PublicKey) Base58() string {
	return base58.CheckEncode(p.raw[:], 0x21)
}

// PublicKeyFromBase58 decodes the textual form produced by Base58, as used
// to recover a remote's id from its namespace name (spec.md §3: "a remote"
// is identified by its public key).
func PublicKeyFromBase58(s string) (PublicKey, error) {
	raw, version, err := base58.CheckDecode(s)
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "signer: decode base58 public key")
	}
	if version != 0x21 {
		return PublicKey{}, errInvalidKeySize
	}
	return PublicKeyFromBytes(raw)
}

// Equal reports whether p and o identify the same key.
func (p PublicKey) Equal(o PublicKey) bool {
	return p.raw == o.raw
}

// Verify checks sig against data using this public key.
func (p PublicKey) Verify(data, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(p.raw[:]), data, sig)
}

// Key is an in-memory Ed25519 signer, suitable for local signing by the
// remote owning the private key.
type Key struct {
	priv ed25519.PrivateKey
}

// GenerateKey creates a new random Ed25519 Key.
func GenerateKey() (*Key, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

// KeyFromSeed deterministically derives a Key from a 32-byte seed. Useful
// for tests that need stable keys across runs.
func KeyFromSeed(seed []byte) *Key {
	return &Key{priv: ed25519.NewKeyFromSeed(seed)}
}

// Sign implements Signer.
func (k *Key) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, data), nil
}

// Public implements Signer.
func (k *Key) Public() PublicKey {
	pub := k.priv.Public().(ed25519.PublicKey)
	p, _ := PublicKeyFromBytes(pub)
	return p
}

var errInvalidKeySize = &keySizeError{}

type keySizeError struct{}

func (*keySizeError) Error() string { return "signer: invalid public key size" }
