// Package sigrefs implements Signed Refs (spec.md §4.C): a canonical,
// deterministic manifest of one remote's refs together with a detached
// signature binding that exact manifest to the remote's signing key.
package sigrefs

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/ref"
	"github.com/gsaslis/heartwood/signer"
)

// Unsigned is a refs manifest that has been built from observed refs but not
// yet signed.
type Unsigned struct {
	refs map[string]gitstore.Oid
}

// New builds an Unsigned manifest from a set of qualified-ref -> oid pairs.
func New(refs map[ref.Qualified]gitstore.Oid) Unsigned {
	m := make(map[string]gitstore.Oid, len(refs))
	for name, oid := range refs {
		m[name.String()] = oid
	}
	return Unsigned{refs: m}
}

// Canonical renders the manifest in the stable, sorted line format that is
// what actually gets signed:
//
//	<fully-qualified-ref> SP <lowercase-hex-oid> LF
//
// sorted lexicographically by ref name (spec.md §4.C, §6).
func (u Unsigned) Canonical() []byte {
	names := make([]string, 0, len(u.refs))
	for name := range u.refs {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "%s %s\n", name, u.refs[name].String())
	}
	return buf.Bytes()
}

// Sign produces a Signed manifest, signing the canonical bytes with s.
func (u Unsigned) Sign(s signer.Signer) (Signed, error) {
	raw := u.Canonical()
	sig, err := s.Sign(raw)
	if err != nil {
		return Signed{}, corerr.Wrap(corerr.KindIO, err, "sigrefs: sign")
	}
	return Signed{
		refs:      u.refs,
		raw:       raw,
		signature: sig,
		signedBy:  s.Public(),
	}, nil
}

// Signed is a refs manifest whose canonical bytes are bound to a signature
// under a known public key. Its fields are unexported, so a populated
// Signed comes only from Sign or Parse; one returned by Parse has not had
// its signature checked until Verify is called.
type Signed struct {
	refs      map[string]gitstore.Oid
	raw       []byte
	signature []byte
	signedBy  signer.PublicKey
}

// Parse decodes the wire encoding written by Encode: the canonical manifest
// bytes, then a blank line, then the raw signature bytes. It does not
// verify the signature; call Verify for that (spec.md §4.C: parsing and
// verifying are distinct steps, so a parse failure and a signature failure
// are reported as distinct error kinds).
func Parse(data []byte, signedBy signer.PublicKey) (Signed, error) {
	sep := []byte("\n\n")
	i := bytes.Index(data, sep)
	if i < 0 {
		return Signed{}, corerr.New(corerr.KindBadEncoding, "sigrefs: missing manifest/signature separator")
	}
	raw, sig := data[:i+1], data[i+2:]
	if len(sig) == 0 {
		return Signed{}, corerr.New(corerr.KindBadEncoding, "sigrefs: empty signature")
	}

	refs, err := decodeManifest(raw)
	if err != nil {
		return Signed{}, err
	}
	return Signed{refs: refs, raw: raw, signature: sig, signedBy: signedBy}, nil
}

func decodeManifest(raw []byte) (map[string]gitstore.Oid, error) {
	refs := make(map[string]gitstore.Oid)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	prev := ""
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return nil, corerr.New(corerr.KindBadEncoding, "sigrefs: malformed line: "+line)
		}
		name, oidHex := parts[0], parts[1]
		if name <= prev && prev != "" {
			return nil, corerr.New(corerr.KindBadEncoding, "sigrefs: refs not in sorted order: "+name)
		}
		oid, err := gitstore.OidFromHex(oidHex)
		if err != nil {
			return nil, corerr.Wrap(corerr.KindBadEncoding, err, "sigrefs: malformed oid for "+name)
		}
		if _, dup := refs[name]; dup {
			return nil, corerr.New(corerr.KindBadEncoding, "sigrefs: duplicate ref: "+name)
		}
		refs[name] = oid
		prev = name
	}
	return refs, nil
}

// Encode renders the wire form consumed by Parse: canonical manifest bytes,
// a blank line, then the raw signature.
func (s Signed) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(s.raw)
	buf.WriteByte('\n')
	buf.Write(s.signature)
	return buf.Bytes()
}

// Verify checks that the signature is valid over the canonical manifest
// bytes under the signer's own claimed key. Returns a corerr.KindBadSignature
// error on mismatch.
func (s Signed) Verify() error {
	if !s.signedBy.Verify(s.raw, s.signature) {
		return corerr.New(corerr.KindBadSignature, "sigrefs: signature does not verify")
	}
	return nil
}

// Refs returns the manifest contents as qualified-ref -> oid pairs.
func (s Signed) Refs() map[string]gitstore.Oid {
	out := make(map[string]gitstore.Oid, len(s.refs))
	for k, v := range s.refs {
		out[k] = v
	}
	return out
}

// SignedBy returns the public key the manifest claims to be signed by.
func (s Signed) SignedBy() signer.PublicKey { return s.signedBy }

// Diff compares a signed manifest against the refs actually observed on
// disk for the same remote, returning the names of refs that are present
// on disk but either missing from the manifest or pointing somewhere else.
// These are the "unsigned refs" the verification pipeline reports but does
// not, by itself, treat as fatal (spec.md §4.H, §9 Open Questions).
func Diff(signed map[string]gitstore.Oid, actual map[string]gitstore.Oid) []string {
	var unsigned []string
	for name, oid := range actual {
		sigOid, ok := signed[name]
		if !ok || !sigOid.Equal(oid) {
			unsigned = append(unsigned, name)
		}
	}
	sort.Strings(unsigned)
	return unsigned
}
