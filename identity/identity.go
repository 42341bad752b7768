// Package identity implements the Identity Document (spec.md §4.D): the
// versioned, delegate-bearing document that defines a repository's RID and
// the quorum rule used to compute its canonical state.
package identity

import (
	"strings"

	"github.com/vmihailenco/msgpack/v4"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/rid"
	"github.com/gsaslis/heartwood/signer"
)

// Path is the fixed path, inside every identity-document commit's tree, at
// which the document blob lives.
const Path = "identity"

// Visibility controls whether a repository is advertised beyond its
// delegates.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Did identifies a delegate by their public signing key.
type Did struct {
	raw string
}

// DidFromKey derives a Did from a delegate's public key.
func DidFromKey(pub signer.PublicKey) Did {
	return Did{raw: "did:key:" + pub.Base58()}
}

// ParseDid wraps an already-formatted "did:key:..." string.
func ParseDid(s string) (Did, error) {
	if !strings.HasPrefix(s, "did:key:") || len(s) == len("did:key:") {
		return Did{}, corerr.New(corerr.KindDoc, "identity: malformed did: "+s)
	}
	return Did{raw: s}, nil
}

// String returns the "did:key:..." textual form.
func (d Did) String() string { return d.raw }

// Equal reports whether d and o name the same delegate.
func (d Did) Equal(o Did) bool { return d.raw == o.raw }

// Doc is the versioned identity document (spec.md §3, §4.D).
type Doc struct {
	Version       int        `msgpack:"version"`
	RID           string     `msgpack:"rid"`
	Title         string     `msgpack:"title"`
	Description   string     `msgpack:"description"`
	DefaultBranch string     `msgpack:"default_branch"`
	Visibility    Visibility `msgpack:"visibility"`
	Delegates     []Did      `msgpack:"delegates"`
	Threshold     uint32     `msgpack:"threshold"`

	// Parent records the oid of the previous identity-document commit, or
	// the zero oid for the document's own root commit. Not structurally
	// required; carried only for monotonicity checks and display.
	Parent gitstore.Oid `msgpack:"-"`
}

// CurrentVersion is the only document version this core recognizes.
const CurrentVersion = 1

// wireDoc mirrors Doc for (de)serialization, since Did and gitstore.Oid
// don't carry msgpack codecs of their own.
type wireDoc struct {
	Version       int      `msgpack:"version"`
	RID           string   `msgpack:"rid"`
	Title         string   `msgpack:"title"`
	Description   string   `msgpack:"description"`
	DefaultBranch string   `msgpack:"default_branch"`
	Visibility    string   `msgpack:"visibility"`
	Delegates     []string `msgpack:"delegates"`
	Threshold     uint32   `msgpack:"threshold"`
}

func (d Doc) toWire() wireDoc {
	delegates := make([]string, len(d.Delegates))
	for i, dg := range d.Delegates {
		delegates[i] = dg.raw
	}
	return wireDoc{
		Version:       d.Version,
		RID:           d.RID,
		Title:         d.Title,
		Description:   d.Description,
		DefaultBranch: d.DefaultBranch,
		Visibility:    string(d.Visibility),
		Delegates:     delegates,
		Threshold:     d.Threshold,
	}
}

func (w wireDoc) toDoc() Doc {
	delegates := make([]Did, len(w.Delegates))
	for i, s := range w.Delegates {
		delegates[i] = Did{raw: s}
	}
	return Doc{
		Version:       w.Version,
		RID:           w.RID,
		Title:         w.Title,
		Description:   w.Description,
		DefaultBranch: w.DefaultBranch,
		Visibility:    Visibility(w.Visibility),
		Delegates:     delegates,
		Threshold:     w.Threshold,
	}
}

// Encode serializes doc canonically (msgpack, fixed field order) for
// storage as the blob at Path. Parent is not part of the encoded bytes —
// it is recovered from the commit's own parent link when reading back.
func Encode(doc Doc) ([]byte, error) {
	b, err := msgpack.Marshal(doc.toWire())
	if err != nil {
		return nil, corerr.Wrap(corerr.KindBadEncoding, err, "identity: encode")
	}
	return b, nil
}

// Unverified is a document that has been decoded but not yet checked for
// structural validity.
type Unverified struct {
	Doc Doc
}

// Decode parses the blob bytes at Path into an Unverified document. parent
// is the oid of the previous commit on the chain (zero for the root).
func Decode(b []byte, parent gitstore.Oid) (Unverified, error) {
	var w wireDoc
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return Unverified{}, corerr.Wrap(corerr.KindBadEncoding, err, "identity: decode")
	}
	doc := w.toDoc()
	doc.Parent = parent
	return Unverified{Doc: doc}, nil
}

// Verified is a document that has passed the structural checks in Verify.
// It does not attest to authorship — authorship is the quorum package's
// concern (spec.md §4.D: "verification checks structural validity ...
// but not authorship").
type Verified struct {
	Doc Doc
}

var validBranchName = func(s string) bool {
	if s == "" || strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return false
	}
	if strings.Contains(s, "..") || strings.Contains(s, " ") || strings.Contains(s, "\x00") {
		return false
	}
	return true
}

// Verify checks the structural rules of spec.md §4.D: nonempty delegates
// with no duplicates, threshold in range, a recognized version, a valid
// default branch name, and a recognized visibility.
func Verify(u Unverified) (Verified, error) {
	d := u.Doc

	if d.Version != CurrentVersion {
		return Verified{}, corerr.New(corerr.KindDoc, "identity: unrecognized version")
	}
	if len(d.Delegates) == 0 {
		return Verified{}, corerr.New(corerr.KindDoc, "identity: delegates must be nonempty")
	}
	seen := make(map[string]struct{}, len(d.Delegates))
	for _, dg := range d.Delegates {
		if _, dup := seen[dg.raw]; dup {
			return Verified{}, corerr.New(corerr.KindDoc, "identity: duplicate delegate: "+dg.raw)
		}
		seen[dg.raw] = struct{}{}
	}
	if d.Threshold < 1 || int(d.Threshold) > len(d.Delegates) {
		return Verified{}, corerr.New(corerr.KindDoc, "identity: threshold out of range")
	}
	if !validBranchName(d.DefaultBranch) {
		return Verified{}, corerr.New(corerr.KindDoc, "identity: invalid default_branch")
	}
	if d.Visibility != Public && d.Visibility != Private {
		return Verified{}, corerr.New(corerr.KindDoc, "identity: unrecognized visibility")
	}

	return Verified{Doc: d}, nil
}

// RIDFromRoot derives the repository's RID from the oid of the root commit
// on the identity-document chain (spec.md §3: "RID ... derived from the
// initial identity document").
func RIDFromRoot(root gitstore.Oid) (rid.ID, error) {
	return rid.FromHash(root.Bytes())
}
