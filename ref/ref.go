// Package ref implements the Reference Model (spec.md §4.B): qualified ref
// names, namespaced ref names, reserved names, and the RefUpdate value used
// to report what a fetch changed.
package ref

import (
	"fmt"
	"strings"

	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
)

// Prefix every valid reference name must start with.
const Prefix = "refs/"

// Reserved ref suffixes, per remote (spec.md §4.B: "Reserved suffixes are
// string constants, not computed").
const (
	IdentitySuffix = "rad/id"
	SigrefsSuffix  = "rad/sigrefs"
)

// IdentityName is the reserved identity-document ref, not namespaced.
var IdentityName = Qualified{path: Prefix + IdentitySuffix}

// SigrefsName is the reserved signed-refs manifest ref, not namespaced.
var SigrefsName = Qualified{path: Prefix + SigrefsSuffix}

// Qualified is a ref name guaranteed to start with "refs/".
type Qualified struct {
	path string
}

// NewQualified validates s and wraps it. Fails if s does not start with
// "refs/".
func NewQualified(s string) (Qualified, error) {
	if !strings.HasPrefix(s, Prefix) {
		return Qualified{}, corerr.New(corerr.KindInvalidRef, fmt.Sprintf("ref: %q must start with %q", s, Prefix))
	}
	return Qualified{path: s}, nil
}

// String returns the fully-qualified ref name.
func (q Qualified) String() string { return q.path }

// IsZero reports whether q was never assigned a value.
func (q Qualified) IsZero() bool { return q.path == "" }

// Rest returns the portion of the ref name after "refs/".
func (q Qualified) Rest() string { return strings.TrimPrefix(q.path, Prefix) }

// Namespaced returns the ref name under remote's namespace:
// refs/namespaces/<remote>/<rest-after-refs/>.
func Namespaced(remote string, q Qualified) string {
	return fmt.Sprintf("%snamespaces/%s/%s", Prefix, remote, q.Rest())
}

// NamespacePrefix returns the namespace root for remote, e.g.
// "refs/namespaces/<remote>/".
func NamespacePrefix(remote string) string {
	return fmt.Sprintf("%snamespaces/%s/", Prefix, remote)
}

// StripNamespace removes the "refs/namespaces/<remote>/" prefix from a
// fully-namespaced ref name, returning the qualified name underneath.
// Returns false if name is not under remote's namespace.
func StripNamespace(remote, name string) (Qualified, bool) {
	p := NamespacePrefix(remote)
	if !strings.HasPrefix(name, p) {
		return Qualified{}, false
	}
	return Qualified{path: Prefix + strings.TrimPrefix(name, p)}, true
}

// Kind tags the classification returned by From.
type Kind int

const (
	// KindSkipped: old equals new, non-zero.
	KindSkipped Kind = iota
	// KindCreated: old is zero.
	KindCreated
	// KindDeleted: new is zero.
	KindDeleted
	// KindUpdated: neither zero, and they differ.
	KindUpdated
)

// Update describes how a single ref changed during a fetch (spec.md §4.B,
// invariant 5). It is the unit replication logic gossips downstream.
type Update struct {
	Kind Kind
	Name Qualified
	Old  gitstore.Oid
	New  gitstore.Oid
}

// From classifies a ref transition per the table in spec.md §3 invariant 5:
//
//	both zero            -> illegal (returns an error)
//	old == new, non-zero  -> Skipped
//	old zero              -> Created
//	new zero              -> Deleted
//	otherwise             -> Updated
func From(name Qualified, old, new gitstore.Oid) (Update, error) {
	if old.IsZero() && new.IsZero() {
		return Update{}, corerr.New(corerr.KindInvalidRef, "ref: both old and new oid are zero for "+name.String())
	}
	switch {
	case old.IsZero():
		return Update{Kind: KindCreated, Name: name, Old: old, New: new}, nil
	case new.IsZero():
		return Update{Kind: KindDeleted, Name: name, Old: old, New: new}, nil
	case old.Equal(new):
		return Update{Kind: KindSkipped, Name: name, Old: old, New: new}, nil
	default:
		return Update{Kind: KindUpdated, Name: name, Old: old, New: new}, nil
	}
}

// String renders the stable Display format consumed by tooling (spec.md
// §4.B):
//
//	~ <old7>..<new7> <name>   Updated
//	* 0000000..<new7> <name>  Created
//	- <old7>..0000000 <name>  Deleted
//	= <oid7>..<oid7> <name>   Skipped
func (u Update) String() string {
	const zero7 = "0000000"
	switch u.Kind {
	case KindUpdated:
		return fmt.Sprintf("~ %s..%s %s", u.Old.Short(), u.New.Short(), u.Name)
	case KindCreated:
		return fmt.Sprintf("* %s..%s %s", zero7, u.New.Short(), u.Name)
	case KindDeleted:
		return fmt.Sprintf("- %s..%s %s", u.Old.Short(), zero7, u.Name)
	default: // KindSkipped
		return fmt.Sprintf("= %s..%s %s", u.Old.Short(), u.Old.Short(), u.Name)
	}
}
