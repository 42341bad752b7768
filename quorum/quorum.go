// Package quorum implements the Canonical Head & Quorum computation
// (spec.md §4.I): deriving the repository's canonical identity oid and
// canonical default-branch oid from delegate agreement, independent of any
// one remote's local pointers.
//
// It defines its own narrow ancestry interface rather than importing
// package repo, so repo can depend on quorum without a cycle.
package quorum

import (
	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
	"github.com/gsaslis/heartwood/remote"
)

// Ancestry is the commit-graph reachability repo exposes to this package.
type Ancestry interface {
	// IsAncestor reports whether a is an ancestor of, or equal to, b.
	IsAncestor(a, b gitstore.Oid) (bool, error)
	// Distance returns the number of commits between ancestor and
	// descendant along the first-parent chain. Callers only invoke this
	// when IsAncestor(ancestor, descendant) is known to hold.
	Distance(ancestor, descendant gitstore.Oid) (int, error)
}

func distinctOids(byDelegate map[remote.ID]gitstore.Oid) map[string]gitstore.Oid {
	out := make(map[string]gitstore.Oid, len(byDelegate))
	for _, oid := range byDelegate {
		out[oid.String()] = oid
	}
	return out
}

// CanonicalIdentity computes the canonical rad/id oid (spec.md §4.I,
// "Canonical identity oid"): among delegate tips that fast-forward from
// current, the one supported by the most delegates at an equal-or-further
// position, requiring support >= threshold. Ties break by largest
// advancing distance, then lexicographically smaller oid. If no candidate
// reaches threshold, current is returned unchanged — this is not an error.
func CanonicalIdentity(current gitstore.Oid, delegateTips map[remote.ID]gitstore.Oid, threshold int, a Ancestry) (gitstore.Oid, error) {
	type candidate struct {
		oid      gitstore.Oid
		support  int
		distance int
	}

	var candidates []candidate
	for _, oid := range distinctOids(delegateTips) {
		if !current.IsZero() {
			ok, err := a.IsAncestor(current, oid)
			if err != nil {
				return gitstore.ZeroOid, err
			}
			if !ok {
				continue
			}
		}

		support := 0
		for _, tip := range delegateTips {
			ok, err := a.IsAncestor(oid, tip)
			if err != nil {
				return gitstore.ZeroOid, err
			}
			if ok {
				support++
			}
		}
		if support < threshold {
			continue
		}

		dist := 0
		if !current.IsZero() && !current.Equal(oid) {
			d, err := a.Distance(current, oid)
			if err != nil {
				return gitstore.ZeroOid, err
			}
			dist = d
		}

		candidates = append(candidates, candidate{oid: oid, support: support, distance: dist})
	}

	if len(candidates) == 0 {
		return current, nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.support > best.support:
			best = c
		case c.support == best.support && c.distance > best.distance:
			best = c
		case c.support == best.support && c.distance == best.distance && c.oid.String() < best.oid.String():
			best = c
		}
	}
	return best.oid, nil
}

// CanonicalBranch computes the canonical default-branch oid (spec.md
// §4.I, "Canonical branch oid"): the deepest oid, in ancestor order, that
// at least threshold delegates' tips descend from. If the delegates that
// reach threshold support two oids that are ancestor-incomparable, the
// computation fails with NoCanonicalHead rather than guessing (resolving
// the degenerate-tie-break Open Question).
func CanonicalBranch(delegateTips map[remote.ID]gitstore.Oid, threshold int, a Ancestry) (gitstore.Oid, error) {
	candidates := distinctOids(delegateTips)

	type scored struct {
		oid     gitstore.Oid
		support int
	}
	var passing []scored
	for _, oid := range candidates {
		support := 0
		for _, tip := range delegateTips {
			ok, err := a.IsAncestor(oid, tip)
			if err != nil {
				return gitstore.ZeroOid, err
			}
			if ok {
				support++
			}
		}
		if support >= threshold {
			passing = append(passing, scored{oid: oid, support: support})
		}
	}

	if len(passing) == 0 {
		return gitstore.ZeroOid, corerr.NoCanonicalHead
	}

	var maximal []gitstore.Oid
	for _, p := range passing {
		dominated := false
		for _, q := range passing {
			if p.oid.Equal(q.oid) {
				continue
			}
			ok, err := a.IsAncestor(p.oid, q.oid)
			if err != nil {
				return gitstore.ZeroOid, err
			}
			if ok {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, p.oid)
		}
	}

	if len(maximal) != 1 {
		return gitstore.ZeroOid, corerr.NoCanonicalHead
	}
	return maximal[0], nil
}
