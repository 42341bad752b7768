package repo

import (
	"github.com/gsaslis/heartwood/corerr"
	"github.com/gsaslis/heartwood/gitstore"
)

// storeAncestry adapts gitstore.Store to quorum.Ancestry.
type storeAncestry struct {
	store *gitstore.Store
}

func (a storeAncestry) IsAncestor(x, y gitstore.Oid) (bool, error) {
	return a.store.IsAncestor(x, y)
}

// Distance counts commits between ancestor and descendant along the
// first-parent chain. Callers only invoke this once IsAncestor(ancestor,
// descendant) is known true.
func (a storeAncestry) Distance(ancestor, descendant gitstore.Oid) (int, error) {
	cur := descendant
	for n := 0; ; n++ {
		if cur.Equal(ancestor) {
			return n, nil
		}
		c, err := a.store.Commit(cur)
		if err != nil {
			return 0, err
		}
		if len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	return 0, corerr.New(corerr.KindGit, "repo: distance: ancestor not reachable on first-parent chain")
}
