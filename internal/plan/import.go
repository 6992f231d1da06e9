package plan

import (
	"context"

	"github.com/manmal/planz/internal/store"
)

// Import appends a forest of nodes to the plan root in one transaction. Only
// Title, Description, Done and Children of the input are read. Unlike Refine
// it is strict: an invalid title, a sibling collision or a node deeper than
// MaxDepth aborts the whole import. Done flags are applied afterwards through
// the regular cascade, so a done branch marks its whole subtree done. It
// returns the number of nodes inserted.
func (e *Engine) Import(ctx context.Context, ref Ref, forest []*TreeNode) (int, error) {
	inserted := 0
	err := e.write(ctx, ref, "import", func(tx *store.Tx, p *store.Plan) error {
		inserted = 0
		var done []*store.Node
		var walk func(parentID int64, depth int, nodes []*TreeNode) error
		walk = func(parentID int64, depth int, nodes []*TreeNode) error {
			for _, in := range nodes {
				if depth > MaxDepth {
					return userErr(in.Title, ErrMaxDepth, "item would sit at depth %d, at most %d allowed", depth, MaxDepth)
				}
				n, err := insertChild(ctx, tx, p.ID, parentID, in.Title, in.Description)
				if err != nil {
					return err
				}
				inserted++
				if in.Done {
					done = append(done, n)
				}
				if err := walk(n.ID, depth+1, in.Children); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(0, 1, forest); err != nil {
			return err
		}
		for _, n := range done {
			if err := markDone(ctx, tx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
