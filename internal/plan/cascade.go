package plan

import (
	"context"

	"github.com/manmal/planz/internal/store"
)

// markDone sets n and its whole subtree done, then walks up: each ancestor
// becomes done only once all of its direct children are done. The walk stops
// at the first ancestor with an undone child, or at the root.
func markDone(ctx context.Context, tx *store.Tx, n *store.Node) error {
	if _, err := tx.SetSubtreeDone(ctx, n.ID, true); err != nil {
		return err
	}

	parentID := n.ParentID
	for parentID != 0 {
		allDone, err := tx.AllChildrenDone(ctx, parentID)
		if err != nil {
			return err
		}
		if !allDone {
			return nil
		}
		if _, err := tx.SetDone(ctx, true, parentID); err != nil {
			return err
		}
		parent, err := tx.NodeByID(ctx, parentID)
		if err != nil {
			return err
		}
		parentID = parent.ParentID
	}
	return nil
}

// markUndone sets n undone, leaving its children alone, and then sets every
// ancestor up to the root undone. A single regression is enough to reopen
// the whole chain; there is no sibling check in this direction.
func markUndone(ctx context.Context, tx *store.Tx, n *store.Node) error {
	ancestors, err := tx.AncestorIDs(ctx, n.ID)
	if err != nil {
		return err
	}
	_, err = tx.SetDone(ctx, false, append(ancestors, n.ID)...)
	return err
}

// Done marks each identified node done with the downward broadcast and the
// unanimous upward rule. Identifiers that do not resolve are skipped and not
// counted; the rest commit together. It returns how many nodes were marked.
func (e *Engine) Done(ctx context.Context, ref Ref, idents []string) (int, error) {
	return e.mark(ctx, ref, "done", idents, markDone)
}

// Undone marks each identified node undone and reopens all of its ancestors.
// Skipping and counting follow Done.
func (e *Engine) Undone(ctx context.Context, ref Ref, idents []string) (int, error) {
	return e.mark(ctx, ref, "undone", idents, markUndone)
}

func (e *Engine) mark(ctx context.Context, ref Ref, op string, idents []string,
	apply func(context.Context, *store.Tx, *store.Node) error) (int, error) {
	marked := 0
	err := e.write(ctx, ref, op, func(tx *store.Tx, p *store.Plan) error {
		marked = 0
		for _, ident := range idents {
			n, err := resolve(ctx, tx.Queries, p.ID, ident)
			if err != nil {
				if IsUserError(err) {
					e.log.Info("skipping unresolved identifier", "op", op, "ident", ident, "err", err)
					continue
				}
				return err
			}
			if err := apply(ctx, tx, n); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}
