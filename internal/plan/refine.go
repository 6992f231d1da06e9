package plan

import (
	"context"
	"errors"

	"github.com/manmal/planz/internal/store"
)

// Refine expands a childless node into a subtree without changing its
// identity. Each child path is relative to the node; its intermediate
// segments are reused when a same-titled child exists and created otherwise.
//
// Refine is best effort per child path: a path that is empty, would exceed
// MaxDepth, carries an invalid title or collides with an existing leaf is
// skipped rather than failing the call. It returns the number of nodes
// actually inserted, intermediates included.
func (e *Engine) Refine(ctx context.Context, ref Ref, ident string, children []string) (int, error) {
	added := 0
	err := e.write(ctx, ref, "refine", func(tx *store.Tx, p *store.Plan) error {
		added = 0
		target, err := resolve(ctx, tx.Queries, p.ID, ident)
		if err != nil {
			return err
		}
		hasChildren, err := tx.HasChildren(ctx, target.ID)
		if err != nil {
			return err
		}
		if hasChildren {
			return userErr(ident, ErrHasChildren, "only a leaf can be refined")
		}
		depth, err := tx.Depth(ctx, target.ID)
		if err != nil {
			return err
		}
		if depth >= MaxDepth {
			return userErr(ident, ErrMaxDepth, "node is already at depth %d", depth)
		}

		for _, child := range children {
			n, err := refineChild(ctx, tx, p.ID, target.ID, depth, child)
			added += n
			if err != nil {
				if IsUserError(err) {
					e.log.Info("skipping refine child", "ident", ident, "child", child, "err", err)
					continue
				}
				return err
			}
		}
		if added == 0 {
			return nil
		}
		return reopen(ctx, tx, target.ID)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// refineChild inserts one relative child path under targetID and returns how
// many nodes it created. User errors mean the path was skipped. Depth and
// title checks run before the first insert, and a leaf can only collide when
// every intermediate already existed, so a skipped path creates nothing.
func refineChild(ctx context.Context, tx *store.Tx, planID, targetID int64, targetDepth int, child string) (int, error) {
	segs := SplitPath(child)
	if len(segs) == 0 {
		return 0, userErr(child, ErrInvalidTitle, "empty child path")
	}
	if targetDepth+len(segs) > MaxDepth {
		return 0, userErr(child, ErrMaxDepth, "would reach depth %d", targetDepth+len(segs))
	}
	for _, seg := range segs {
		if err := ValidateTitle(seg); err != nil {
			return 0, err
		}
	}

	created := 0
	parentID := targetID
	for i, seg := range segs {
		last := i == len(segs)-1
		existing, err := tx.ChildByTitle(ctx, planID, parentID, seg)
		switch {
		case err == nil && last:
			return created, userErr(child, ErrDuplicateTitle, "%q already exists", seg)
		case err == nil:
			parentID = existing.ID
			continue
		case !errors.Is(err, store.ErrNotFound):
			return created, err
		}

		n, err := insertChild(ctx, tx, planID, parentID, seg, "")
		if err != nil {
			return created, err
		}
		created++
		parentID = n.ID
	}
	return created, nil
}
