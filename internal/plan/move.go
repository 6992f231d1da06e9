package plan

import (
	"context"
	"errors"
	"slices"

	"github.com/manmal/planz/internal/store"
)

// Destination says where Move puts a node. Exactly one field must be set.
// To names the new parent ("" is the plan root); After names a sibling the
// node is placed right after, under their shared parent.
type Destination struct {
	To    *string
	After *string
}

// ToParent is a Destination under the node named by ident ("" for root).
func ToParent(ident string) Destination {
	return Destination{To: &ident}
}

// AfterSibling is a Destination right after the sibling named by ident.
func AfterSibling(ident string) Destination {
	return Destination{After: &ident}
}

// Move reparents or reorders a node. The node keeps its local ID, title,
// status and subtree.
func (e *Engine) Move(ctx context.Context, ref Ref, ident string, dest Destination) error {
	if (dest.To == nil) == (dest.After == nil) {
		return userErr(ident, ErrInvalidPath, "move needs exactly one of a parent or a sibling destination")
	}
	return e.write(ctx, ref, "move", func(tx *store.Tx, p *store.Plan) error {
		n, err := resolve(ctx, tx.Queries, p.ID, ident)
		if err != nil {
			return err
		}
		if dest.To != nil {
			return moveToParent(ctx, tx, p.ID, n, *dest.To)
		}
		return moveAfter(ctx, tx, p.ID, n, *dest.After)
	})
}

// moveToParent appends n as the last child of the destination. The whole
// moved subtree must still fit within MaxDepth, and a node cannot be moved
// beneath itself.
func moveToParent(ctx context.Context, tx *store.Tx, planID int64, n *store.Node, to string) error {
	parent, err := resolveParent(ctx, tx.Queries, planID, to)
	if err != nil {
		return err
	}

	var parentID int64
	parentDepth := 0
	if parent != nil {
		parentID = parent.ID
		descendants, err := tx.DescendantIDs(ctx, n.ID)
		if err != nil {
			return err
		}
		if parent.ID == n.ID || slices.Contains(descendants, parent.ID) {
			return userErr(to, ErrInvalidPath, "cannot move a node beneath itself")
		}
		if parentDepth, err = tx.Depth(ctx, parent.ID); err != nil {
			return err
		}
		if parentDepth >= MaxDepth {
			return userErr(to, ErrMaxDepth, "destination is already at depth %d", parentDepth)
		}
	}

	height, err := tx.SubtreeHeight(ctx, n.ID)
	if err != nil {
		return err
	}
	if parentDepth+height > MaxDepth {
		return userErr(to, ErrMaxDepth, "moved subtree would reach depth %d, at most %d allowed", parentDepth+height, MaxDepth)
	}

	if parentID != n.ParentID {
		if _, err := tx.ChildByTitle(ctx, planID, parentID, n.Title); err == nil {
			return userErr(n.Title, ErrDuplicateTitle, "destination already has a child with this title")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	maxPos, err := tx.MaxPosition(ctx, planID, parentID)
	if err != nil {
		return err
	}
	if err := tx.UpdateParent(ctx, n.ID, parentID, maxPos+1); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return userErr(n.Title, ErrDuplicateTitle, "")
		}
		return err
	}
	if n.Done {
		return nil
	}
	return reopen(ctx, tx, parentID)
}

// moveAfter places n immediately after sibling under their shared parent,
// shifting later siblings one slot down.
func moveAfter(ctx context.Context, tx *store.Tx, planID int64, n *store.Node, after string) error {
	sib, err := resolve(ctx, tx.Queries, planID, after)
	if err != nil {
		return err
	}
	if sib.ParentID != n.ParentID {
		return userErr(after, ErrInvalidPath, "not a sibling of the moved node")
	}
	if sib.ID == n.ID {
		return nil
	}
	if err := tx.ShiftPositions(ctx, planID, n.ParentID, sib.Position); err != nil {
		return err
	}
	return tx.UpdatePosition(ctx, n.ID, sib.Position+1)
}
