package plan

import (
	"context"
	"errors"
	"strings"

	"github.com/manmal/planz/internal/store"
)

// AddOptions tunes Add.
type AddOptions struct {
	Description string // Description of the final path segment
	Under       string // Optional path or #id the new path is relative to
}

// Add creates the node named by the last segment of path. Missing
// intermediate segments are created along the way, so a single call can
// build a whole branch; an existing final segment is a DuplicateTitle.
// Nothing is written if the final node would sit deeper than MaxDepth.
func (e *Engine) Add(ctx context.Context, ref Ref, path string, opts AddOptions) (*TreeNode, error) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return nil, userErr(path, ErrInvalidTitle, "path has no titles")
	}
	if len(segs) > MaxDepth {
		return nil, userErr(path, ErrMaxDepth, "path has %d levels, at most %d allowed", len(segs), MaxDepth)
	}

	var (
		leaf  *store.Node
		depth int
	)
	err := e.write(ctx, ref, "add", func(tx *store.Tx, p *store.Plan) error {
		var parentID int64
		if strings.TrimSpace(opts.Under) != "" {
			anchor, err := resolve(ctx, tx.Queries, p.ID, opts.Under)
			if err != nil {
				return err
			}
			if depth, err = tx.Depth(ctx, anchor.ID); err != nil {
				return err
			}
			parentID = anchor.ID
		}
		if depth+len(segs) > MaxDepth {
			return userErr(path, ErrMaxDepth, "node would sit at depth %d, at most %d allowed", depth+len(segs), MaxDepth)
		}

		// attachID is the existing node the new branch hangs from. Once the
		// first segment is inserted every later one is new as well.
		attachID := int64(-1)
		for i, seg := range segs {
			last := i == len(segs)-1
			if attachID < 0 {
				existing, err := tx.ChildByTitle(ctx, p.ID, parentID, seg)
				switch {
				case err == nil && last:
					return userErr(path, ErrDuplicateTitle, "%q already exists", seg)
				case err == nil:
					parentID = existing.ID
					continue
				case !errors.Is(err, store.ErrNotFound):
					return err
				}
				attachID = parentID
			}

			desc := ""
			if last {
				desc = opts.Description
			}
			n, err := insertChild(ctx, tx, p.ID, parentID, seg, desc)
			if err != nil {
				return err
			}
			parentID = n.ID
			leaf = n
		}
		depth += len(segs)
		return reopen(ctx, tx, attachID)
	})
	if err != nil {
		return nil, err
	}
	return toTreeNode(leaf, depth), nil
}

// insertChild validates title and appends a new undone node after the last
// child of parentID, minting the plan's next local ID.
func insertChild(ctx context.Context, tx *store.Tx, planID, parentID int64, title, description string) (*store.Node, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)

	maxPos, err := tx.MaxPosition(ctx, planID, parentID)
	if err != nil {
		return nil, err
	}
	localID, err := tx.NextLocalID(ctx, planID)
	if err != nil {
		return nil, err
	}
	n := &store.Node{
		PlanID:      planID,
		ParentID:    parentID,
		LocalID:     localID,
		Title:       title,
		Description: description,
		Position:    maxPos + 1,
	}
	if err := tx.InsertNode(ctx, n); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, userErr(title, ErrDuplicateTitle, "")
		}
		return nil, err
	}
	return n, nil
}

// reopen keeps "done implies descendants done" true after undone work lands
// under parentID: a done parent and every ancestor above it become undone.
// An undone parent already has only undone ancestors, so nothing changes.
func reopen(ctx context.Context, tx *store.Tx, parentID int64) error {
	if parentID == 0 {
		return nil
	}
	parent, err := tx.NodeByID(ctx, parentID)
	if err != nil {
		return err
	}
	if !parent.Done {
		return nil
	}
	return markUndone(ctx, tx, parent)
}

// Remove deletes a node. A node with children is only removed when force is
// set, and then its whole subtree goes with it. It returns the number of
// nodes deleted.
func (e *Engine) Remove(ctx context.Context, ref Ref, ident string, force bool) (int, error) {
	var removed int64
	err := e.write(ctx, ref, "remove", func(tx *store.Tx, p *store.Plan) error {
		n, err := resolve(ctx, tx.Queries, p.ID, ident)
		if err != nil {
			return err
		}
		hasChildren, err := tx.HasChildren(ctx, n.ID)
		if err != nil {
			return err
		}
		if hasChildren && !force {
			return userErr(ident, ErrHasChildren, "use force to remove the whole subtree")
		}
		removed, err = tx.DeleteSubtree(ctx, n.ID)
		return err
	})
	return int(removed), err
}

// Rename retitles a node. Its local ID, position and children are untouched.
func (e *Engine) Rename(ctx context.Context, ref Ref, ident, title string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	title = strings.TrimSpace(title)

	return e.write(ctx, ref, "rename", func(tx *store.Tx, p *store.Plan) error {
		n, err := resolve(ctx, tx.Queries, p.ID, ident)
		if err != nil {
			return err
		}
		if n.Title == title {
			return nil
		}
		if _, err := tx.ChildByTitle(ctx, p.ID, n.ParentID, title); err == nil {
			return userErr(title, ErrDuplicateTitle, "a sibling of %q already has this title", ident)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.UpdateTitle(ctx, n.ID, title); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return userErr(title, ErrDuplicateTitle, "")
			}
			return err
		}
		return nil
	})
}

// Describe replaces a node's description verbatim; the empty string clears it.
func (e *Engine) Describe(ctx context.Context, ref Ref, ident, text string) error {
	return e.write(ctx, ref, "describe", func(tx *store.Tx, p *store.Plan) error {
		n, err := resolve(ctx, tx.Queries, p.ID, ident)
		if err != nil {
			return err
		}
		return tx.UpdateDescription(ctx, n.ID, text)
	})
}
