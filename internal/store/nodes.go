package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const nodeColumns = "id, plan_id, parent_id, local_id, title, description, done, position"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(s rowScanner) (*Node, error) {
	var (
		n      Node
		parent sql.NullInt64
	)
	if err := s.Scan(&n.ID, &n.PlanID, &parent, &n.LocalID, &n.Title, &n.Description, &n.Done, &n.Position); err != nil {
		return nil, err
	}
	n.ParentID = parent.Int64
	return &n, nil
}

func (q Queries) queryNode(ctx context.Context, what, query string, args ...any) (*Node, error) {
	n, err := scanNode(q.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get node by %s: %w", what, err)
	}
	return n, nil
}

func (q Queries) queryNodes(ctx context.Context, what, query string, args ...any) ([]Node, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", what, err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", what, err)
		}
		nodes = append(nodes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate %s: %w", what, err)
	}
	return nodes, nil
}

func (q Queries) queryIDs(ctx context.Context, what, query string, args ...any) ([]int64, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", what, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", what, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate %s: %w", what, err)
	}
	return ids, nil
}

// NodeByID returns the node with the given internal ID.
func (q Queries) NodeByID(ctx context.Context, id int64) (*Node, error) {
	return q.queryNode(ctx, "id",
		"SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
}

// NodeByLocalID returns the node of planID carrying the stable local ID.
func (q Queries) NodeByLocalID(ctx context.Context, planID, localID int64) (*Node, error) {
	return q.queryNode(ctx, "local id",
		"SELECT "+nodeColumns+" FROM nodes WHERE plan_id = ? AND local_id = ?", planID, localID)
}

// ChildByTitle returns the child of parentID (0 for the root group) titled
// exactly title.
func (q Queries) ChildByTitle(ctx context.Context, planID, parentID int64, title string) (*Node, error) {
	return q.queryNode(ctx, "title",
		"SELECT "+nodeColumns+" FROM nodes WHERE plan_id = ? AND parent_id IS ? AND title = ?",
		planID, nullableID(parentID), title)
}

// Children lists the direct children of parentID in sibling order.
func (q Queries) Children(ctx context.Context, planID, parentID int64) ([]Node, error) {
	return q.queryNodes(ctx, "children",
		"SELECT "+nodeColumns+" FROM nodes WHERE plan_id = ? AND parent_id IS ? ORDER BY position, id",
		planID, nullableID(parentID))
}

// PlanNodes lists every node of a plan, siblings in position order. Callers
// build the parent index in memory instead of issuing a query per level.
func (q Queries) PlanNodes(ctx context.Context, planID int64) ([]Node, error) {
	return q.queryNodes(ctx, "plan nodes",
		"SELECT "+nodeColumns+" FROM nodes WHERE plan_id = ? ORDER BY position, id", planID)
}

// MaxPosition returns the highest sibling position under parentID, or -1
// when the parent has no children.
func (q Queries) MaxPosition(ctx context.Context, planID, parentID int64) (int64, error) {
	var pos int64
	err := q.q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) FROM nodes WHERE plan_id = ? AND parent_id IS ?",
		planID, nullableID(parentID)).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("store: max position: %w", err)
	}
	return pos, nil
}

// HasChildren reports whether any node has nodeID as its parent.
func (q Queries) HasChildren(ctx context.Context, nodeID int64) (bool, error) {
	var exists bool
	err := q.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id = ?)", nodeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: has children %d: %w", nodeID, err)
	}
	return exists, nil
}

// AllChildrenDone reports whether every direct child of nodeID is done.
// A node without children trivially satisfies it.
func (q Queries) AllChildrenDone(ctx context.Context, nodeID int64) (bool, error) {
	var allDone bool
	err := q.q.QueryRowContext(ctx,
		"SELECT NOT EXISTS(SELECT 1 FROM nodes WHERE parent_id = ? AND done = FALSE)", nodeID).Scan(&allDone)
	if err != nil {
		return false, fmt.Errorf("store: children done %d: %w", nodeID, err)
	}
	return allDone, nil
}

const descendantsCTE = `
WITH RECURSIVE down(id, lvl) AS (
    SELECT id, 0 FROM nodes WHERE id = ?
    UNION ALL
    SELECT n.id, down.lvl + 1 FROM nodes n JOIN down ON n.parent_id = down.id
)`

const ancestorsCTE = `
WITH RECURSIVE up(id, parent_id, lvl) AS (
    SELECT id, parent_id, 0 FROM nodes WHERE id = ?
    UNION ALL
    SELECT n.id, n.parent_id, up.lvl + 1 FROM nodes n JOIN up ON n.id = up.parent_id
)`

// DescendantIDs returns the IDs of every node below nodeID, excluding it.
func (q Queries) DescendantIDs(ctx context.Context, nodeID int64) ([]int64, error) {
	return q.queryIDs(ctx, "descendants",
		descendantsCTE+" SELECT id FROM down WHERE lvl > 0 ORDER BY lvl, id", nodeID)
}

// AncestorIDs returns the IDs of every node above nodeID, nearest first.
func (q Queries) AncestorIDs(ctx context.Context, nodeID int64) ([]int64, error) {
	return q.queryIDs(ctx, "ancestors",
		ancestorsCTE+" SELECT id FROM up WHERE lvl > 0 ORDER BY lvl", nodeID)
}

// Depth returns the depth of nodeID, roots being depth 1.
func (q Queries) Depth(ctx context.Context, nodeID int64) (int, error) {
	var depth int
	err := q.q.QueryRowContext(ctx, ancestorsCTE+" SELECT COUNT(*) FROM up", nodeID).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("store: depth of %d: %w", nodeID, err)
	}
	if depth == 0 {
		return 0, ErrNotFound
	}
	return depth, nil
}

// SubtreeHeight returns the number of levels in the subtree rooted at
// nodeID: 1 for a leaf.
func (q Queries) SubtreeHeight(ctx context.Context, nodeID int64) (int, error) {
	var height sql.NullInt64
	err := q.q.QueryRowContext(ctx, descendantsCTE+" SELECT MAX(lvl) + 1 FROM down", nodeID).Scan(&height)
	if err != nil {
		return 0, fmt.Errorf("store: subtree height of %d: %w", nodeID, err)
	}
	if !height.Valid {
		return 0, ErrNotFound
	}
	return int(height.Int64), nil
}
