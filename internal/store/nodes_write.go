package store

import (
	"context"
	"fmt"
	"strings"
)

// NextLocalID consumes and returns the plan's next local ID. The counter only
// ever increases, so local IDs are never reused within a plan.
func (t *Tx) NextLocalID(ctx context.Context, planID int64) (int64, error) {
	var id int64
	if err := t.q.QueryRowContext(ctx,
		"SELECT next_local_id FROM plans WHERE id = ?", planID).Scan(&id); err != nil {
		return 0, fmt.Errorf("store: read next local id of plan %d: %w", planID, err)
	}
	if _, err := t.q.ExecContext(ctx,
		"UPDATE plans SET next_local_id = next_local_id + 1 WHERE id = ?", planID); err != nil {
		return 0, fmt.Errorf("store: bump next local id of plan %d: %w", planID, err)
	}
	return id, nil
}

// InsertNode inserts n and fills in its internal ID. It returns ErrConflict
// when a sibling already carries the title.
func (t *Tx) InsertNode(ctx context.Context, n *Node) error {
	const q = `
		INSERT INTO nodes (plan_id, parent_id, local_id, title, description, done, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.q.ExecContext(ctx, q,
		n.PlanID, nullableID(n.ParentID), n.LocalID, n.Title, n.Description, n.Done, n.Position)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert node %q: %w", n.Title, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("store: insert node %q: %w", n.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: last insert id: %w", err)
	}
	n.ID = id
	return nil
}

func (t *Tx) execNode(ctx context.Context, what string, nodeID int64, query string, args ...any) error {
	res, err := t.q.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s node %d: %w", what, nodeID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("store: %s node %d: %w", what, nodeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s node %d: rows affected: %w", what, nodeID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTitle renames a node. It returns ErrConflict on a sibling collision.
func (t *Tx) UpdateTitle(ctx context.Context, nodeID int64, title string) error {
	return t.execNode(ctx, "rename", nodeID,
		"UPDATE nodes SET title = ? WHERE id = ?", title, nodeID)
}

// UpdateDescription replaces a node's description verbatim.
func (t *Tx) UpdateDescription(ctx context.Context, nodeID int64, description string) error {
	return t.execNode(ctx, "describe", nodeID,
		"UPDATE nodes SET description = ? WHERE id = ?", description, nodeID)
}

// UpdateParent reattaches a node under parentID (0 for root) at position.
func (t *Tx) UpdateParent(ctx context.Context, nodeID, parentID, position int64) error {
	return t.execNode(ctx, "reparent", nodeID,
		"UPDATE nodes SET parent_id = ?, position = ? WHERE id = ?",
		nullableID(parentID), position, nodeID)
}

// UpdatePosition sets a node's sibling position.
func (t *Tx) UpdatePosition(ctx context.Context, nodeID, position int64) error {
	return t.execNode(ctx, "reposition", nodeID,
		"UPDATE nodes SET position = ? WHERE id = ?", position, nodeID)
}

// ShiftPositions moves every child of parentID positioned strictly after
// `after` one slot later, opening position after+1.
func (t *Tx) ShiftPositions(ctx context.Context, planID, parentID, after int64) error {
	_, err := t.q.ExecContext(ctx,
		"UPDATE nodes SET position = position + 1 WHERE plan_id = ? AND parent_id IS ? AND position > ?",
		planID, nullableID(parentID), after)
	if err != nil {
		return fmt.Errorf("store: shift positions after %d: %w", after, err)
	}
	return nil
}

// SetDone sets the done flag on every listed node and returns how many rows
// were touched.
func (t *Tx) SetDone(ctx context.Context, done bool, nodeIDs ...int64) (int64, error) {
	if len(nodeIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(nodeIDs)), ",")
	args := make([]any, 0, len(nodeIDs)+1)
	args = append(args, done)
	for _, id := range nodeIDs {
		args = append(args, id)
	}
	res, err := t.q.ExecContext(ctx,
		"UPDATE nodes SET done = ? WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("store: set done=%t on %d nodes: %w", done, len(nodeIDs), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: set done: rows affected: %w", err)
	}
	return n, nil
}

// SetSubtreeDone sets the done flag on nodeID and every node below it in
// one statement and returns how many rows were touched.
func (t *Tx) SetSubtreeDone(ctx context.Context, nodeID int64, done bool) (int64, error) {
	res, err := t.q.ExecContext(ctx,
		descendantsCTE+" UPDATE nodes SET done = ? WHERE id IN (SELECT id FROM down)", nodeID, done)
	if err != nil {
		return 0, fmt.Errorf("store: set done=%t on subtree %d: %w", done, nodeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: set subtree done: rows affected: %w", err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// DeleteSubtree deletes nodeID and all of its descendants and returns the
// number of nodes removed.
func (t *Tx) DeleteSubtree(ctx context.Context, nodeID int64) (int64, error) {
	// Count up front: rows removed by the parent_id cascade do not show up
	// in RowsAffected.
	var n int64
	if err := t.q.QueryRowContext(ctx,
		descendantsCTE+" SELECT COUNT(*) FROM down", nodeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count subtree %d: %w", nodeID, err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	if _, err := t.q.ExecContext(ctx,
		descendantsCTE+" DELETE FROM nodes WHERE id IN (SELECT id FROM down)", nodeID); err != nil {
		return 0, fmt.Errorf("store: delete subtree %d: %w", nodeID, err)
	}
	return n, nil
}
