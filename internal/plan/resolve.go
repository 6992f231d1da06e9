package plan

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/manmal/planz/internal/store"
)

// Separator divides the titles of a node path.
const Separator = "/"

// SplitPath splits a slash-separated path into trimmed segments, dropping
// empty ones so leading, trailing and doubled slashes are tolerated.
func SplitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, Separator) {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// ValidateTitle checks that title, once trimmed, is non-empty and free of
// the path separator.
func ValidateTitle(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return userErr(title, ErrInvalidTitle, "title is empty")
	}
	if strings.Contains(t, Separator) {
		return userErr(title, ErrInvalidTitle, "title must not contain %q", Separator)
	}
	return nil
}

// parseLocalID recognises the #<digits> form. ok is false for anything that
// does not start with '#'.
func parseLocalID(ident string) (id int64, ok bool, err error) {
	if !strings.HasPrefix(ident, "#") {
		return 0, false, nil
	}
	digits := ident[1:]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, true, userErr(ident, ErrInvalidPath, "expected #<number>")
	}
	id, err = strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, true, userErr(ident, ErrInvalidPath, "id out of range")
	}
	return id, true, nil
}

// resolve turns a path or #id into a node of planID. There is no partial or
// fuzzy matching: every path segment must name an existing child exactly.
func resolve(ctx context.Context, q store.Queries, planID int64, ident string) (*store.Node, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return nil, userErr("", ErrInvalidPath, "empty identifier")
	}

	if id, ok, err := parseLocalID(ident); ok {
		if err != nil {
			return nil, err
		}
		n, err := q.NodeByLocalID(ctx, planID, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, userErr(ident, ErrNotFound, "no node with that id")
		}
		return n, err
	}

	segs := SplitPath(ident)
	if len(segs) == 0 {
		return nil, userErr(ident, ErrInvalidPath, "path has no titles")
	}
	if len(segs) > MaxDepth {
		return nil, userErr(ident, ErrMaxDepth, "path has %d levels, at most %d allowed", len(segs), MaxDepth).
			withAlso(ErrInvalidPath)
	}

	var (
		n      *store.Node
		parent int64
	)
	for _, seg := range segs {
		var err error
		n, err = q.ChildByTitle(ctx, planID, parent, seg)
		if errors.Is(err, store.ErrNotFound) {
			return nil, userErr(ident, ErrInvalidPath, "no node titled %q", seg).withAlso(ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		parent = n.ID
	}
	return n, nil
}

// resolveParent is resolve where the empty identifier means the plan root,
// reported as a nil node.
func resolveParent(ctx context.Context, q store.Queries, planID int64, ident string) (*store.Node, error) {
	if strings.TrimSpace(ident) == "" {
		return nil, nil
	}
	return resolve(ctx, q, planID, ident)
}

// Resolve looks up a node by path or #id without taking the write lock.
func (e *Engine) Resolve(ctx context.Context, ref Ref, ident string) (*TreeNode, error) {
	p, err := planFor(ctx, e.store.Queries, ref)
	if err != nil {
		return nil, err
	}
	n, err := resolve(ctx, e.store.Queries, p.ID, ident)
	if err != nil {
		return nil, err
	}
	depth, err := e.store.Depth(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	hasChildren, err := e.store.HasChildren(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	tn := toTreeNode(n, depth)
	tn.HasChildren = hasChildren
	return tn, nil
}
