package plan

import (
	"context"
	"strconv"
	"strings"

	"github.com/manmal/planz/internal/store"
)

// TreeNode is the read model handed to renderers: one node with its local
// ID and, for tree queries, its ordered children.
type TreeNode struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Done        bool        `json:"done"`
	Depth       int         `json:"depth"`
	HasChildren bool        `json:"has_children"`
	Children    []*TreeNode `json:"children,omitempty"`
}

func toTreeNode(n *store.Node, depth int) *TreeNode {
	return &TreeNode{
		ID:          n.LocalID,
		Title:       n.Title,
		Description: n.Description,
		Done:        n.Done,
		Depth:       depth,
	}
}

// forest is a plan's nodes indexed by parent, built once per query.
type forest struct {
	children map[int64][]store.Node
}

func newForest(nodes []store.Node) *forest {
	f := &forest{children: make(map[int64][]store.Node)}
	// nodes arrive in position order, so each bucket is already sorted.
	for _, n := range nodes {
		f.children[n.ParentID] = append(f.children[n.ParentID], n)
	}
	return f
}

// build returns the ordered subtrees below parentID, depth-first.
func (f *forest) build(parentID int64, depth int) []*TreeNode {
	kids := f.children[parentID]
	if len(kids) == 0 {
		return nil
	}
	out := make([]*TreeNode, 0, len(kids))
	for i := range kids {
		tn := toTreeNode(&kids[i], depth)
		tn.Children = f.build(kids[i].ID, depth+1)
		tn.HasChildren = len(tn.Children) > 0
		out = append(out, tn)
	}
	return out
}

// Tree returns the ordered children of root (a path or #id), each with its
// full subtree. An empty root yields the plan's root nodes.
func (e *Engine) Tree(ctx context.Context, ref Ref, root string) ([]*TreeNode, error) {
	p, err := planFor(ctx, e.store.Queries, ref)
	if err != nil {
		return nil, err
	}
	nodes, err := e.store.PlanNodes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	f := newForest(nodes)

	if strings.TrimSpace(root) == "" {
		return f.build(0, 1), nil
	}
	n, err := resolve(ctx, e.store.Queries, p.ID, root)
	if err != nil {
		return nil, err
	}
	depth, err := e.store.Depth(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	return f.build(n.ID, depth+1), nil
}

// Subtree returns the node named by ident with its full subtree.
func (e *Engine) Subtree(ctx context.Context, ref Ref, ident string) (*TreeNode, error) {
	tn, err := e.Resolve(ctx, ref, ident)
	if err != nil {
		return nil, err
	}
	children, err := e.Tree(ctx, ref, "#"+strconv.FormatInt(tn.ID, 10))
	if err != nil {
		return nil, err
	}
	tn.Children = children
	tn.HasChildren = len(children) > 0
	return tn, nil
}

// Progress counts leaves, the actual units of work, below a root.
type Progress struct {
	Total int             `json:"total"`
	Done  int             `json:"done"`
	Items []ChildProgress `json:"items,omitempty"`
}

// ChildProgress is the leaf count for one top-level node of a Progress.
type ChildProgress struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Total int    `json:"total"`
	Done  int    `json:"done"`
}

// Percent returns the done share as a percentage; an empty tree is 0%.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) * 100 / float64(p.Total)
}

// Progress reports done/total leaf counts for the plan or for the subtree
// below root, broken down by its direct children.
func (e *Engine) Progress(ctx context.Context, ref Ref, root string) (Progress, error) {
	var (
		nodes []*TreeNode
		err   error
	)
	if strings.TrimSpace(root) == "" {
		nodes, err = e.Tree(ctx, ref, "")
	} else {
		var tn *TreeNode
		tn, err = e.Subtree(ctx, ref, root)
		if tn != nil {
			nodes = tn.Children
			if len(nodes) == 0 {
				nodes = []*TreeNode{tn}
			}
		}
	}
	if err != nil {
		return Progress{}, err
	}

	var p Progress
	for _, n := range nodes {
		total, done := countLeaves(n)
		p.Total += total
		p.Done += done
		p.Items = append(p.Items, ChildProgress{ID: n.ID, Title: n.Title, Total: total, Done: done})
	}
	return p, nil
}

func countLeaves(n *TreeNode) (total, done int) {
	if len(n.Children) == 0 {
		if n.Done {
			return 1, 1
		}
		return 1, 0
	}
	for _, c := range n.Children {
		t, d := countLeaves(c)
		total += t
		done += d
	}
	return total, done
}
