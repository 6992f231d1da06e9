package planfile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/manmal/planz/internal/plan"
)

// FromTree builds a document from a plan's tree. Local IDs and depths are
// not part of the file format.
func FromTree(name, summary string, nodes []*plan.TreeNode) *Document {
	return &Document{Plan: name, Summary: summary, Items: itemsFromTree(nodes)}
}

func itemsFromTree(nodes []*plan.TreeNode) []Item {
	if len(nodes) == 0 {
		return nil
	}
	items := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, Item{
			Title:       n.Title,
			Description: n.Description,
			Done:        n.Done,
			Items:       itemsFromTree(n.Children),
		})
	}
	return items
}

// Tree converts the document's items into the forest shape accepted by
// plan.Engine.Import.
func (d *Document) Tree() []*plan.TreeNode {
	return treeFromItems(d.Items, 1)
}

func treeFromItems(items []Item, depth int) []*plan.TreeNode {
	if len(items) == 0 {
		return nil
	}
	nodes := make([]*plan.TreeNode, 0, len(items))
	for _, it := range items {
		n := &plan.TreeNode{
			Title:       strings.TrimSpace(it.Title),
			Description: it.Description,
			Done:        it.Done,
			Depth:       depth,
			Children:    treeFromItems(it.Items, depth+1),
		}
		n.HasChildren = len(n.Children) > 0
		nodes = append(nodes, n)
	}
	return nodes
}

// Validate checks the document against the rules the engine enforces on
// import, reporting the first problem with the item's path.
func (d *Document) Validate() error {
	return validateItems(d.Items, nil)
}

func validateItems(items []Item, parents []string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		here := append(slices.Clip(parents), title)
		path := strings.Join(here, plan.Separator)
		if err := plan.ValidateTitle(it.Title); err != nil {
			return fmt.Errorf("item %q: %w", path, err)
		}
		if len(parents)+1 > plan.MaxDepth {
			return fmt.Errorf("item %q: %w", path, plan.ErrMaxDepth)
		}
		if seen[title] {
			return fmt.Errorf("item %q: %w", path, plan.ErrDuplicateTitle)
		}
		seen[title] = true
		if err := validateItems(it.Items, here); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of items in the document, nested ones included.
func (d *Document) Count() int {
	return countItems(d.Items)
}

func countItems(items []Item) int {
	n := len(items)
	for _, it := range items {
		n += countItems(it.Items)
	}
	return n
}
