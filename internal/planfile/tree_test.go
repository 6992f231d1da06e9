package planfile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/manmal/planz/internal/plan"
)

func TestFromTreeAndBack(t *testing.T) {
	t.Parallel()

	nodes := []*plan.TreeNode{
		{ID: 1, Title: "Phase 1", Description: "setup", Depth: 1, HasChildren: true, Children: []*plan.TreeNode{
			{ID: 7, Title: "Task A", Done: true, Depth: 2},
		}},
		{ID: 3, Title: "Phase 2", Depth: 1},
	}
	doc := FromTree("launch", "ship v1", nodes)
	want := &Document{Plan: "launch", Summary: "ship v1", Items: []Item{
		{Title: "Phase 1", Description: "setup", Items: []Item{{Title: "Task A", Done: true}}},
		{Title: "Phase 2"},
	}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("FromTree mismatch (-want +got):\n%s", diff)
	}
	if n := doc.Count(); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	// Local IDs are assigned by the target plan on import, so they are
	// dropped on the way back.
	back := doc.Tree()
	for _, n := range nodes {
		n.ID = 0
		for _, c := range n.Children {
			c.ID = 0
		}
	}
	if diff := cmp.Diff(nodes, back); diff != "" {
		t.Errorf("Tree mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	deep := Item{Title: "L1", Items: []Item{{Title: "L2", Items: []Item{
		{Title: "L3", Items: []Item{{Title: "L4", Items: []Item{{Title: "L5"}}}}},
	}}}}
	tests := map[string]struct {
		items []Item
		want  error
	}{
		"valid":       {items: sampleDoc().Items},
		"empty title": {items: []Item{{Title: "  "}}, want: plan.ErrInvalidTitle},
		"separator":   {items: []Item{{Title: "a/b"}}, want: plan.ErrInvalidTitle},
		"too deep":    {items: []Item{deep}, want: plan.ErrMaxDepth},
		"duplicate":   {items: []Item{{Title: "A"}, {Title: " A "}}, want: plan.ErrDuplicateTitle},
		"nested duplicate": {items: []Item{{Title: "A", Items: []Item{{Title: "x"}, {Title: "x"}}}},
			want: plan.ErrDuplicateTitle},
		"same title, different parents": {items: []Item{
			{Title: "A", Items: []Item{{Title: "x"}}},
			{Title: "B", Items: []Item{{Title: "x"}}},
		}},
	}
	for name, tt := range tests {
		err := (&Document{Plan: "p", Items: tt.items}).Validate()
		if tt.want == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", name, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", name, err, tt.want)
		}
	}
}
