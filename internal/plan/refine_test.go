package plan

import (
	"context"
	"errors"
	"testing"
)

func TestRefine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, ref := testEngine(t)
	leaf := mustAdd(t, e, ref, "Phase 1/Leaf")

	n, err := e.Refine(ctx, ref, "Phase 1/Leaf", []string{"Step 1", "Step 2"})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if n != 2 {
		t.Errorf("Refine added %d, want 2", n)
	}
	assertOutline(t, e, ref, []string{
		"[ ] #1 Phase 1",
		"  [ ] #2 Leaf",
		"    [ ] #3 Step 1",
		"    [ ] #4 Step 2",
	})

	// The refined node keeps its identity.
	got, err := e.Resolve(ctx, ref, "#2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != leaf.ID || !got.HasChildren {
		t.Errorf("refined node = %+v, want #%d with children", got, leaf.ID)
	}

	if _, err := e.Refine(ctx, ref, "Phase 1/Leaf", []string{"Step 3"}); !errors.Is(err, ErrHasChildren) {
		t.Errorf("second Refine: got %v, want ErrHasChildren", err)
	}
}

// Refine skips bad child paths on purpose and keeps the good ones.
func TestRefineIsBestEffort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, ref := testEngine(t)
	mustAdd(t, e, ref, "A/B")

	n, err := e.Refine(ctx, ref, "A/B", []string{
		"Build/Compile",
		"",
		"Build/Compile",
		"Build/Link",
		"Too/Deep/Here",
		" / ",
		"Test",
	})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if n != 4 {
		t.Errorf("Refine added %d, want 4", n)
	}
	assertOutline(t, e, ref, []string{
		"[ ] #1 A",
		"  [ ] #2 B",
		"    [ ] #3 Build",
		"      [ ] #4 Compile",
		"      [ ] #5 Link",
		"    [ ] #6 Test",
	})
}

func TestRefineLimits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, ref := testEngine(t)
	mustAdd(t, e, ref, "L1/L2/L3/L4")

	if _, err := e.Refine(ctx, ref, "L1/L2/L3/L4", []string{"L5"}); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("Refine at depth 4: got %v, want ErrMaxDepth", err)
	}
	if _, err := e.Refine(ctx, ref, "Missing", []string{"X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Refine missing node: got %v, want ErrNotFound", err)
	}
	n, err := e.Refine(ctx, ref, "#4", nil)
	if err != nil || n != 0 {
		t.Errorf("Refine with no children: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestRefineReopensDoneTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e, ref := testEngine(t)
	mustAdd(t, e, ref, "A/B")
	mustDone(t, e, ref, "A")

	if _, err := e.Refine(ctx, ref, "A/B", []string{"C"}); err != nil {
		t.Fatalf("Refine: %v", err)
	}
	assertOutline(t, e, ref, []string{
		"[ ] #1 A",
		"  [ ] #2 B",
		"    [ ] #3 C",
	})
}
