package plan

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{userErr("Phase 1/X", ErrNotFound, ""), `"Phase 1/X": not found`},
		{userErr("#9", ErrNotFound, "no node with that id"), `"#9": not found: no node with that id`},
		{userErr("", ErrInvalidPath, "empty identifier"), "invalid path: empty identifier"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", userErr("a/b/c/d/e", ErrMaxDepth, "").withAlso(ErrInvalidPath))
	if !IsUserError(err) {
		t.Error("wrapped *Error should be a user error")
	}
	for _, want := range []error{ErrMaxDepth, ErrInvalidPath} {
		if !errors.Is(err, want) {
			t.Errorf("errors.Is(%v, %v) = false", err, want)
		}
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("unexpected match on ErrNotFound")
	}

	var pe *Error
	if !errors.As(err, &pe) || pe.Ident != "a/b/c/d/e" {
		t.Errorf("errors.As: got %+v", pe)
	}

	if IsUserError(errors.New("disk I/O error")) {
		t.Error("plain error classified as user error")
	}
	if IsUserError(nil) {
		t.Error("nil classified as user error")
	}
}
