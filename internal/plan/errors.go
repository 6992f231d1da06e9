package plan

import (
	"errors"
	"fmt"
)

// Sentinel errors for user mistakes. Every *Error wraps one of these, so
// callers match with errors.Is. Anything else returned by the engine is a
// system error (lock, transaction or storage failure).
var (
	// ErrNotFound indicates a plan or node that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a plan name already taken in the project.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDuplicateTitle indicates a sibling already carries the title.
	ErrDuplicateTitle = errors.New("duplicate title among siblings")
	// ErrMaxDepth indicates the operation would put a node below depth 4.
	ErrMaxDepth = errors.New("maximum depth exceeded")
	// ErrInvalidPath indicates an identifier or destination that cannot be used.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidTitle indicates an empty title or one containing the separator.
	ErrInvalidTitle = errors.New("invalid title")
	// ErrHasChildren indicates an operation that requires a childless node.
	ErrHasChildren = errors.New("node has children")
)

// Error is a user error naming the offending identifier.
type Error struct {
	Ident  string // Identifier, path or title as the caller gave it
	Err    error  // One of the sentinel errors above
	Detail string // Optional human-readable detail
	also   error  // Secondary sentinel, e.g. ErrInvalidPath behind ErrMaxDepth
}

// Error returns the message, quoting the identifier when there is one.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Ident == "" {
		return msg
	}
	return fmt.Sprintf("%q: %s", e.Ident, msg)
}

// Unwrap exposes the sentinel (and secondary sentinel) to errors.Is.
func (e *Error) Unwrap() []error {
	if e.also != nil {
		return []error{e.Err, e.also}
	}
	return []error{e.Err}
}

// IsUserError reports whether err stems from caller input rather than from
// the store being unusable.
func IsUserError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

func userErr(ident string, sentinel error, format string, args ...any) *Error {
	e := &Error{Ident: ident, Err: sentinel}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

// withAlso attaches a secondary sentinel and returns e for chaining.
func (e *Error) withAlso(sentinel error) *Error {
	e.also = sentinel
	return e
}
