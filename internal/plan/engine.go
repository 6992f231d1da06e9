// Package plan is the plan tree engine: it resolves node identifiers,
// applies structural mutations under the depth and sibling-title invariants,
// cascades done/undone status through the tree, and serializes every write
// behind a cross-process lock and an immediate transaction.
package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/manmal/planz/internal/lock"
	"github.com/manmal/planz/internal/store"
)

// MaxDepth is the deepest level a node may occupy; roots are depth 1.
const MaxDepth = 4

// Ref addresses a plan by the project path it is scoped to and its name.
type Ref struct {
	Project string
	Plan    string
}

// String renders the ref as project:plan for logs and messages.
func (r Ref) String() string {
	return r.Project + ":" + r.Plan
}

// Engine runs plan operations against a store. Mutations are serialized
// across processes; reads are not.
type Engine struct {
	store    *store.Store
	lockPath string
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for committed mutations and skipped items.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithLockPath overrides the lock file, which defaults to the database path
// plus ".lock".
func WithLockPath(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.lockPath = path
		}
	}
}

// New returns an Engine over st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		lockPath: st.Path() + ".lock",
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// transact runs fn under the exclusive write lock inside a BEGIN IMMEDIATE
// transaction. Any error rolls the whole transaction back. The lock is
// released on every path, after commit or rollback.
func (e *Engine) transact(ctx context.Context, op string, fn func(tx *store.Tx) error) error {
	lk := lock.New(e.lockPath)
	if err := lk.Acquire(); err != nil {
		return fmt.Errorf("plan: %s: %w", op, err)
	}
	defer func() {
		if err := lk.Release(); err != nil {
			e.log.Warn("release write lock", "op", op, "err", err)
		}
	}()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("plan: %s: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("plan: %s: %w", op, err)
	}
	return nil
}

// write is transact scoped to an existing plan.
func (e *Engine) write(ctx context.Context, ref Ref, op string, fn func(tx *store.Tx, p *store.Plan) error) error {
	err := e.transact(ctx, op, func(tx *store.Tx) error {
		p, err := planFor(ctx, tx.Queries, ref)
		if err != nil {
			return err
		}
		return fn(tx, p)
	})
	if err != nil {
		return err
	}
	e.log.Debug("mutation committed", "op", op, "project", ref.Project, "plan", ref.Plan)
	return nil
}

func planFor(ctx context.Context, q store.Queries, ref Ref) (*store.Plan, error) {
	name := strings.TrimSpace(ref.Plan)
	if name == "" {
		return nil, userErr("", ErrInvalidPath, "plan name is empty")
	}
	p, err := q.PlanByName(ctx, ref.Project, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, userErr(name, ErrNotFound, "no such plan in %s", ref.Project)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
