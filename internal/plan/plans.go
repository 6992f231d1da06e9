package plan

import (
	"context"
	"errors"
	"strings"

	"github.com/manmal/planz/internal/store"
)

// PlanInfo describes one plan of a project.
type PlanInfo struct {
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
	Nodes   int    `json:"nodes"`
	Done    int    `json:"done"`
}

// CreatePlan starts an empty plan in the project, registering the project
// on first use.
func (e *Engine) CreatePlan(ctx context.Context, ref Ref, summary string) error {
	name := strings.TrimSpace(ref.Plan)
	if name == "" {
		return userErr("", ErrInvalidPath, "plan name is empty")
	}
	err := e.transact(ctx, "create plan", func(tx *store.Tx) error {
		projectID, err := tx.EnsureProject(ctx, ref.Project)
		if err != nil {
			return err
		}
		if _, err := tx.InsertPlan(ctx, projectID, name, summary); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return userErr(name, ErrAlreadyExists, "plan exists in %s", ref.Project)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.log.Debug("plan created", "project", ref.Project, "plan", name)
	return nil
}

// DeletePlan removes a plan and all of its nodes.
func (e *Engine) DeletePlan(ctx context.Context, ref Ref) error {
	return e.write(ctx, ref, "delete plan", func(tx *store.Tx, p *store.Plan) error {
		return tx.DeletePlan(ctx, p.ID)
	})
}

// SetSummary replaces the plan's free-text summary.
func (e *Engine) SetSummary(ctx context.Context, ref Ref, summary string) error {
	return e.write(ctx, ref, "summary", func(tx *store.Tx, p *store.Plan) error {
		return tx.UpdateSummary(ctx, p.ID, summary)
	})
}

// Plans lists the plans of a project by name.
func (e *Engine) Plans(ctx context.Context, project string) ([]PlanInfo, error) {
	rows, err := e.store.Plans(ctx, project)
	if err != nil {
		return nil, err
	}
	out := make([]PlanInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, PlanInfo{Name: r.Name, Summary: r.Summary, Nodes: r.Nodes, Done: r.Done})
	}
	return out, nil
}

// Info returns the plan addressed by ref with its node counts.
func (e *Engine) Info(ctx context.Context, ref Ref) (PlanInfo, error) {
	p, err := planFor(ctx, e.store.Queries, ref)
	if err != nil {
		return PlanInfo{}, err
	}
	all, err := e.Plans(ctx, ref.Project)
	if err != nil {
		return PlanInfo{}, err
	}
	for _, info := range all {
		if info.Name == p.Name {
			return info, nil
		}
	}
	return PlanInfo{Name: p.Name, Summary: p.Summary}, nil
}
