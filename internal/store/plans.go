package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProjectByPath returns the project registered for path.
func (q Queries) ProjectByPath(ctx context.Context, path string) (*Project, error) {
	var p Project
	err := q.q.QueryRowContext(ctx,
		"SELECT id, path FROM projects WHERE path = ?", path).Scan(&p.ID, &p.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project %q: %w", path, err)
	}
	return &p, nil
}

// PlanByName returns the plan called name inside the project at projectPath.
func (q Queries) PlanByName(ctx context.Context, projectPath, name string) (*Plan, error) {
	const query = `
		SELECT pl.id, pl.project_id, pl.name, pl.summary, pl.next_local_id
		FROM plans pl JOIN projects pr ON pr.id = pl.project_id
		WHERE pr.path = ? AND pl.name = ?`
	var p Plan
	err := q.q.QueryRowContext(ctx, query, projectPath, name).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.Summary, &p.NextLocalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get plan %q: %w", name, err)
	}
	return &p, nil
}

// Plans lists the plans of the project at projectPath by name, with node
// and done counts. An unknown project has no plans.
func (q Queries) Plans(ctx context.Context, projectPath string) ([]PlanSummary, error) {
	const query = `
		SELECT pl.id, pl.project_id, pl.name, pl.summary, pl.next_local_id,
		       COUNT(n.id), COALESCE(SUM(CASE WHEN n.done THEN 1 ELSE 0 END), 0)
		FROM plans pl
		JOIN projects pr ON pr.id = pl.project_id
		LEFT JOIN nodes n ON n.plan_id = pl.id
		WHERE pr.path = ?
		GROUP BY pl.id
		ORDER BY pl.name`
	rows, err := q.q.QueryContext(ctx, query, projectPath)
	if err != nil {
		return nil, fmt.Errorf("store: list plans: %w", err)
	}
	defer rows.Close()

	var plans []PlanSummary
	for rows.Next() {
		var s PlanSummary
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &s.Summary, &s.NextLocalID, &s.Nodes, &s.Done); err != nil {
			return nil, fmt.Errorf("store: scan plan: %w", err)
		}
		plans = append(plans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate plans: %w", err)
	}
	return plans, nil
}

// EnsureProject returns the ID of the project at path, creating it on first
// use.
func (t *Tx) EnsureProject(ctx context.Context, path string) (int64, error) {
	if _, err := t.q.ExecContext(ctx,
		"INSERT INTO projects (path) VALUES (?) ON CONFLICT(path) DO NOTHING", path); err != nil {
		return 0, fmt.Errorf("store: ensure project %q: %w", path, err)
	}
	p, err := t.ProjectByPath(ctx, path)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// InsertPlan creates a plan. It returns ErrConflict when the project already
// has a plan with that name.
func (t *Tx) InsertPlan(ctx context.Context, projectID int64, name, summary string) (*Plan, error) {
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO plans (project_id, name, summary) VALUES (?, ?, ?)", projectID, name, summary)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert plan %q: %w", name, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("store: insert plan %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: last insert id: %w", err)
	}
	return &Plan{ID: id, ProjectID: projectID, Name: name, Summary: summary, NextLocalID: 1}, nil
}

// DeletePlan deletes a plan and every node it owns.
func (t *Tx) DeletePlan(ctx context.Context, planID int64) error {
	if _, err := t.q.ExecContext(ctx, "DELETE FROM nodes WHERE plan_id = ?", planID); err != nil {
		return fmt.Errorf("store: delete nodes of plan %d: %w", planID, err)
	}
	res, err := t.q.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", planID)
	if err != nil {
		return fmt.Errorf("store: delete plan %d: %w", planID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSummary replaces a plan's summary.
func (t *Tx) UpdateSummary(ctx context.Context, planID int64, summary string) error {
	res, err := t.q.ExecContext(ctx, "UPDATE plans SET summary = ? WHERE id = ?", summary, planID)
	if err != nil {
		return fmt.Errorf("store: update summary of plan %d: %w", planID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
