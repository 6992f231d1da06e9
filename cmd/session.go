package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manmal/planz/internal/config"
	"github.com/manmal/planz/internal/plan"
	"github.com/manmal/planz/internal/render"
	"github.com/manmal/planz/internal/store"
)

// session is everything a command needs: resolved config, an open store and
// an engine writing through the configured lock file.
type session struct {
	cfg     config.Config
	log     *slog.Logger
	store   *store.Store
	engine  *plan.Engine
	project string
}

// openSession loads configuration and opens the store. Callers must Close it.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, inputError{err}
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	project, err := projectPath(cfg.Project)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cmd.Context(), cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "db", st.Path(), "project", project)

	return &session{
		cfg:     cfg,
		log:     logger,
		store:   st,
		engine:  plan.New(st, plan.WithLogger(logger), plan.WithLockPath(cfg.LockPath())),
		project: project,
	}, nil
}

// Close releases the store.
func (s *session) Close() error {
	return s.store.Close()
}

// ref addresses the plan named by name, falling back to the configured plan.
func (s *session) ref(name string) (plan.Ref, error) {
	if name == "" {
		name = s.cfg.Plan
	}
	if strings.TrimSpace(name) == "" {
		return plan.Ref{}, usagef("no plan selected: use --plan or set PLANZ_PLAN")
	}
	return plan.Ref{Project: s.project, Plan: name}, nil
}

// renderOptions resolves text rendering options for w.
func (s *session) renderOptions(w io.Writer) render.Options {
	return render.Options{Color: render.ColorEnabled(s.cfg.Color, w)}
}

func (s *session) format() render.Format {
	f, err := render.ParseFormat(s.cfg.Format)
	if err != nil {
		return render.FormatText
	}
	return f
}

// projectPath returns the absolute project directory, defaulting to the
// working directory.
func projectPath(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve project: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project: %w", err)
	}
	return filepath.Clean(abs), nil
}

// newLogger builds the stderr logger. --verbose forces debug level.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			level = slog.LevelWarn
		}
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
