package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manmal/planz/internal/plan"
	"github.com/manmal/planz/internal/render"
	"github.com/manmal/planz/internal/watch"
)

func init() {
	showCmd := &cobra.Command{
		Use:   "show [path|#id]",
		Short: "Print the plan, or the subtree below a node",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE:  runShow,
	}
	addTreeFlags(showCmd)

	progressCmd := &cobra.Command{
		Use:   "progress [path|#id]",
		Short: "Count done leaves in the plan or below a node",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE:  runProgress,
	}
	progressCmd.Flags().Bool("ids", false, "prefix items with their #id")

	watchCmd := &cobra.Command{
		Use:   "watch [path|#id]",
		Short: "Re-print the plan whenever the database changes",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE:  runWatch,
	}
	addTreeFlags(watchCmd)

	rootCmd.AddCommand(showCmd, progressCmd, watchCmd)
}

func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("ids", true, "prefix nodes with their #id")
	cmd.Flags().BoolP("descriptions", "D", false, "print descriptions below their node")
}

// treeView is what show and watch print.
type treeView struct {
	ref          plan.Ref
	root         string
	ids          bool
	descriptions bool
}

func newTreeView(cmd *cobra.Command, ref plan.Ref, args []string) treeView {
	v := treeView{ref: ref}
	if len(args) > 0 {
		v.root = args[0]
	}
	v.ids, _ = cmd.Flags().GetBool("ids")
	v.descriptions, _ = cmd.Flags().GetBool("descriptions")
	return v
}

func (s *session) writeTree(ctx context.Context, w io.Writer, v treeView) error {
	var nodes []*plan.TreeNode
	if v.root == "" {
		tree, err := s.engine.Tree(ctx, v.ref, "")
		if err != nil {
			return err
		}
		nodes = tree
	} else {
		sub, err := s.engine.Subtree(ctx, v.ref, v.root)
		if err != nil {
			return err
		}
		nodes = []*plan.TreeNode{sub}
	}

	switch s.format() {
	case render.FormatJSON:
		return render.JSON(w, nodes)
	case render.FormatMarkdown:
		info, err := s.engine.Info(ctx, v.ref)
		if err != nil {
			return err
		}
		return render.Markdown(w, info.Name, info.Summary, nodes)
	}

	if len(nodes) == 0 {
		_, err := fmt.Fprintf(w, "Plan %s is empty\n", v.ref.Plan)
		return err
	}
	opts := s.renderOptions(w)
	opts.ShowIDs = v.ids
	opts.ShowDescriptions = v.descriptions
	return render.Text(w, nodes, opts)
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	return s.writeTree(cmd.Context(), cmd.OutOrStdout(), newTreeView(cmd, ref, args))
}

// progressJSON adds the computed percentage to plan.Progress.
type progressJSON struct {
	plan.Progress
	Percent float64 `json:"percent"`
}

func runProgress(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	root, title := "", ref.Plan
	if len(args) > 0 {
		root, title = args[0], args[0]
	}
	pr, err := s.engine.Progress(cmd.Context(), ref, root)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if s.format() == render.FormatJSON {
		return render.JSON(w, progressJSON{Progress: pr, Percent: pr.Percent()})
	}
	opts := s.renderOptions(w)
	opts.ShowIDs, _ = cmd.Flags().GetBool("ids")
	return render.Progress(w, title, pr, opts)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	view := newTreeView(cmd, ref, args)

	w, err := watch.New(s.cfg.DBPath, watch.WithLogger(s.log))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	clearFirst := render.ColorEnabled(s.cfg.Color, out)
	draw := func() error {
		if clearFirst {
			fmt.Fprint(out, render.ClearScreen)
		}
		err := s.writeTree(ctx, out, view)
		if plan.IsUserError(err) {
			// The watched node may have been removed or renamed meanwhile.
			fmt.Fprintf(out, "%v\n", err)
			return nil
		}
		return err
	}

	if clearFirst {
		fmt.Fprint(out, render.ClearScreen)
	}
	if err := s.writeTree(ctx, out, view); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if err := draw(); err != nil {
				return err
			}
		}
	}
}
