package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manmal/planz/internal/plan"
)

func init() {
	moveCmd := &cobra.Command{
		Use:   "move <path|#id>",
		Short: "Reparent or reorder a node",
		Long: `Moves a node together with its subtree. Use --to to append it under a new
parent (--to "" moves it to the plan root) or --after to place it right
after one of its siblings. The node keeps its id and status.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: runMove,
	}
	moveCmd.Flags().String("to", "", "new parent path or #id (\"\" for the plan root)")
	moveCmd.Flags().String("after", "", "sibling path or #id to place the node after")

	refineCmd := &cobra.Command{
		Use:   "refine <path|#id> <child>...",
		Short: "Break a leaf into children",
		Long: `Adds children below a node that has none yet. Each child may be a path
relative to the node. Children that would be too deep, have an invalid title
or already exist are skipped; the number actually added is reported.`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: runRefine,
	}

	doneCmd := &cobra.Command{
		Use:   "done <path|#id>...",
		Short: "Mark nodes done, with their subtrees",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE:  runMark(true),
	}
	undoneCmd := &cobra.Command{
		Use:   "undone <path|#id>...",
		Short: "Mark nodes undone, reopening their ancestors",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE:  runMark(false),
	}

	rootCmd.AddCommand(moveCmd, refineCmd, doneCmd, undoneCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	toSet, afterSet := cmd.Flags().Changed("to"), cmd.Flags().Changed("after")
	if toSet == afterSet {
		return usagef("move needs exactly one of --to or --after")
	}
	var dest plan.Destination
	if toSet {
		to, _ := cmd.Flags().GetString("to")
		dest = plan.ToParent(to)
	} else {
		after, _ := cmd.Flags().GetString("after")
		dest = plan.AfterSibling(after)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	return s.engine.Move(cmd.Context(), ref, args[0], dest)
}

func runRefine(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	n, err := s.engine.Refine(cmd.Context(), ref, args[0], args[1:])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s under %s\n", n, plural(n, "node", "nodes"), args[0])
	return nil
}

func runMark(done bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ref, err := s.ref("")
		if err != nil {
			return err
		}
		mark, state := s.engine.Done, "done"
		if !done {
			mark, state = s.engine.Undone, "undone"
		}
		n, err := mark(cmd.Context(), ref, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %d %s %s\n", n, plural(n, "node", "nodes"), state)
		if skipped := len(args) - n; skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %d unknown %s\n", skipped, plural(skipped, "identifier", "identifiers"))
		}
		return nil
	}
}
