package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manmal/planz/internal/plan"
)

func init() {
	addCmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a node, creating missing parents along the path",
		Long: `Adds the node named by the last segment of path. Missing intermediate
titles are created, so "planz add 'Phase 1/Task A'" works on an empty plan.
The new node may sit at most four levels deep.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: runAdd,
	}
	addCmd.Flags().StringP("description", "d", "", "description of the new node")
	addCmd.Flags().String("under", "", "path or #id the new path is relative to")

	removeCmd := &cobra.Command{
		Use:     "remove <path|#id>",
		Aliases: []string{"rm"},
		Short:   "Remove a node",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE:    runRemove,
	}
	removeCmd.Flags().BoolP("force", "f", false, "also remove all descendants")

	renameCmd := &cobra.Command{
		Use:   "rename <path|#id> <title>",
		Short: "Change a node's title",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE:  runRename,
	}

	describeCmd := &cobra.Command{
		Use:   "describe <path|#id> <text>",
		Short: `Replace a node's description ("" clears it)`,
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE:  runDescribe,
	}

	rootCmd.AddCommand(addCmd, removeCmd, renameCmd, describeCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	desc, _ := cmd.Flags().GetString("description")
	under, _ := cmd.Flags().GetString("under")
	n, err := s.engine.Add(cmd.Context(), ref, args[0], plan.AddOptions{Description: desc, Under: under})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", n.ID, n.Title)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	n, err := s.engine.Remove(cmd.Context(), ref, args[0], force)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s\n", n, plural(n, "node", "nodes"))
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	return s.engine.Rename(cmd.Context(), ref, args[0], args[1])
}

func runDescribe(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref("")
	if err != nil {
		return err
	}
	return s.engine.Describe(cmd.Context(), ref, args[0], args[1])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
