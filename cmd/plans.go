package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manmal/planz/internal/render"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create, list and delete the plans of a project",
}

func init() {
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty plan in the project",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  runPlanCreate,
	}
	createCmd.Flags().StringP("summary", "s", "", "one-line summary of the plan")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the plans of the project",
		Args:    usageArgs(cobra.NoArgs),
		RunE:    runPlanList,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a plan and all of its nodes",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  runPlanDelete,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary <name> <text>",
		Short: "Replace a plan's summary",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE:  runPlanSummary,
	}

	planCmd.AddCommand(createCmd, listCmd, deleteCmd, summaryCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanCreate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref(args[0])
	if err != nil {
		return err
	}
	summary, _ := cmd.Flags().GetString("summary")
	if err := s.engine.CreatePlan(cmd.Context(), ref, summary); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s\n", ref.Plan)
	return nil
}

func runPlanList(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	plans, err := s.engine.Plans(cmd.Context(), s.project)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if s.format() == render.FormatJSON {
		return render.JSON(w, plans)
	}
	if len(plans) == 0 {
		fmt.Fprintf(w, "No plans in %s\n", s.project)
		return nil
	}
	return render.Plans(w, plans, s.renderOptions(w))
}

func runPlanDelete(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref(args[0])
	if err != nil {
		return err
	}
	if err := s.engine.DeletePlan(cmd.Context(), ref); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", ref.Plan)
	return nil
}

func runPlanSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := s.ref(args[0])
	if err != nil {
		return err
	}
	return s.engine.SetSummary(cmd.Context(), ref, args[1])
}
