package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/manmal/planz/internal/plan"
	"github.com/manmal/planz/internal/planfile"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the plan to a TOML or YAML file",
		Long: `Writes the plan as a document whose format follows the file extension
(.toml, .yaml or .yml). Without a file the document goes to stdout in the
format chosen by --as.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: runExport,
	}
	exportCmd.Flags().String("as", "toml", "format for stdout: toml or yaml")
	exportCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Append the items of a TOML or YAML plan file to the plan",
		Long: `Reads a plan document and appends its items to the plan root in one
transaction. Any invalid item aborts the whole import. The target plan is
--plan if given, otherwise the document's own plan name.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: runImport,
	}
	importCmd.Flags().Bool("create", false, "create the plan first if it does not exist")

	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var format planfile.Format
	if len(args) == 0 {
		as, _ := cmd.Flags().GetString("as")
		f, err := planfile.ParseFormat(as)
		if err != nil {
			return inputError{err}
		}
		format = f
	} else if _, err := planfile.FormatFromPath(args[0]); err != nil {
		return inputError{err}
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
	ctx := cmd.Context()
	info, err := s.engine.Info(ctx, ref)
	if err != nil {
		return err
	}
	nodes, err := s.engine.Tree(ctx, ref, "")
	if err != nil {
		return err
	}
	doc := planfile.FromTree(info.Name, info.Summary, nodes)

	if len(args) == 0 {
		data, err := planfile.Encode(doc, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if err := planfile.Write(args[0], doc, force); err != nil {
		if errors.Is(err, planfile.ErrFileExists) {
			return inputError{err}
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", doc.Count(), plural(doc.Count(), "item", "items"), args[0])
	return nil
}

// loadError treats unreadable content and missing files as user errors and
// leaves other I/O failures as system errors.
func loadError(err error) error {
	if errors.Is(err, planfile.ErrInvalidDocument) || errors.Is(err, planfile.ErrUnknownFormat) ||
		errors.Is(err, fs.ErrNotExist) {
		return inputError{err}
	}
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	doc, err := planfile.Load(args[0])
	if err != nil {
		return loadError(err)
	}
	if err := doc.Validate(); err != nil {
		return inputError{fmt.Errorf("%s: %w", args[0], err)}
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	name := s.cfg.Plan
	if name == "" {
		name = doc.Plan
	}
	ref, err := s.ref(name)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if create, _ := cmd.Flags().GetBool("create"); create {
		err := s.engine.CreatePlan(ctx, ref, doc.Summary)
		if err != nil && !errors.Is(err, plan.ErrAlreadyExists) {
			return err
		}
	}

	n, err := s.engine.Import(ctx, ref, doc.Tree())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s into %s\n", n, plural(n, "node", "nodes"), ref.Plan)
	return nil
}
