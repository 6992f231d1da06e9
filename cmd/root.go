// Package cmd provides the planz command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manmal/planz/internal/plan"
)

// Exit statuses.
const (
	exitOK     = 0
	exitUser   = 1 // Bad input: unknown node, duplicate title, bad flags
	exitSystem = 2 // Store, lock or I/O failure
)

var rootCmd = &cobra.Command{
	Use:   "planz",
	Short: "Hierarchical plans for projects, from phases down to details",
	Long: `planz keeps per-project plans as trees of at most four levels. Nodes are
addressed by slash-separated title paths ("Phase 1/Task A") or by their
stable per-plan id ("#12"). Marking a node done completes its subtree and
every ancestor whose children are all done; marking it undone reopens the
chain above it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with 1 for user errors and 2 for
// system errors.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "planz:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .planz.yaml)")
	pf.BoolP("verbose", "v", false, "log every committed change")
	pf.String("db", "", "database path (default $XDG_DATA_HOME/planz/planz.db)")
	pf.StringP("plan", "p", "", "plan to operate on (or PLANZ_PLAN env)")
	pf.String("project", "", "project directory the plan belongs to (default current directory)")
	pf.String("format", "", "output format: text, json or markdown")
	pf.String("color", "", "color output: auto, always or never")

	for _, key := range []string{"verbose", "db", "plan", "project", "format", "color"} {
		_ = viper.BindPFlag(key, pf.Lookup(key))
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return inputError{err}
	})
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".planz")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("PLANZ")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// inputError marks an error caused by how planz was invoked rather than by
// the store.
type inputError struct {
	err error
}

func (e inputError) Error() string { return e.err.Error() }
func (e inputError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return inputError{fmt.Errorf(format, args...)}
}

// usageArgs wraps a cobra argument validator so its failures count as user
// errors.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return inputError{err}
		}
		return nil
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ie inputError
	if plan.IsUserError(err) || errors.As(err, &ie) || strings.HasPrefix(err.Error(), "unknown command") {
		return exitUser
	}
	return exitSystem
}
