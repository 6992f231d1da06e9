package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/manmal/planz/internal/plan"
)

// resetFlags restores every flag of c and its subcommands to its default,
// since rootCmd is shared across runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// cli runs planz commands against a temporary database and project.
type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	return &cli{t: t, base: []string{
		"--db", filepath.Join(dir, "planz.db"),
		"--project", dir,
		"--color", "never",
	}}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(append([]string{}, c.base...), args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("planz %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// Not parallel: executing rootCmd in other tests mutates its command list.
func TestCommandsRegistered(t *testing.T) {
	want := []string{"plan", "add", "remove", "rename", "describe", "move", "refine",
		"done", "undone", "show", "progress", "watch", "export", "import"}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("expected %q subcommand to be registered on rootCmd", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"user error", fmt.Errorf("add: %w", &plan.Error{Ident: "x", Err: plan.ErrDuplicateTitle}), exitUser},
		{"usage error", usagef("no plan selected"), exitUser},
		{"unknown command", errors.New(`unknown command "frobnicate" for "planz"`), exitUser},
		{"system error", errors.New("database is locked"), exitSystem},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPlanWorkflow(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun("plan", "create", "launch", "-s", "ship v1"); out != "Created plan launch\n" {
		t.Errorf("plan create output = %q", out)
	}
	c.mustRun("-p", "launch", "add", "Phase 1/Task A")
	if out := c.mustRun("-p", "launch", "add", "Phase 1/Task B", "-d", "second"); out != "Added #3 Task B\n" {
		t.Errorf("add output = %q", out)
	}
	if out := c.mustRun("-p", "launch", "done", "Phase 1/Task A", "Nope"); out != "Marked 1 node done\n" {
		t.Errorf("done output = %q", out)
	}

	want := "[ ] #1 Phase 1\n" +
		"  [x] #2 Task A\n" +
		"  [ ] #3 Task B\n"
	if out := c.mustRun("-p", "launch", "show"); out != want {
		t.Errorf("show output:\n%s\nwant:\n%s", out, want)
	}

	if out := c.mustRun("-p", "launch", "progress"); out != "launch: 1/2 done (50%)\n  Phase 1  1/2\n" {
		t.Errorf("progress output = %q", out)
	}

	var nodes []plan.TreeNode
	if err := json.Unmarshal([]byte(c.mustRun("-p", "launch", "--format", "json", "show", "#1")), &nodes); err != nil {
		t.Fatalf("show --format json: %v", err)
	}
	if len(nodes) != 1 || len(nodes[0].Children) != 2 || !nodes[0].HasChildren {
		t.Errorf("json subtree = %+v", nodes)
	}

	c.mustRun("-p", "launch", "move", "Phase 1/Task A", "--after", "Phase 1/Task B")
	c.mustRun("-p", "launch", "undone", "#2")
	if out := c.mustRun("-p", "launch", "show", "--ids=false"); out != "[ ] Phase 1\n  [ ] Task B\n  [ ] Task A\n" {
		t.Errorf("show after move = %q", out)
	}

	if out := c.mustRun("plan", "list"); !strings.Contains(out, "launch") || !strings.Contains(out, "ship v1") {
		t.Errorf("plan list output = %q", out)
	}
}

func TestExportImport(t *testing.T) {
	c := newCLI(t)
	file := filepath.Join(t.TempDir(), "launch.yaml")

	c.mustRun("plan", "create", "launch")
	c.mustRun("-p", "launch", "add", "A/B")
	c.mustRun("-p", "launch", "add", "A/C")
	c.mustRun("-p", "launch", "done", "A/B")
	c.mustRun("-p", "launch", "export", file)

	if _, err := c.run("-p", "launch", "export", file); exitCode(err) != exitUser {
		t.Errorf("export over existing file: exit %d (%v), want %d", exitCode(err), err, exitUser)
	}

	if out := c.mustRun("-p", "copy", "import", "--create", file); out != "Imported 3 nodes into copy\n" {
		t.Errorf("import output = %q", out)
	}
	original := c.mustRun("-p", "launch", "show")
	if copied := c.mustRun("-p", "copy", "show"); copied != original {
		t.Errorf("imported plan differs:\n%s\nwant:\n%s", copied, original)
	}

	toml := c.mustRun("-p", "copy", "export", "--as", "toml")
	if !strings.Contains(toml, `plan = 'copy'`) && !strings.Contains(toml, `plan = "copy"`) {
		t.Errorf("toml export missing plan name:\n%s", toml)
	}
}

func TestImportErrorClassification(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	c.mustRun("plan", "create", "launch")

	broken := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(broken, []byte("plan = \"launch\"\n[[items]]\ntitel = \"typo\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// A directory with a plan file name exists but cannot be read as one.
	unreadable := filepath.Join(dir, "folder.yaml")
	if err := os.Mkdir(unreadable, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	tests := []struct {
		name string
		file string
		want int
	}{
		{"malformed document", broken, exitUser},
		{"missing file", filepath.Join(dir, "missing.yaml"), exitUser},
		{"unknown extension", filepath.Join(dir, "plan.json"), exitUser},
		{"read failure", unreadable, exitSystem},
	}
	for _, tt := range tests {
		_, err := c.run("-p", "launch", "import", tt.file)
		if got := exitCode(err); got != tt.want {
			t.Errorf("%s: exit %d (%v), want %d", tt.name, got, err, tt.want)
		}
	}
}

func TestUserErrorsExitOne(t *testing.T) {
	c := newCLI(t)
	c.mustRun("plan", "create", "launch")
	c.mustRun("-p", "launch", "add", "A/B")

	tests := []struct {
		name string
		args []string
	}{
		{"no plan selected", []string{"add", "X"}},
		{"unknown plan", []string{"-p", "nope", "show"}},
		{"remove with children", []string{"-p", "launch", "remove", "A"}},
		{"duplicate title", []string{"-p", "launch", "add", "A/B"}},
		{"too deep", []string{"-p", "launch", "add", "A/B/C/D/E"}},
		{"move without destination", []string{"-p", "launch", "move", "A"}},
		{"missing argument", []string{"-p", "launch", "rename", "A"}},
		{"unknown flag", []string{"-p", "launch", "show", "--bogus"}},
		{"bad format", []string{"-p", "launch", "--format", "xml", "show"}},
	}
	for _, tt := range tests {
		_, err := c.run(tt.args...)
		if err == nil {
			t.Errorf("%s: expected an error", tt.name)
			continue
		}
		if got := exitCode(err); got != exitUser {
			t.Errorf("%s: exit %d (%v), want %d", tt.name, got, err, exitUser)
		}
	}

	if out := c.mustRun("-p", "launch", "remove", "--force", "A"); out != "Removed 2 nodes\n" {
		t.Errorf("forced remove output = %q", out)
	}
}
