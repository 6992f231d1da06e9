// Package render turns plan trees, progress and plan listings into text,
// JSON or Markdown output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format selects an output representation.
type Format string

// Output formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "text", "json", "markdown" or "md".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// ClearScreen moves the cursor home and clears the terminal.
const ClearScreen = "\033[H\033[2J"

// Options controls text rendering.
type Options struct {
	Color            bool // Emit ANSI styles
	ShowIDs          bool // Prefix nodes with their #id
	ShowDescriptions bool // Print descriptions below their node
}

// ColorEnabled resolves a color mode ("auto", "always" or "never") for w.
// In auto mode color is used only when w is a terminal and NO_COLOR is unset.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Semantic colors.
var (
	colorSuccess = lipgloss.Color("#00E676")
	colorPending = lipgloss.Color("#FFD700")
	colorMuted   = lipgloss.Color("#8C8C8C")
	colorPrimary = lipgloss.Color("#00BFFF")
)

// palette holds the styles for one output stream. With color off every
// paint is the identity.
type palette struct {
	color   bool
	done    lipgloss.Style
	pending lipgloss.Style
	id      lipgloss.Style
	desc    lipgloss.Style
	header  lipgloss.Style
}

func newPalette(w io.Writer, color bool) palette {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return palette{
		color:   color,
		done:    r.NewStyle().Foreground(colorSuccess),
		pending: r.NewStyle().Foreground(colorPending),
		id:      r.NewStyle().Foreground(colorMuted),
		desc:    r.NewStyle().Foreground(colorMuted).Italic(true),
		header:  r.NewStyle().Foreground(colorPrimary).Bold(true),
	}
}

func (p palette) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
