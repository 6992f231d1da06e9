package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/manmal/planz/internal/plan"
)

const indent = "  "

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// Text writes nodes as an indented checklist, depth-first in sibling order.
// Indentation is relative to the first node, so subtrees start flush left.
func Text(w io.Writer, nodes []*plan.TreeNode, opts Options) error {
	if len(nodes) == 0 {
		return nil
	}
	p := newPalette(w, opts.Color)
	var b strings.Builder
	writeText(&b, p, nodes, nodes[0].Depth, opts)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeText(b *strings.Builder, p palette, nodes []*plan.TreeNode, base int, opts Options) {
	for _, n := range nodes {
		pad := strings.Repeat(indent, max(n.Depth-base, 0))
		b.WriteString(pad)
		if n.Done {
			b.WriteString(p.paint(p.done, checkbox(true)))
		} else {
			b.WriteString(p.paint(p.pending, checkbox(false)))
		}
		if opts.ShowIDs {
			b.WriteString(" " + p.paint(p.id, fmt.Sprintf("#%d", n.ID)))
		}
		b.WriteString(" " + n.Title + "\n")
		if opts.ShowDescriptions && n.Description != "" {
			for _, line := range strings.Split(strings.TrimRight(n.Description, "\n"), "\n") {
				b.WriteString(pad + indent + indent + p.paint(p.desc, line) + "\n")
			}
		}
		writeText(b, p, n.Children, base, opts)
	}
}

// Progress writes the overall leaf count followed by one line per item.
func Progress(w io.Writer, title string, pr plan.Progress, opts Options) error {
	p := newPalette(w, opts.Color)
	head := fmt.Sprintf("%s: %d/%d done (%.0f%%)", title, pr.Done, pr.Total, pr.Percent())
	if _, err := fmt.Fprintln(w, p.paint(p.header, head)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, it := range pr.Items {
		style := p.pending
		if it.Total > 0 && it.Done == it.Total {
			style = p.done
		}
		name := it.Title
		if opts.ShowIDs {
			name = fmt.Sprintf("#%d %s", it.ID, it.Title)
		}
		fmt.Fprintf(tw, "%s%s\t%s\n", indent, name, p.paint(style, fmt.Sprintf("%d/%d", it.Done, it.Total)))
	}
	return tw.Flush()
}

// Plans writes one line per plan with its done count and summary.
func Plans(w io.Writer, plans []plan.PlanInfo, opts Options) error {
	p := newPalette(w, opts.Color)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, pl := range plans {
		count := fmt.Sprintf("%d/%d", pl.Done, pl.Nodes)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.paint(p.header, pl.Name), count, pl.Summary)
	}
	return tw.Flush()
}
