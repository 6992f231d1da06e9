package render

import (
	"io"
	"strings"

	"github.com/manmal/planz/internal/plan"
)

// Markdown writes a plan as a heading, its summary and a nested task list.
// Descriptions become indented paragraphs under their item.
func Markdown(w io.Writer, title, summary string, nodes []*plan.TreeNode) error {
	var b strings.Builder
	b.WriteString("# " + title + "\n")
	if s := strings.TrimSpace(summary); s != "" {
		b.WriteString("\n" + s + "\n")
	}
	if len(nodes) > 0 {
		b.WriteString("\n")
		writeMarkdown(&b, nodes, nodes[0].Depth)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdown(b *strings.Builder, nodes []*plan.TreeNode, base int) {
	for _, n := range nodes {
		pad := strings.Repeat(indent, max(n.Depth-base, 0))
		b.WriteString(pad + "- " + checkbox(n.Done) + " " + n.Title + "\n")
		if d := strings.TrimSpace(n.Description); d != "" {
			for _, line := range strings.Split(d, "\n") {
				if line = strings.TrimRight(line, " \t"); line == "" {
					b.WriteString("\n")
					continue
				}
				b.WriteString(pad + indent + line + "\n")
			}
		}
		writeMarkdown(b, n.Children, base)
	}
}
