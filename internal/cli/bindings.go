package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// BindingsMarkdown returns the event table as markdown: index, external name, masking, channel and rule.
func BindingsMarkdown(bindings []domain.Binding) string {
	var sb strings.Builder
	sb.WriteString("| ID | EVENT | MASKED | CHANNEL | RULE |\n")
	sb.WriteString("|---:|---|---|---|---|\n")
	for _, b := range bindings {
		channel, rule := "-", "-"
		if r, ok := domain.RuleFor(b.ID); ok {
			channel = fmt.Sprintf("%d (%s)", r.Channel, r.Channel)
			rule = r.Kind.String()
		}
		fmt.Fprintf(&sb, "| %d | `%s` | %t | %s | %s |\n", b.ID, b.Name, b.Masked, channel, rule)
	}
	return sb.String()
}

// PrintBindings writes the event table. Terminals get it rendered through glamour,
// anything else (pipes, files, buffers) gets the plain markdown.
func PrintBindings(w io.Writer, bindings []domain.Binding) error {
	md := BindingsMarkdown(bindings)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		rendered, err := renderMarkdown(md, glamour.WithAutoStyle())
		if err != nil {
			return err
		}
		md = rendered
	}
	_, err := io.WriteString(w, md)
	return err
}

func renderMarkdown(md string, style glamour.TermRendererOption) (string, error) {
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(120))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render bindings: %w", err)
	}
	return out, nil
}
