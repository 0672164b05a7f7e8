package mail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/infrastructure/render"
	"SecretSanta/internal/ports"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Preview writes the visual bodies to an HTML file and prints the textual ones.
type Preview struct {
	out      io.Writer
	htmlPath string
	style    string
	glamour  string
}

var _ ports.Previewer = (*Preview)(nil)

// NewPreview prints to out and writes the combined visual bodies to htmlPath.
// glamourStyle names a glamour style such as "dark" or "notty".
func NewPreview(out io.Writer, htmlPath, style, glamourStyle string) *Preview {
	if out == nil {
		out = os.Stdout
	}
	if glamourStyle == "" {
		glamourStyle = "notty"
	}
	return &Preview{out: out, htmlPath: htmlPath, style: style, glamour: glamourStyle}
}

// Preview renders every notification without sending anything.
func (p *Preview) Preview(_ context.Context, notifications []domain.Notification) error {
	if p.htmlPath != "" {
		bodies := make([]string, 0, len(notifications))
		for _, n := range notifications {
			bodies = append(bodies, n.ImageBody)
		}
		doc := render.Finalize(strings.Join(bodies, "<hr>"), p.style)
		if err := os.WriteFile(p.htmlPath, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write preview %s: %w", p.htmlPath, err)
		}
	}

	separator := separatorStyle.Render(strings.Repeat("-", 80))
	fmt.Fprintf(p.out, "\n%s\n\n", separator)

	for _, n := range notifications {
		md, err := render.Markdown(render.Finalize(n.TextBody, p.style))
		if err != nil {
			return fmt.Errorf("preview %s: %w", n.To, err)
		}
		text, err := glamour.Render(md, p.glamour)
		if err != nil {
			return fmt.Errorf("preview %s: %w", n.To, err)
		}

		fmt.Fprintf(p.out, "%s %s\n", headerStyle.Render("TO:"), n.To)
		fmt.Fprintf(p.out, "%s %s\n\n", headerStyle.Render("SUBJECT:"), n.Subject)
		fmt.Fprintln(p.out, text)
		fmt.Fprintf(p.out, "\n%s\n\n", separator)
	}

	return nil
}
