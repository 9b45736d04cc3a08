// Package render turns audit output into terminal text and sanitized HTML.
package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"photoaudit/internal/audit"
	"photoaudit/internal/exif"
)

// Slate palette shared by the terminal and browser views.
var (
	Background = lipgloss.Color("#020617")
	Panel      = lipgloss.Color("#0f172a")
	Border     = lipgloss.Color("#1e293b")
	Foreground = lipgloss.Color("#f8fafc")
	Muted      = lipgloss.Color("#94a3b8")
	Faint      = lipgloss.Color("#64748b")
	Danger     = lipgloss.Color("#e53935")
	Good       = lipgloss.Color("#8BC34A")
)

// Styles groups the lipgloss styles used by Terminal.
type Styles struct {
	Title    lipgloss.Style
	Caption  lipgloss.Style
	Label    lipgloss.Style
	Key      lipgloss.Style
	Value    lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Footer   lipgloss.Style
	Metadata lipgloss.Style
}

// DefaultStyles returns the slate styles.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Foreground),
		Caption:  lipgloss.NewStyle().Foreground(Muted),
		Label:    lipgloss.NewStyle().Foreground(Faint).Transform(strings.ToUpper),
		Key:      lipgloss.NewStyle().Foreground(Muted),
		Value:    lipgloss.NewStyle().Foreground(Foreground),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(Danger),
		Info:     lipgloss.NewStyle().Italic(true).Foreground(Muted),
		Footer:   lipgloss.NewStyle().Foreground(Faint),
		Metadata: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(Border).Padding(0, 1),
	}
}

// Terminal renders reports for a terminal.
type Terminal struct {
	md     *glamour.TermRenderer
	styles Styles
	plain  bool
}

// NewTerminal creates a renderer wrapping markdown at width. With plain set,
// output carries no ANSI styling.
func NewTerminal(width int, plain bool) (*Terminal, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch {
	case plain:
		opts = append(opts, glamour.WithStandardStyle("notty"))
	case DarkBackground():
		opts = append(opts, glamour.WithStandardStyle("dark"))
	default:
		opts = append(opts, glamour.WithStandardStyle("light"))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	styles := DefaultStyles()
	if plain {
		styles = Styles{}
	}
	return &Terminal{md: r, styles: styles, plain: plain}, nil
}

// DarkBackground guesses the terminal background from COLORFGBG, which is
// usually "foreground;background".
func DarkBackground() bool {
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	if len(parts) < 2 {
		return true
	}
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return true
	}
	return (bg >= 0 && bg <= 6) || bg == 8
}

// Markdown renders backend text.
func (t *Terminal) Markdown(text string) (string, error) {
	out, err := t.md.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Metadata renders the metadata panel, one sorted line per entry.
func (t *Terminal) Metadata(md exif.Metadata) string {
	var b strings.Builder
	b.WriteString(t.styles.Label.Render("Hardware_EXIF_Data"))
	b.WriteByte('\n')
	for _, k := range md.Keys() {
		b.WriteString(t.styles.Key.Render(k + ":"))
		b.WriteByte(' ')
		b.WriteString(t.styles.Value.Render(exif.FormatValue(md[k])))
		b.WriteByte('\n')
	}
	return t.styles.Metadata.Render(strings.TrimRight(b.String(), "\n"))
}

// Result renders a success as markdown and a failure as an error line.
func (t *Terminal) Result(res audit.Result) string {
	if !res.OK {
		return t.styles.Error.Render(ExecutionError(res.Reason))
	}
	out, err := t.Markdown(res.Report)
	if err != nil {
		return res.Report
	}
	return out
}

// Report renders a full audit report.
func (t *Terminal) Report(rep audit.Report, showMetadata bool) string {
	var b strings.Builder
	b.WriteString(t.styles.Title.Render("Photograph Quality Agent"))
	b.WriteByte('\n')
	b.WriteString(t.styles.Caption.Render(rep.Name))
	b.WriteString("\n\n")
	if showMetadata {
		b.WriteString(t.Metadata(rep.Metadata))
		b.WriteString("\n\n")
	}
	b.WriteString(t.Result(rep.Result))
	b.WriteByte('\n')
	b.WriteString(t.styles.Footer.Render(fmt.Sprintf("completed in %s", rep.Duration.Round(1e6))))
	b.WriteByte('\n')
	return b.String()
}

// ExecutionError formats a failure reason for display.
func ExecutionError(reason string) string {
	return "Execution Error: " + reason
}
