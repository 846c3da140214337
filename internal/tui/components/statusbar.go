package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

// Status is what the bottom bar reports.
type Status struct {
	User      string
	Strategy  string
	DataAge   string
	Computing bool
	Error     string
}

// RenderStatusBar renders the bottom status bar across width columns.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	bad := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [s]ettings  [q]uit")

	var parts []string
	switch {
	case s.Error != "":
		parts = append(parts, bad.Render(s.Error))
	case s.Computing:
		parts = append(parts, accent.Render("computing…"))
	}
	if s.Strategy != "" {
		parts = append(parts, base.Render(s.Strategy))
	}
	if s.User != "" {
		parts = append(parts, accent.Render(s.User))
	}
	if s.DataAge != "" {
		parts = append(parts, base.Render(s.DataAge))
	}
	right := strings.Join(parts, base.Render(" │ ")) + base.Render(" ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + base.Render(strings.Repeat(" ", gap)) + right
}
