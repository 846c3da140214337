package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

// palette holds text styles on the card surface for the active theme.
type palette struct {
	text, muted, dim, accent lipgloss.Style
	under, near, over        lipgloss.Style
	neutral, bold            lipgloss.Style
}

func styles() palette {
	t := theme.Active
	on := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c).Background(t.Surface)
	}
	return palette{
		text:    on(t.TextPrimary),
		muted:   on(t.TextMuted),
		dim:     on(t.TextDim),
		accent:  on(t.Accent).Bold(true),
		under:   on(t.Under),
		near:    on(t.Near),
		over:    on(t.Over).Bold(true),
		neutral: on(t.Neutral),
		bold:    on(t.TextPrimary).Bold(true),
	}
}

// row renders a label padded to w followed by a value.
func (p palette) row(label string, w int, value string) string {
	return p.muted.Render(fmt.Sprintf("%-*s", w, label)) + p.text.Render(" ") + value
}
