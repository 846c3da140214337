package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

// ColorForRatio colors a spent/limit ratio: under, near or over.
func ColorForRatio(ratio float64) lipgloss.Color {
	t := theme.Active
	switch {
	case ratio > 1:
		return t.Over
	case ratio >= 0.85:
		return t.Near
	default:
		return t.Under
	}
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}

// ShareBar renders a labelled bar showing what share of total value is.
func ShareBar(label string, value, total float64, labelW, barW int) string {
	t := theme.Active
	share := 0.0
	if total > 0 {
		share = clamp01(value / total)
	}

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		space + bar.ViewAs(share) + space +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", share*100))
}

// LimitBar renders projected spend against a limit, colored by how close the
// projection comes.
func LimitBar(projected, limit float64, barW int) string {
	t := theme.Active
	ratio := 0.0
	if limit > 0 {
		ratio = projected / limit
	}
	color := ColorForRatio(ratio)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")
	return bar.ViewAs(clamp01(ratio)) + space + pctStyle.Render(fmt.Sprintf("%3.0f%%", ratio*100))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
