package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values as one line of block characters.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	b.Grow(len(values) * 3)
	for _, v := range values {
		idx := 1 + int(math.Max(0, v)/peak*7)
		b.WriteRune(eighths[min(idx, len(eighths)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(b.String())
}

// Series is the input to BandChart. Upper is optional; when present, the
// space between a bar and its upper bound is shaded.
type Series struct {
	Values []float64
	Upper  []float64
	Labels []string
}

// BandChart renders a vertical bar chart of s with a money-labelled y axis.
// Falls back to a sparkline when there is no room.
func BandChart(s Series, color lipgloss.Color, width, height int) string {
	n := len(s.Values)
	if n == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(s.Values, color)
	}
	t := theme.Active
	hasBand := len(s.Upper) == n

	peak := 0.0
	for i, v := range s.Values {
		peak = math.Max(peak, v)
		if hasBand {
			peak = math.Max(peak, s.Upper[i])
		}
	}
	if peak == 0 {
		peak = 1
	}

	step := tickStep(peak)
	for int(math.Ceil(peak/step)) > max(2, height/2) {
		step *= 2
	}
	ceiling := math.Ceil(peak/step) * step
	ticks := max(1, int(math.Round(ceiling/step)))
	rowsPerTick := max(2, height/ticks)
	chartH := rowsPerTick * ticks

	labelW := max(5, len(axisLabel(ceiling))+1)
	plotW := max(5, width-labelW-1)

	barW := 6
	if n > 1 {
		barW = min(6, (plotW-(n-1))/n)
	}
	if barW < 1 {
		// More points than columns: keep the most recent ones.
		keep := (plotW + 1) / 2
		s = tail(s, keep, hasBand)
		n = len(s.Values)
		barW = 1
	}
	gap := 1
	if n == 1 {
		gap = 0
	}
	axisLen := n*barW + (n-1)*gap

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	band := lipgloss.NewStyle().Foreground(t.Neutral).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		top := ceiling * float64(row) / float64(chartH)
		bottom := ceiling * float64(row-1) / float64(chartH)

		label := ""
		if row%rowsPerTick == 0 {
			label = axisLabel(step * float64(row/rowsPerTick))
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", labelW, label)))

		for i, v := range s.Values {
			if i > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := max(1, min(8, int((v-bottom)/(top-bottom)*8)))
				b.WriteString(bar.Render(strings.Repeat(string(eighths[idx]), barW)))
			case hasBand && s.Upper[i] > bottom:
				b.WriteString(band.Render(strings.Repeat("░", barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", labelW, "0", strings.Repeat("─", axisLen))))

	if len(s.Labels) == n {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(axis.Render(strings.TrimRight(xLabels(s.Labels, barW, gap, axisLen), " ")))
	}
	return b.String()
}

func tail(s Series, n int, hasBand bool) Series {
	if len(s.Values) <= n {
		return s
	}
	from := len(s.Values) - n
	out := Series{Values: s.Values[from:]}
	if hasBand {
		out.Upper = s.Upper[from:]
	}
	if len(s.Labels) == len(s.Values) {
		out.Labels = s.Labels[from:]
	}
	return out
}

// xLabels places labels under their bars, skipping any that would overlap.
func xLabels(labels []string, barW, gap, axisLen int) string {
	line := []rune(strings.Repeat(" ", axisLen))
	next := 0
	for i, lbl := range labels {
		pos := i * (barW + gap)
		if pos < next {
			continue
		}
		r := []rune(lbl)
		if pos+len(r) > axisLen {
			continue
		}
		copy(line[pos:], r)
		next = pos + len(r) + 1
	}
	return string(line)
}

// tickStep picks a 1, 2 or 5 multiple giving about five ticks.
func tickStep(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	rough := peak / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func axisLabel(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("$%gM", math.Round(v/1e5)/10)
	case v >= 1e3:
		return fmt.Sprintf("$%gk", math.Round(v/1e2)/10)
	case v >= 1:
		return fmt.Sprintf("$%.0f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
