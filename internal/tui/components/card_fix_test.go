package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	assert.Equal(t, []int{34, 33, 33}, LayoutRow(100, 3))
	assert.Nil(t, LayoutRow(100, 0))
}

func TestCardRowPadsShortCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	short := ContentCard("Short", "one", 22)
	tall := ContentCard("Tall", "1\n2\n3\n4\n5", 22)
	require.Less(t, lipgloss.Height(short), lipgloss.Height(tall))

	lines := strings.Split(CardRow([]string{tall, short}), "\n")
	assert.Len(t, lines, lipgloss.Height(tall))
	for i, line := range lines {
		assert.Equal(t, 44, lipgloss.Width(line), "line %d", i)
	}
	// The padding under the short card is styled, not bare terminal cells.
	assert.Contains(t, lines[len(lines)-1], "\x1b[")
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Next 7 days", Value: "$412.50"},
		{Label: "Confidence", Value: "72%", Note: "ensemble"},
	}, 60)
	for _, line := range strings.Split(row, "\n") {
		assert.Equal(t, 60, lipgloss.Width(line))
	}
	assert.Contains(t, row, "$412.50")
}

func TestTabBarHitWidths(t *testing.T) {
	for active := range Tabs {
		total := 0
		for i, tab := range Tabs {
			total += TabVisualWidth(tab, i == active)
		}
		total += len(Tabs) - 1
		bar := RenderTabBar(active, 120)
		assert.Equal(t, 120, lipgloss.Width(bar))
		assert.Contains(t, bar, "Forecast"[1:])
		assert.Less(t, total, 120)
	}
	assert.Equal(t, 1, TabIdxByKey('b'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}

func TestBandChartShape(t *testing.T) {
	s := Series{
		Values: []float64{10, 40, 25},
		Upper:  []float64{20, 60, 30},
		Labels: []string{"Mo", "Tu", "We"},
	}
	out := BandChart(s, theme.Active.Accent, 40, 8)
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 3)
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "░")
	assert.Contains(t, lines[len(lines)-1], "Mo")
}

func TestSparklineNarrowFallback(t *testing.T) {
	out := BandChart(Series{Values: []float64{1, 2, 3}}, theme.Active.Accent, 10, 2)
	assert.Equal(t, 1, lipgloss.Height(out))
	assert.Equal(t, 3, lipgloss.Width(out))
}

func TestColorForRatio(t *testing.T) {
	theme.SetActive("flexoki-dark")
	assert.Equal(t, theme.Active.Under, ColorForRatio(0.5))
	assert.Equal(t, theme.Active.Near, ColorForRatio(0.9))
	assert.Equal(t, theme.Active.Over, ColorForRatio(1.2))
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "$50", axisLabel(50))
	assert.Equal(t, "$1.5k", axisLabel(1500))
	assert.Equal(t, "$2M", axisLabel(2e6))
}
