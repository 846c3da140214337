package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/tui/components"
	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

func (a App) renderPatternsTab(cw int) string {
	p := styles()
	f := a.summary.Patterns
	if f == nil {
		return ""
	}
	if f.Insufficient {
		return components.ContentCard("Patterns",
			p.near.Render(fmt.Sprintf("Not enough history for pattern detection (%d days).", f.DaysAnalyzed)), cw)
	}

	var b strings.Builder
	if len(f.Insights) > 0 {
		lines := make([]string, len(f.Insights))
		for i, in := range f.Insights {
			lines[i] = p.accent.Render("› ") + p.text.Render(in)
		}
		b.WriteString(components.ContentCard("Insights", strings.Join(lines, "\n"), cw))
		b.WriteString("\n")
	}

	widths := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Recurring", recurrenceLines(f.Recurrences), widths[0]),
		components.ContentCard("Spikes", spikeLines(f.Spikes), widths[1]),
	}))
	b.WriteString("\n")
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Trends", trendLines(f.Trends), widths[0]),
		components.ContentCard("Seasonality", seasonalityLines(f.Seasonality), widths[1]),
	}))
	return b.String()
}

func recurrenceLines(rs []model.Recurrence) string {
	p := styles()
	if len(rs) == 0 {
		return p.dim.Render("No recurring spend found")
	}
	lines := make([]string, len(rs))
	for i, r := range rs {
		lines[i] = p.row(r.Category, 14,
			p.neutral.Render(fmt.Sprintf("%-9s", r.Pattern))+
				p.dim.Render(fmt.Sprintf(" %3s  next %s", cli.FormatPercent(r.Confidence), r.NextExpected.Format("Jan 02"))))
	}
	return strings.Join(lines, "\n")
}

func spikeLines(spikes []model.Spike) string {
	p := styles()
	if len(spikes) == 0 {
		return p.dim.Render("No unusual days")
	}
	sorted := append([]model.Spike(nil), spikes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	lines := make([]string, 0, len(sorted))
	for _, s := range sorted {
		date := p.muted.Render(s.Date.Format("Mon Jan 02"))
		if s.IsRecent {
			date = p.over.Render(s.Date.Format("Mon Jan 02"))
		}
		lines = append(lines, date+p.text.Render(" ")+
			p.bold.Render(fmt.Sprintf("%9s", cli.FormatMoney(s.Amount)))+
			p.dim.Render(fmt.Sprintf(" z %.1f  %s", s.ZScore, strings.Join(s.ContributingCategories, ", "))))
	}
	return strings.Join(lines, "\n")
}

func trendLines(trends map[string]model.Trend) string {
	p := styles()
	if len(trends) == 0 {
		return p.dim.Render("No trend data")
	}
	windows := make([]string, 0, len(trends))
	for w := range trends {
		windows = append(windows, w)
	}
	sort.Strings(windows)

	lines := make([]string, len(windows))
	for i, w := range windows {
		tr := trends[w]
		dir := p.muted.Render("→ stable")
		switch tr.Direction {
		case model.TrendIncreasing:
			dir = p.over.Render("↑ increasing")
		case model.TrendDecreasing:
			dir = p.under.Render("↓ decreasing")
		}
		lines[i] = p.row(w, 10, dir+p.dim.Render(fmt.Sprintf("  %+.3f/day  %s", tr.Slope, cli.FormatPercent(tr.Confidence))))
	}
	return strings.Join(lines, "\n")
}

func seasonalityLines(s model.Seasonality) string {
	p := styles()
	var lines []string
	if wd := s.Weekday; wd != nil {
		days := make([]string, 7)
		for i := range days {
			days[i] = cli.FormatDayOfWeek((i + 1) % 7)[:2]
		}
		lines = append(lines,
			p.row("Weekday", 10, components.Sparkline(wd.Means[:], theme.Active.Accent)+p.dim.Render("  "+strings.Join(days, " "))),
			p.row("Peak", 10, p.text.Render(wd.PeakDay)+p.dim.Render(", lowest "+wd.LowDay)),
			p.row("Weekend", 10, p.text.Render(cli.FormatFactor(wd.WeekendRatio))+p.dim.Render(" of weekday spend")),
		)
	}
	if m := s.Month; m != nil {
		lines = append(lines, p.row("Month", 10, p.text.Render(m.Profile)+
			p.dim.Render(fmt.Sprintf("  early %s · mid %s · late %s",
				cli.FormatMoney(m.Early), cli.FormatMoney(m.Mid), cli.FormatMoney(m.Late)))))
	}
	if len(lines) == 0 {
		return p.dim.Render("Not enough data")
	}
	return strings.Join(lines, "\n")
}
