package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/tui/components"
	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	p := styles()
	f := a.summary.Forecast
	if f == nil {
		return ""
	}
	if f.Insufficient {
		return components.ContentCard("Forecast", p.near.Render(f.Message), cw)
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: fmt.Sprintf("Next %d %s", len(f.Points), unitOf(f.Timeframe)), Value: cli.FormatMoney(f.Sum())},
		{Label: "Confidence", Value: cli.FormatPercent(f.Confidence), Color: confidenceColor(f.Confidence)},
		{Label: "Strategy", Value: f.Strategy, Note: fmt.Sprintf("%d days of history", f.HistoryDays)},
		overspendMetric(a.summary.Overspending),
	}, cw))
	b.WriteString("\n")

	series := components.Series{}
	for _, pt := range f.Points {
		series.Values = append(series.Values, pt.Predicted)
		series.Upper = append(series.Upper, pt.Upper)
		series.Labels = append(series.Labels, pointLabel(pt))
	}
	inner := components.CardInnerWidth(cw)
	chart := components.BandChart(series, t.Accent, inner, 10)
	legend := p.accent.Render("█ predicted") + p.text.Render("  ") + p.neutral.Render("░ upper bound")
	b.WriteString(components.ContentCard(capitalizeWord(string(f.Timeframe))+" forecast", chart+"\n\n"+legend, cw))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	var pts strings.Builder
	for i, pt := range f.Points {
		if i > 0 {
			pts.WriteString("\n")
		}
		pts.WriteString(p.row(cli.FormatPeriod(pt), 24,
			p.bold.Render(fmt.Sprintf("%10s", cli.FormatMoney(pt.Predicted)))+
				p.dim.Render(fmt.Sprintf("  %s – %s", cli.FormatMoney(pt.Lower), cli.FormatMoney(pt.Upper)))))
	}

	var side strings.Builder
	if o := a.summary.Overspending; o != nil && !o.Insufficient {
		side.WriteString(p.row("Next 7 days", 14, p.text.Render(cli.FormatMoney(o.ProjectedWeekly))))
		side.WriteString("\n")
		side.WriteString(p.row("Threshold", 14, p.text.Render(cli.FormatMoney(o.Threshold))+p.dim.Render(" ("+o.Basis+")")))
		side.WriteString("\n")
		side.WriteString(components.LimitBar(o.ProjectedWeekly, o.Threshold, max(10, components.CardInnerWidth(widths[1])-6)))
		side.WriteString("\n\n")
	}
	if len(f.Drivers) > 0 {
		side.WriteString(p.muted.Render("Driven by"))
		for _, d := range f.Drivers {
			side.WriteString("\n")
			side.WriteString(p.text.Render("  • " + d))
		}
	}
	if f.Message != "" {
		side.WriteString("\n\n")
		side.WriteString(p.near.Render(f.Message))
	}

	b.WriteString(components.CardRow([]string{
		components.ContentCard("Points", pts.String(), widths[0]),
		components.ContentCard("Outlook", strings.TrimSpace(side.String()), widths[1]),
	}))
	return b.String()
}

func overspendMetric(o *model.OverspendCheck) components.Metric {
	m := components.Metric{Label: "This week"}
	switch {
	case o == nil || o.Insufficient:
		m.Value = "n/a"
	case o.WillOverspend:
		m.Value = "Over budget"
		m.Color = theme.Active.Over
		m.Note = cli.FormatMoney(o.ProjectedWeekly-o.Threshold) + " above"
	default:
		m.Value = "On track"
		m.Color = components.ColorForRatio(o.ProjectedWeekly / max(o.Threshold, 0.01))
		m.Note = cli.FormatMoney(o.Threshold-o.ProjectedWeekly) + " to spare"
	}
	return m
}

func confidenceColor(c float64) lipgloss.Color {
	t := theme.Active
	switch {
	case c >= 0.7:
		return t.Under
	case c >= 0.4:
		return t.Near
	default:
		return t.Over
	}
}

func unitOf(tf model.Timeframe) string {
	switch tf {
	case model.Weekly:
		return "weeks"
	case model.Monthly:
		return "months"
	default:
		return "days"
	}
}

// pointLabel is a short x-axis label for a forecast point.
func pointLabel(pt model.ForecastPoint) string {
	switch pt.Timeframe {
	case model.Weekly:
		return pt.WeekStart.Format("1/2")
	case model.Monthly:
		if m, err := time.Parse("2006-01", pt.Month); err == nil {
			return m.Format("Jan")
		}
		return pt.Month
	default:
		return pt.Date.Format("Mon")
	}
}

func capitalizeWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
