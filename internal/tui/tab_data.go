package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
	"github.com/theirongolddev/spendlens/internal/tui/components"
	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

type categoryTotal struct {
	name   string
	total  float64
	active int
}

func categoryTotals(t *model.DailyTable) ([]categoryTotal, float64) {
	var out []categoryTotal
	var grand float64
	for _, c := range model.Categories {
		col := t.Category(c)
		sum := stats.Sum(col)
		if sum <= 0 {
			continue
		}
		out = append(out, categoryTotal{name: c, total: sum, active: t.ActiveDays(model.CategoryColumn(c))})
		grand += sum
	}
	sort.Slice(out, func(i, j int) bool { return out[i].total > out[j].total })
	return out, grand
}

func (a App) renderDataTab(cw int) string {
	p := styles()
	t := a.table
	if t == nil || t.Len() == 0 {
		return components.ContentCard("Data", p.near.Render(fmt.Sprintf(
			"%d transactions loaded; not enough active days to build the daily table.", a.txCount)), cw)
	}

	total := t.Total()
	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Transactions", Value: cli.FormatNumber(int64(a.txCount))},
		{Label: "Days covered", Value: cli.FormatNumber(int64(t.Len())),
			Note: t.First().Format("Jan 02 2006") + " – " + t.Last().Format("Jan 02 2006")},
		{Label: "Active days", Value: cli.FormatNumber(int64(t.ActiveDays(model.ColTotal)))},
		{Label: "Average day", Value: cli.FormatMoney(stats.Mean(total))},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	weeks := pipeline.LastBuckets(pipeline.ResampleWeekly(t), 26)
	series := components.Series{}
	for _, w := range weeks {
		series.Values = append(series.Values, w.Total())
		series.Labels = append(series.Labels, w.Start.Format("1/2"))
	}
	chart := components.BandChart(series, theme.Active.Accent, inner, 8)
	daily := p.row("Last 60 days", 13, components.Sparkline(t.Tail(60).Total(), theme.Active.Neutral))
	b.WriteString(components.ContentCard("Weekly spend", chart+"\n\n"+daily, cw))
	b.WriteString("\n")

	cats, grand := categoryTotals(t)
	labelW := 14
	barW := max(10, inner-labelW-40)
	lines := make([]string, 0, len(cats))
	var activity map[string]model.ActivityProfile
	if a.summary.Patterns != nil {
		activity = a.summary.Patterns.ActivityLevels
	}
	for _, c := range cats {
		level := ""
		if ap, ok := activity[c.name]; ok {
			level = ap.Level
		}
		lines = append(lines, components.ShareBar(c.name, c.total, grand, labelW, barW)+
			p.bold.Render(fmt.Sprintf("  %10s", cli.FormatMoney(c.total)))+
			p.dim.Render(fmt.Sprintf("  %3dd  %s", c.active, level)))
	}
	b.WriteString(components.ContentCard("By category", strings.Join(lines, "\n"), cw))
	return b.String()
}
