package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/tui/components"
	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

func (a App) renderBudgetTab(cw int) string {
	p := styles()
	res := a.summary.Budget
	if res == nil {
		return ""
	}

	period := capitalizeWord(string(res.Period))
	if res.TargetMonth != "" {
		period += " · " + res.TargetMonth
	}
	metrics := []components.Metric{
		{Label: "Total budget", Value: cli.FormatMoney(res.Total), Note: period},
		{Label: "Approach", Value: res.Methodology.Approach},
		{Label: "Data quality", Value: res.Methodology.DataQuality, Note: fmt.Sprintf("%d days of data", res.Methodology.DaysOfData)},
	}
	if s := res.Savings; s != nil {
		m := components.Metric{Label: "Savings", Value: cli.FormatMoney(s.Applied), Note: "of " + cli.FormatMoney(s.Requested)}
		if !s.Achievable {
			m.Color = theme.Active.Over
		}
		metrics = append(metrics, m)
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	labelW := 14
	for _, l := range res.Lines {
		labelW = max(labelW, min(24, len(l.Category)))
	}
	barW := max(10, inner-labelW-60)

	lines := make([]string, 0, len(res.Lines)+1)
	lines = append(lines, p.dim.Render(fmt.Sprintf("%-*s %*s  %10s %9s  %-12s %6s %5s",
		labelW, "Category", barW+5, "Share", "Amount", "Floor", "Activity", "Factor", "Conf")))
	for _, l := range res.Lines {
		amount := p.bold.Render(fmt.Sprintf("%10s", cli.FormatMoney(l.Amount)))
		if l.Amount <= l.Floor && l.Floor > 0 {
			amount = p.near.Render(fmt.Sprintf("%10s", cli.FormatMoney(l.Amount)))
		}
		lines = append(lines,
			components.ShareBar(l.Category, l.Amount, res.Total, labelW, barW)+
				p.text.Render("  ")+amount+
				p.dim.Render(fmt.Sprintf(" %9s  ", cli.FormatMoney(l.Floor)))+
				p.muted.Render(fmt.Sprintf("%-12s %6s %5s", l.ActivityLevel, cli.FormatFactor(l.AdjustmentFactor), cli.FormatPercent(l.Confidence))))
	}
	b.WriteString(components.ContentCard(period+" budget", strings.Join(lines, "\n"), cw))

	if side := a.budgetNotes(); side != "" {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Notes", side, cw))
	}
	return b.String()
}

func (a App) budgetNotes() string {
	p := styles()
	res := a.summary.Budget

	var b strings.Builder
	if s := res.Savings; s != nil {
		if !s.Achievable {
			b.WriteString(p.over.Render(fmt.Sprintf("Goal exceeds headroom: at most %s can be saved without cutting below floors.",
				cli.FormatMoney(s.Headroom))))
			b.WriteString("\n")
		}
		cats := make([]string, 0, len(s.Cuts))
		for c := range s.Cuts {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool { return s.Cuts[cats[i]] > s.Cuts[cats[j]] })
		for _, c := range cats {
			if s.Cuts[c] <= 0 {
				continue
			}
			b.WriteString(p.row(c, 18, p.under.Render("-"+cli.FormatMoney(s.Cuts[c]))))
			b.WriteString("\n")
		}
	}
	for _, n := range res.Methodology.Notes {
		b.WriteString(p.muted.Render("• " + n))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
