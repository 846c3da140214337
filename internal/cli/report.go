package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/spendlens/internal/model"
)

// RenderForecast renders forecast points with their interval.
func RenderForecast(res *model.ForecastResult) string {
	var b strings.Builder
	if res.Insufficient {
		b.WriteString(Warn(res.Message))
		return b.String()
	}

	t := Table{
		Title:   fmt.Sprintf("%s forecast (%s)", capitalize(string(res.Timeframe)), res.Strategy),
		Headers: []string{"Period", "Predicted", "Low", "High"},
	}
	values := make([]float64, 0, len(res.Points))
	for _, p := range res.Points {
		t.Rows = append(t.Rows, []string{FormatPeriod(p), FormatMoney(p.Predicted), FormatMoney(p.Lower), FormatMoney(p.Upper)})
		values = append(values, p.Predicted)
	}
	t.Rows = append(t.Rows, Separator, []string{"Total", FormatMoney(res.Sum()), "", ""})
	b.WriteString(RenderTable(t))

	b.WriteString(KeyValue("Trend", RenderSparkline(values)))
	b.WriteString(KeyValue("Confidence", FormatPercent(res.Confidence)))
	b.WriteString(KeyValue("History", fmt.Sprintf("%d days", res.HistoryDays)))
	if len(res.Drivers) > 0 {
		b.WriteString(KeyValue("Drivers", strings.Join(res.Drivers, ", ")))
	}
	if res.Message != "" {
		b.WriteString(Warn(res.Message))
	}
	return b.String()
}

// RenderBudget renders budget lines and any savings outcome.
func RenderBudget(res *model.BudgetResult) string {
	var b strings.Builder
	title := fmt.Sprintf("%s budget", capitalize(string(res.Period)))
	if res.TargetMonth != "" {
		title += " for " + res.TargetMonth
	}
	t := Table{
		Title:   title,
		Headers: []string{"Category", "Amount", "Floor", "Activity", "Factor", "Conf", ""},
	}
	var peak float64
	for _, l := range res.Lines {
		peak = max(peak, l.Amount)
	}
	for _, l := range res.Lines {
		t.Rows = append(t.Rows, []string{
			l.Category,
			FormatMoney(l.Amount),
			FormatMoney(l.Floor),
			l.ActivityLevel,
			FormatFactor(l.AdjustmentFactor),
			FormatPercent(l.Confidence),
			RenderBar(l.Amount, peak, 12),
		})
	}
	t.Rows = append(t.Rows, Separator, []string{"Total", FormatMoney(res.Total)})
	b.WriteString(RenderTable(t))

	m := res.Methodology
	b.WriteString(KeyValue("Approach", m.Approach))
	b.WriteString(KeyValue("Data quality", fmt.Sprintf("%s (%d days)", m.DataQuality, m.DaysOfData)))
	for _, n := range m.Notes {
		b.WriteString(KeyValue("", mutedStyle.Render(n)))
	}

	if s := res.Savings; s != nil {
		b.WriteString("\n")
		b.WriteString(KeyValue("Savings goal", FormatMoney(s.Requested)))
		b.WriteString(KeyValue("Applied", FormatMoney(s.Applied)))
		b.WriteString(KeyValue("Headroom", FormatMoney(s.Headroom)))
		if !s.Achievable {
			b.WriteString(Warn("Goal exceeds what can be cut without breaching category floors"))
		}
		cats := make([]string, 0, len(s.Cuts))
		for c := range s.Cuts {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			if s.Cuts[c] > 0 {
				b.WriteString(KeyValue("  cut "+c, FormatMoney(s.Cuts[c])))
			}
		}
	}
	return b.String()
}

// RenderPatterns renders detector findings.
func RenderPatterns(f *model.PatternFindings) string {
	var b strings.Builder
	if f.Insufficient {
		b.WriteString(Warn(fmt.Sprintf("Not enough history for pattern detection (%d days)", f.DaysAnalyzed)))
		return b.String()
	}

	if len(f.Recurrences) > 0 {
		t := Table{Title: "Recurring spend", Headers: []string{"Category", "Pattern", "Every", "Conf", "Next"}}
		for _, r := range f.Recurrences {
			t.Rows = append(t.Rows, []string{
				r.Category, r.Pattern, fmt.Sprintf("%dd", r.PeriodDays),
				FormatPercent(r.Confidence), r.NextExpected.Format("Jan 02"),
			})
		}
		b.WriteString(RenderTable(t))
		b.WriteString("\n")
	}

	if len(f.Spikes) > 0 {
		t := Table{Title: "Spikes", Headers: []string{"Date", "Amount", "Baseline", "z", "Drivers"}}
		for _, s := range f.Spikes {
			date := s.Date.Format("2006-01-02")
			if s.IsRecent {
				date = alertStyle.Render(date)
			}
			t.Rows = append(t.Rows, []string{
				date, FormatMoney(s.Amount), FormatMoney(s.Baseline),
				fmt.Sprintf("%.1f", s.ZScore), strings.Join(s.ContributingCategories, ", "),
			})
		}
		b.WriteString(RenderTable(t))
		b.WriteString("\n")
	}

	cats := make([]string, 0, len(f.ActivityLevels))
	for c := range f.ActivityLevels {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	if len(cats) > 0 {
		t := Table{Title: "Activity", Headers: []string{"Category", "Level", "Active", "Volatility"}}
		for _, c := range cats {
			a := f.ActivityLevels[c]
			t.Rows = append(t.Rows, []string{c, a.Level, FormatPercent(a.Rate), fmt.Sprintf("%.2f", f.Volatility[c])})
		}
		b.WriteString(RenderTable(t))
		b.WriteString("\n")
	}

	windows := make([]string, 0, len(f.Trends))
	for w := range f.Trends {
		windows = append(windows, w)
	}
	sort.Strings(windows)
	for _, w := range windows {
		tr := f.Trends[w]
		b.WriteString(KeyValue("Trend "+w, fmt.Sprintf("%s (%+.3f, %s)", tr.Direction, tr.Slope, FormatPercent(tr.Confidence))))
	}
	if wd := f.Seasonality.Weekday; wd != nil {
		b.WriteString(KeyValue("Peak day", wd.PeakDay))
		b.WriteString(KeyValue("Weekend ratio", fmt.Sprintf("%.2f", wd.WeekendRatio)))
	}
	if m := f.Seasonality.Month; m != nil {
		b.WriteString(KeyValue("Month profile", m.Profile))
	}

	if len(f.Insights) > 0 {
		b.WriteString("\n  " + headerStyle.Render("Insights") + "\n")
		for _, in := range f.Insights {
			b.WriteString("  • " + in + "\n")
		}
	}
	return b.String()
}

// RenderOverspend renders a one-week overspending check.
func RenderOverspend(c *model.OverspendCheck) string {
	var b strings.Builder
	if c.Insufficient {
		b.WriteString(Warn("Not enough history to project next week"))
		return b.String()
	}
	verdict := moneyStyle.Render("on track")
	if c.WillOverspend {
		verdict = alertStyle.Render("likely to overspend")
	}
	b.WriteString(KeyValue("Next 7 days", FormatMoney(c.ProjectedWeekly)))
	b.WriteString(KeyValue("Threshold", fmt.Sprintf("%s (%s)", FormatMoney(c.Threshold), c.Basis)))
	b.WriteString(KeyValue("Verdict", verdict))
	b.WriteString(KeyValue("Confidence", FormatPercent(c.Confidence)))
	return b.String()
}

// RenderBacktest renders held-out accuracy.
func RenderBacktest(r *model.BacktestReport) string {
	var b strings.Builder
	t := Table{Title: "Backtest (" + r.Strategy + ")", Headers: []string{"Week", "Actual", "Predicted", "Error"}}
	for _, p := range r.Weekly {
		t.Rows = append(t.Rows, []string{
			p.Start.Format("Jan 02"), FormatMoney(p.Actual), FormatMoney(p.Predicted), FormatDelta(p.Predicted, p.Actual),
		})
	}
	b.WriteString(RenderTable(t))
	b.WriteString(KeyValue("Daily MAE", FormatMoney(r.DailyMAE)))
	b.WriteString(KeyValue("Days over/under", fmt.Sprintf("%d / %d", r.DailyOver, r.DailyUnder)))
	b.WriteString(KeyValue("Weeks over/under", fmt.Sprintf("%d / %d", r.WeeklyOver, r.WeeklyUnder)))
	return b.String()
}

// RenderModel renders a trained ensemble summary.
func RenderModel(s *model.ModelSummary) string {
	var b strings.Builder
	b.WriteString(KeyValue("User", s.UserID))
	b.WriteString(KeyValue("Fingerprint", s.Fingerprint))
	b.WriteString(KeyValue("Trained", s.TrainedAt.Format("2006-01-02 15:04")))
	b.WriteString(KeyValue("Data through", s.LastDate.Format("2006-01-02")))
	b.WriteString(KeyValue("Trees / features", fmt.Sprintf("%d / %d", s.Trees, s.Features)))
	b.WriteString(KeyValue("Rows", FormatNumber(int64(s.Metrics.TrainRows))))
	b.WriteString(KeyValue("CV MAE", fmt.Sprintf("%s over %d folds", FormatMoney(s.Metrics.CVMAE), s.Metrics.Folds)))
	b.WriteString(KeyValue("Confidence", FormatPercent(s.Confidence)))

	if len(s.Importance) > 0 {
		b.WriteString("\n")
		t := Table{Title: "Top features", Headers: []string{"Feature", "Importance", ""}}
		peak := s.Importance[0].Importance
		for _, fi := range s.Importance {
			t.Rows = append(t.Rows, []string{fi.Feature, fmt.Sprintf("%.3f", fi.Importance), RenderBar(fi.Importance, peak, 16)})
		}
		b.WriteString(RenderTable(t))
	}
	return b.String()
}

// RenderFeatures summarizes a feature table: one row per column with its
// mean and latest value.
func RenderFeatures(t *model.DailyTable) string {
	if t.Len() == 0 {
		return Warn("No transactions in range")
	}
	tbl := Table{
		Title:   fmt.Sprintf("Features %s to %s (%d days)", t.First().Format("2006-01-02"), t.Last().Format("2006-01-02"), t.Len()),
		Headers: []string{"Column", "Mean", "Last"},
	}
	for _, c := range t.SortedColumns() {
		col := t.Col(c)
		var sum float64
		for _, v := range col {
			sum += v
		}
		tbl.Rows = append(tbl.Rows, []string{c, fmt.Sprintf("%.3f", sum/float64(len(col))), fmt.Sprintf("%.3f", col[len(col)-1])})
	}
	return RenderTable(tbl)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
