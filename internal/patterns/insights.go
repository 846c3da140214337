package patterns

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/spendlens/internal/model"
)

// MaxInsights caps the number of insight strings.
const MaxInsights = 5

const (
	highVolatility      = 1.0
	confidentTrend      = 0.7
	notablePeakWeekdays = 1.2
)

// Insights renders the most important findings as short sentences, in
// priority order: recurrence, recent spike, volatile categories, confident
// trend, peak weekday.
func Insights(f *model.PatternFindings) []string {
	out := []string{}
	add := func(s string) bool {
		if len(out) >= MaxInsights {
			return false
		}
		out = append(out, s)
		return true
	}

	recurrences := append([]model.Recurrence(nil), f.Recurrences...)
	sort.SliceStable(recurrences, func(i, j int) bool { return recurrences[i].Confidence > recurrences[j].Confidence })
	for _, r := range recurrences {
		label := r.Category
		if label == TotalSeries {
			label = "Overall spending"
		}
		if !add(fmt.Sprintf("%s recurs %s (about every %d days, %.0f%% confidence); next expected around %s.",
			label, r.Pattern, r.PeriodDays, r.Confidence*100, r.NextExpected.Format("Jan 2"))) {
			return out
		}
	}

	for i := len(f.Spikes) - 1; i >= 0; i-- {
		s := f.Spikes[i]
		if !s.IsRecent {
			continue
		}
		msg := fmt.Sprintf("Spending spiked on %s to %.0f, %.1fx the usual %.0f",
			s.Date.Format("Jan 2"), s.Amount, safeRatio(s.Amount, s.Baseline), s.Baseline)
		if len(s.ContributingCategories) > 0 {
			msg += ", driven by " + joinNames(s.ContributingCategories)
		}
		msg += "."
		if !add(msg) {
			return out
		}
		break
	}

	var volatile []string
	for name, cv := range f.Volatility {
		if name != TotalSeries && cv > highVolatility {
			volatile = append(volatile, name)
		}
	}
	sort.Strings(volatile)
	if len(volatile) > 0 {
		if !add(fmt.Sprintf("%s spending is highly irregular.", joinNames(volatile))) {
			return out
		}
	}

	for _, key := range []string{"7d", "14d", "30d"} {
		tr, ok := f.Trends[key]
		if !ok || tr.Direction == model.TrendStable || tr.Confidence <= confidentTrend {
			continue
		}
		if !add(fmt.Sprintf("Daily spending is %s over the last %s (%.1f%% per day).",
			tr.Direction, key, tr.Slope*100)) {
			return out
		}
		break
	}

	if w := f.Seasonality.Weekday; w != nil {
		mean := 0.0
		for _, m := range w.Means {
			mean += m / 7
		}
		if peak := w.Means[indexOf(w.PeakDay)]; mean > 0 && peak > notablePeakWeekdays*mean {
			add(fmt.Sprintf("%s is your heaviest spending day (%.0f on average).", w.PeakDay, peak))
		}
	}
	return out
}

func indexOf(day string) int {
	for i, n := range weekdayNames {
		if n == day {
			return i
		}
	}
	return 0
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	out := ""
	for i, n := range names {
		switch {
		case i == 0:
			out = n
		case i == len(names)-1:
			out += " and " + n
		default:
			out += ", " + n
		}
	}
	return out
}
