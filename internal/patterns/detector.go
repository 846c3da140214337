// Package patterns extracts recurring, anomalous, volatile, trending and
// seasonal structure from a daily feature table.
package patterns

import (
	"github.com/theirongolddev/spendlens/internal/model"
)

// MinDays is the global minimum table length for any analysis.
const MinDays = 14

// TotalSeries labels the all-category series in findings.
const TotalSeries = "total"

// Detect runs every sub-analysis whose precondition holds on the last
// lookbackDays rows of the table (0 means all rows). It never fails: short
// tables produce an empty result flagged Insufficient.
func Detect(table *model.DailyTable, lookbackDays int) *model.PatternFindings {
	if lookbackDays > 0 {
		table = table.Tail(lookbackDays)
	}

	f := &model.PatternFindings{
		Recurrences:    []model.Recurrence{},
		Spikes:         []model.Spike{},
		Volatility:     map[string]float64{},
		ActivityLevels: map[string]model.ActivityProfile{},
		Trends:         map[string]model.Trend{},
		Insights:       []string{},
		DaysAnalyzed:   table.Len(),
	}
	if table.Len() < MinDays {
		f.Insufficient = true
		return f
	}

	for _, name := range analyzedSeries() {
		f.Recurrences = append(f.Recurrences, DetectRecurrence(table, name)...)
	}
	f.Spikes = DetectSpikes(table)
	f.Volatility = Volatility(table)
	f.ActivityLevels = ActivityLevels(table)
	f.Trends = Trends(table.Total())
	f.Seasonality = DetectSeasonality(table)
	f.Insights = Insights(f)
	return f
}

// analyzedSeries returns total followed by the key categories.
func analyzedSeries() []string {
	return append([]string{TotalSeries}, model.KeyCategories...)
}

func seriesOf(table *model.DailyTable, name string) []float64 {
	if name == TotalSeries {
		return table.Total()
	}
	return table.Category(name)
}
