package patterns

import (
	"math"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

const (
	volatilityMinRate = 0.1
	clusterThreshold  = 0.3
)

// Volatility returns the coefficient of variation of total and of each key
// category active on more than 10% of days.
func Volatility(table *model.DailyTable) map[string]float64 {
	out := make(map[string]float64)
	n := float64(table.Len())
	if n == 0 {
		return out
	}
	for _, name := range analyzedSeries() {
		series := seriesOf(table, name)
		if float64(len(stats.Positive(series)))/n <= volatilityMinRate {
			continue
		}
		out[name] = stats.CV(series)
	}
	return out
}

// ActivityLevels classifies every category by its active-day rate.
func ActivityLevels(table *model.DailyTable) map[string]model.ActivityProfile {
	out := make(map[string]model.ActivityProfile, len(model.Categories))
	n := float64(table.Len())
	if n == 0 {
		return out
	}
	for _, cat := range model.Categories {
		series := table.Category(cat)
		rate := float64(len(stats.Positive(series))) / n
		clustering := ClusteringScore(series)

		level := ActivityTier(rate)
		if clustering > clusterThreshold {
			level += "_clustered"
		}
		out[cat] = model.ActivityProfile{
			Level:      level,
			Class:      pipeline.ActivityClassName(pipeline.ActivityClass(rate)),
			Rate:       rate,
			Clustering: clustering,
		}
	}
	return out
}

// ActivityTier maps an active-day rate onto the four-tier label.
func ActivityTier(rate float64) string {
	switch {
	case rate < 0.1:
		return model.ActivityInactive
	case rate < 0.3:
		return model.ActivityOccasional
	case rate < 0.6:
		return model.ActivityRegular
	default:
		return model.ActivityFrequent
	}
}

// ClusteringScore is std/mean of the lengths of consecutive active runs,
// capped at 1. Fewer than two runs score 0.
func ClusteringScore(series []float64) float64 {
	var runs []float64
	run := 0
	for _, v := range series {
		if v > 0 {
			run++
			continue
		}
		if run > 0 {
			runs = append(runs, float64(run))
			run = 0
		}
	}
	if run > 0 {
		runs = append(runs, float64(run))
	}
	if len(runs) < 2 {
		return 0
	}
	return math.Min(stats.CV(runs), 1)
}
