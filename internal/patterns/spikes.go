package patterns

import (
	"math"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/stats"
)

const (
	spikeWindow       = 7
	spikeZ            = 2.0
	contributionRatio = 1.5
	recentRows        = 7
)

// DetectSpikes flags days whose total exceeds the trailing 7-day baseline,
// computed as of the previous day, by more than two standard deviations.
// The deviation is floored at 10% of the baseline (and 1 unit) so that a
// perfectly flat history still yields a finite z-score.
func DetectSpikes(table *model.DailyTable) []model.Spike {
	total := table.Total()
	n := len(total)
	spikes := []model.Spike{}

	for i := spikeWindow; i < n; i++ {
		window := stats.Trailing(total, i, spikeWindow)
		mean := stats.Mean(window)
		std := math.Max(stats.StdDev(window), math.Max(0.1*mean, 1))
		z := (total[i] - mean) / std
		if z <= spikeZ {
			continue
		}
		spikes = append(spikes, model.Spike{
			Date:                   table.Dates[i],
			Amount:                 total[i],
			ZScore:                 z,
			Baseline:               mean,
			ContributingCategories: contributors(table, i),
			IsRecent:               i >= n-recentRows,
		})
	}
	return spikes
}

func contributors(table *model.DailyTable, i int) []string {
	out := []string{}
	for _, cat := range model.Categories {
		col := table.Category(cat)
		v := col[i]
		if v <= 0 {
			continue
		}
		if v > contributionRatio*stats.Mean(stats.Trailing(col, i, spikeWindow)) {
			out = append(out, cat)
		}
	}
	return out
}
