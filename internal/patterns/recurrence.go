package patterns

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// Band is a range of candidate periods searched for one recurrence label.
type Band struct {
	Label    string
	Min, Max int
}

// Bands are searched shortest first.
var Bands = []Band{
	{Label: "weekly", Min: 6, Max: 8},
	{Label: "biweekly", Min: 13, Max: 15},
	{Label: "monthly", Min: 28, Max: 31},
}

// RecurrenceThreshold is the minimum averaged autocorrelation to report.
const RecurrenceThreshold = 0.6

// DetectRecurrence searches one series for weekly, biweekly and monthly
// periodicity. A band's best lag must be corroborated at twice the lag.
// Bands whose lag is a multiple of an already reported period are skipped.
func DetectRecurrence(table *model.DailyTable, name string) []model.Recurrence {
	series := seriesOf(table, name)
	n := len(series)
	if n < MinDays || len(stats.Positive(series)) < 2 {
		return nil
	}

	detrended := stats.Detrend(series)
	maxLag := 2 * Bands[len(Bands)-1].Max
	if maxLag >= n {
		maxLag = n - 1
	}
	acf := stats.Autocorrelation(detrended, maxLag)

	var found []model.Recurrence
	for _, band := range Bands {
		lag, score := bestLag(acf, band)
		if lag == 0 || score <= RecurrenceThreshold {
			continue
		}
		if harmonicOf(lag, found) {
			continue
		}
		found = append(found, model.Recurrence{
			Category:     name,
			Pattern:      band.Label,
			PeriodDays:   lag,
			Confidence:   score,
			Strength:     matchRatio(series, lag),
			NextExpected: nextExpected(table, series, lag),
		})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Confidence > found[j].Confidence })
	return found
}

// bestLag picks the lag in band maximizing the mean of acf[lag] and
// acf[2*lag]. Lags whose double falls outside the ACF are not considered.
func bestLag(acf []float64, band Band) (int, float64) {
	bestLag, best := 0, math.Inf(-1)
	for lag := band.Min; lag <= band.Max; lag++ {
		if 2*lag >= len(acf) {
			break
		}
		score := (acf[lag] + acf[2*lag]) / 2
		if score > best {
			bestLag, best = lag, score
		}
	}
	if bestLag == 0 {
		return 0, 0
	}
	return bestLag, best
}

func harmonicOf(lag int, found []model.Recurrence) bool {
	for _, r := range found {
		for k := 2; k*r.PeriodDays <= lag+1; k++ {
			if abs(lag-k*r.PeriodDays) <= 1 {
				return true
			}
		}
	}
	return false
}

// matchRatio is the fraction of positive pairs (x[t], x[t+lag]) whose
// magnitudes are within 50% of each other.
func matchRatio(series []float64, lag int) float64 {
	var pairs, matches int
	for t := 0; t+lag < len(series); t++ {
		a, b := series[t], series[t+lag]
		if a <= 0 || b <= 0 {
			continue
		}
		pairs++
		if math.Abs(a-b) <= 0.5*math.Max(a, b) {
			matches++
		}
	}
	return stats.SafeDiv(float64(matches), float64(pairs))
}

// nextExpected projects the last day with spend forward by one period.
func nextExpected(table *model.DailyTable, series []float64, lag int) time.Time {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] > 0 {
			return table.Dates[i].AddDate(0, 0, lag)
		}
	}
	return table.Last().AddDate(0, 0, lag)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
