package patterns

import (
	"fmt"
	"math"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// TrendWindows are the trailing windows fitted by Trends.
var TrendWindows = []int{7, 14, 30}

const (
	trendThreshold   = 0.01
	weekdayMinDays   = 28
	monthThirdMinDay = 60
	balancedSpread   = 0.05
)

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Trends fits a line to each trailing window the series is long enough for.
// Keys are "7d", "14d" and "30d".
func Trends(total []float64) map[string]model.Trend {
	out := make(map[string]model.Trend)
	for _, w := range TrendWindows {
		if len(total) < w {
			continue
		}
		window := total[len(total)-w:]
		fit := stats.LinearRegression(window)
		slope := stats.SafeDiv(fit.Slope, stats.Mean(window))

		direction := model.TrendStable
		switch {
		case slope > trendThreshold:
			direction = model.TrendIncreasing
		case slope < -trendThreshold:
			direction = model.TrendDecreasing
		}
		out[fmt.Sprintf("%dd", w)] = model.Trend{
			Direction:  direction,
			Slope:      slope,
			Confidence: math.Abs(fit.R),
		}
	}
	return out
}

// DetectSeasonality summarizes spend by weekday (28+ days) and by month
// thirds (60+ days).
func DetectSeasonality(table *model.DailyTable) model.Seasonality {
	var s model.Seasonality
	total := table.Total()

	if len(total) >= weekdayMinDays {
		var sums, counts [7]float64
		for i, d := range table.Dates {
			wd := pipeline.Weekday(d)
			sums[wd] += total[i]
			counts[wd]++
		}
		w := &model.WeekdaySeasonality{}
		peak, low := 0, 0
		for d := 0; d < 7; d++ {
			w.Means[d] = stats.SafeDiv(sums[d], counts[d])
			if w.Means[d] > w.Means[peak] {
				peak = d
			}
			if w.Means[d] < w.Means[low] {
				low = d
			}
		}
		w.PeakDay = weekdayNames[peak]
		w.LowDay = weekdayNames[low]
		weekday := stats.Mean(w.Means[:5])
		weekend := stats.Mean(w.Means[5:])
		w.WeekendRatio = stats.SafeDiv(weekend, weekday)
		s.Weekday = w
	}

	if len(total) >= monthThirdMinDay {
		var early, mid, late []float64
		for i, d := range table.Dates {
			switch dom := d.Day(); {
			case dom <= 5:
				early = append(early, total[i])
			case dom >= 11 && dom <= 20:
				mid = append(mid, total[i])
			case dom >= 26:
				late = append(late, total[i])
			}
		}
		m := &model.MonthSeasonality{
			Early: stats.Mean(early),
			Mid:   stats.Mean(mid),
			Late:  stats.Mean(late),
		}
		m.Profile = monthProfile(m.Early, m.Mid, m.Late)
		s.Month = m
	}
	return s
}

func monthProfile(early, mid, late float64) string {
	hi := math.Max(early, math.Max(mid, late))
	lo := math.Min(early, math.Min(mid, late))
	if hi == 0 || (hi-lo)/hi < balancedSpread {
		return "balanced"
	}
	switch hi {
	case early:
		return "front-loaded"
	case mid:
		return "mid-heavy"
	default:
		return "end-loaded"
	}
}
