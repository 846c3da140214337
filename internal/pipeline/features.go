package pipeline

import (
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// MinHistoryDays is the number of distinct expense days Build requires.
const MinHistoryDays = 14

// Lags are the shifts applied to total and key-category spend.
var Lags = []int{1, 2, 3, 7, 14, 21, 30}

// Windows are the trailing windows for rolling statistics.
var Windows = []int{3, 7, 14, 30}

// Sentinel replaces infinities during sanitization.
const Sentinel = 1e9

// Activity-rate thresholds for the three-level category class.
const (
	inactiveRate   = 0.1
	occasionalRate = 0.3
	activityWindow = 30
)

// SpikeMemoryFloor is the minimum trailing 3-day sum that counts as a spike.
const SpikeMemoryFloor = 200.0

// Build converts transactions into the daily feature table. It returns an
// empty table (Len() == 0) when fewer than MinHistoryDays distinct expense
// days exist; callers must check Len before using statistics.
func Build(txs []model.Transaction) *model.DailyTable {
	if ActiveDayCount(txs) < MinHistoryDays {
		return model.NewDailyTable(nil)
	}
	days := AggregateDays(txs)

	dates := make([]time.Time, len(days))
	for i, d := range days {
		dates[i] = d.Date
	}
	t := model.NewDailyTable(dates)

	total := make([]float64, len(days))
	for _, cat := range model.Categories {
		col := make([]float64, len(days))
		for i, d := range days {
			col[i] = d.Categories[cat]
			total[i] += col[i]
		}
		t.Set(model.CategoryColumn(cat), col)
	}
	t.Set(model.ColTotal, total)

	addTemporal(t)
	addLags(t)
	addRolling(t)
	addBehavioral(t)
	sanitize(t)
	return t
}

// TemporalColumns are the calendar features, in table order.
var TemporalColumns = []string{
	model.ColDOW, model.ColDOM, model.ColWOM, model.ColMonth,
	model.ColWeekend, model.ColMonthStart, model.ColMonthEnd,
	model.ColDOWSin, model.ColDOWCos, model.ColDOMSin, model.ColDOMCos,
}

// TemporalFeatures computes the calendar features of one day, aligned with
// TemporalColumns.
func TemporalFeatures(d time.Time) []float64 {
	wd := Weekday(d)
	dowSin, dowCos := Cyclical(float64(wd), 7)
	domSin, domCos := Cyclical(float64(d.Day()-1), float64(DaysIn(d)))
	return []float64{
		float64(wd),
		float64(d.Day()),
		float64((d.Day()-1)/7 + 1),
		float64(d.Month()),
		flag(wd >= 5),
		flag(d.Day() == 1),
		flag(d.AddDate(0, 0, 1).Day() == 1),
		dowSin, dowCos, domSin, domCos,
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func addTemporal(t *model.DailyTable) {
	cols := make([][]float64, len(TemporalColumns))
	for j := range cols {
		cols[j] = make([]float64, t.Len())
	}
	for i, d := range t.Dates {
		for j, v := range TemporalFeatures(d) {
			cols[j][i] = v
		}
	}
	for j, name := range TemporalColumns {
		t.Set(name, cols[j])
	}
}

func addLags(t *model.DailyTable) {
	for _, lag := range Lags {
		t.Set(model.LagColumn("total", lag), stats.Shift(t.Total(), lag, 0))
	}
	for _, cat := range model.KeyCategories {
		col := t.Category(cat)
		for _, lag := range Lags {
			t.Set(model.LagColumn(cat, lag), stats.Shift(col, lag, 0))
		}
	}
}

func addRolling(t *model.DailyTable) {
	total := t.Total()
	for _, w := range Windows {
		t.Set(model.RollingColumn("total", "mean", w), stats.RollingMean(total, w))
		t.Set(model.RollingColumn("total", "std", w), stats.RollingStd(total, w))
		t.Set(model.RollingColumn("total", "max", w), stats.RollingMax(total, w))
	}
	for _, cat := range model.KeyCategories {
		t.Set(model.RollingColumn(cat, "mean", 7), stats.RollingMean(t.Category(cat), 7))
	}
}

func addBehavioral(t *model.DailyTable) {
	n := t.Len()
	total := t.Total()

	threshold := 2 * stats.Mean(total)
	spike := make([]float64, n)
	for i, v := range total {
		if threshold > 0 && v > threshold {
			spike[i] = 1
		}
	}
	t.Set(model.ColSpike, spike)
	t.Set(model.ColSinceSpike, DaysSince(spike))

	mean3 := stats.RollingMean(total, 3)
	momentum := make([]float64, n)
	for i := 3; i < n; i++ {
		momentum[i] = mean3[i] - mean3[i-3]
	}
	t.Set(model.ColMomentum, momentum)

	diversity := make([]float64, n)
	for _, cat := range model.Categories {
		for i, v := range t.Category(cat) {
			if v > 0 {
				diversity[i]++
			}
		}
	}
	t.Set(model.ColDiversity, diversity)

	mean7 := stats.RollingMean(total, 7)
	std7 := stats.RollingStd(total, 7)
	consistency := make([]float64, n)
	for i := range consistency {
		if !math.IsNaN(std7[i]) {
			consistency[i] = stats.SafeDiv(std7[i], mean7[i])
		}
	}
	t.Set(model.ColConsistency, consistency)

	for _, cat := range model.Categories {
		col := t.Category(cat)
		t.Set(model.CategoryFeature(cat, "days_since"), DaysSince(col))
		t.Set(model.CategoryFeature(cat, "spike_memory"), spikeMemory(col))

		rate := stats.Rolling(col, activityWindow, 1, activeShare)
		level := make([]float64, n)
		for i, r := range rate {
			level[i] = float64(ActivityClass(r))
		}
		t.Set(model.CategoryFeature(cat, "activity_rate"), rate)
		t.Set(model.CategoryFeature(cat, "activity_level"), level)
	}
}

// sanitize replaces NaN with 0 and infinities with the sentinel. Gaps in
// rolling columns take the mean of the column's earlier values first.
func sanitize(t *model.DailyTable) {
	for _, name := range t.Columns() {
		if strings.Contains(name, "_roll_") {
			fillExpandingMean(t.Col(name))
		}
		for i, v := range t.Col(name) {
			switch {
			case math.IsNaN(v):
				t.Col(name)[i] = 0
			case math.IsInf(v, 1):
				t.Col(name)[i] = Sentinel
			case math.IsInf(v, -1):
				t.Col(name)[i] = -Sentinel
			}
		}
	}
}

// fillExpandingMean replaces NaN cells with the mean of the finite cells
// above them. Leading NaNs stay for sanitize to zero.
func fillExpandingMean(col []float64) {
	var sum float64
	var n int
	for i, v := range col {
		switch {
		case math.IsNaN(v):
			if n > 0 {
				col[i] = sum / float64(n)
			}
		case !math.IsInf(v, 0):
			sum += v
			n++
		}
	}
}

// spikeMemory flags rows whose trailing 3-day sum exceeds the median of
// active days, floored at SpikeMemoryFloor.
func spikeMemory(col []float64) []float64 {
	threshold := math.Max(stats.Median(stats.Positive(col)), SpikeMemoryFloor)
	sum3 := stats.RollingSum(col, 3)
	out := make([]float64, len(col))
	for i, s := range sum3 {
		if s > threshold {
			out[i] = 1
		}
	}
	return out
}

func activeShare(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	return float64(len(stats.Positive(window))) / float64(len(window))
}

// DaysSince counts rows since the last positive value. Rows before the first
// positive value count from the start of the series.
func DaysSince(col []float64) []float64 {
	out := make([]float64, len(col))
	last := -1
	for i, v := range col {
		if v > 0 {
			last = i
		}
		out[i] = float64(i - last)
	}
	return out
}

// ActivityClass maps an active-day rate onto 0 inactive, 1 occasional, 2 regular.
func ActivityClass(rate float64) int {
	switch {
	case rate < inactiveRate:
		return 0
	case rate < occasionalRate:
		return 1
	default:
		return 2
	}
}

// ActivityClassName names an ActivityClass value.
func ActivityClassName(class int) string {
	switch class {
	case 0:
		return model.ActivityInactive
	case 1:
		return model.ActivityOccasional
	default:
		return model.ActivityRegular
	}
}

// Weekday returns 0 for Monday through 6 for Sunday.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// DaysIn returns the number of days in d's month.
func DaysIn(d time.Time) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Cyclical encodes a position within a period as (sin, cos).
func Cyclical(pos, period float64) (float64, float64) {
	angle := 2 * math.Pi * pos / period
	return math.Sin(angle), math.Cos(angle)
}
