package pipeline

import (
	"math"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
)

// Bucket is one resampled period with per-category sums and active-day counts.
type Bucket struct {
	Start      time.Time
	End        time.Time
	Days       int
	Sums       map[string]float64
	ActiveDays map[string]int
}

// Total sums all categories in the bucket.
func (b Bucket) Total() float64 {
	var s float64
	for _, v := range b.Sums {
		s += v
	}
	return s
}

// WeekStart returns the Monday on or before d.
func WeekStart(d time.Time) time.Time {
	d = model.Day(d)
	return d.AddDate(0, 0, -Weekday(d))
}

// MonthStart returns the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ResampleWeekly groups the table into Monday-start weeks, oldest first.
func ResampleWeekly(t *model.DailyTable) []Bucket {
	return resample(t, WeekStart, func(s time.Time) time.Time { return s.AddDate(0, 0, 6) })
}

// ResampleMonthly groups the table into calendar months, oldest first.
func ResampleMonthly(t *model.DailyTable) []Bucket {
	return resample(t, MonthStart, func(s time.Time) time.Time { return s.AddDate(0, 1, -1) })
}

func resample(t *model.DailyTable, startOf func(time.Time) time.Time, endOf func(time.Time) time.Time) []Bucket {
	var out []Bucket
	for i, d := range t.Dates {
		start := startOf(d)
		if len(out) == 0 || !out[len(out)-1].Start.Equal(start) {
			out = append(out, Bucket{
				Start:      start,
				End:        endOf(start),
				Sums:       make(map[string]float64),
				ActiveDays: make(map[string]int),
			})
		}
		b := &out[len(out)-1]
		b.Days++
		for _, cat := range model.Categories {
			v := t.Category(cat)[i]
			b.Sums[cat] += v
			if v > 0 {
				b.ActiveDays[cat]++
			}
		}
	}
	return out
}

// Complete reports whether every day of the bucket is present.
func (b Bucket) Complete() bool {
	return b.Days == int(math.Round(b.End.Sub(b.Start).Hours()/24))+1
}

// CompleteBuckets drops partial buckets.
func CompleteBuckets(buckets []Bucket) []Bucket {
	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Complete() {
			out = append(out, b)
		}
	}
	return out
}

// LastBuckets returns at most n trailing buckets.
func LastBuckets(buckets []Bucket, n int) []Bucket {
	if len(buckets) <= n {
		return buckets
	}
	return buckets[len(buckets)-n:]
}

// Series extracts one category's sums from a bucket list.
func Series(buckets []Bucket, category string) []float64 {
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = b.Sums[category]
	}
	return out
}
