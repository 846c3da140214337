// Package pipeline turns raw transactions into the dense daily feature table
// and handles loading transaction files into the store.
package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
)

// DaySums holds the per-category expense sums of a single calendar day.
type DaySums struct {
	Date       time.Time
	Categories map[string]float64
}

// AggregateDays groups expense transactions by (day, category) and reindexes
// them onto the contiguous range [first, last] so that every day is present.
// Days without spend carry an empty category map.
func AggregateDays(txs []model.Transaction) []DaySums {
	dayMap := make(map[string]*DaySums)
	var first, last time.Time

	for _, tx := range txs {
		if !tx.IsExpense() || tx.Date.IsZero() {
			continue
		}
		day := model.Day(tx.Date)
		key := model.DayKey(day)
		ds, ok := dayMap[key]
		if !ok {
			ds = &DaySums{Date: day, Categories: make(map[string]float64)}
			dayMap[key] = ds
		}
		amount, _ := tx.Amount.Abs().Float64()
		ds.Categories[model.NormalizeCategory(tx.Category)] += amount

		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	if len(dayMap) == 0 {
		return nil
	}

	// Fill in every day in the range so lags and windows see gaps as zeros
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		key := model.DayKey(day)
		if _, ok := dayMap[key]; !ok {
			dayMap[key] = &DaySums{Date: day, Categories: map[string]float64{}}
		}
	}

	days := make([]DaySums, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// ActiveDayCount counts distinct days carrying at least one expense.
func ActiveDayCount(txs []model.Transaction) int {
	seen := make(map[string]struct{})
	for _, tx := range txs {
		if !tx.IsExpense() || tx.Date.IsZero() || tx.Amount.IsZero() {
			continue
		}
		seen[model.DayKey(tx.Date)] = struct{}{}
	}
	return len(seen)
}

// FilterByTime returns transactions dated within [since, until).
func FilterByTime(txs []model.Transaction, since, until time.Time) []model.Transaction {
	if since.IsZero() && until.IsZero() {
		return txs
	}

	var result []model.Transaction
	for _, tx := range txs {
		if !since.IsZero() && tx.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !tx.Date.Before(until) {
			continue
		}
		result = append(result, tx)
	}
	return result
}

// Transactions expands a daily table back into one synthetic expense per
// non-zero (day, category) cell. Build(Transactions(t)) reproduces t's sums.
func Transactions(t *model.DailyTable) []model.Transaction {
	var out []model.Transaction
	for _, cat := range model.Categories {
		col := t.Category(cat)
		for i, v := range col {
			if v == 0 {
				continue
			}
			out = append(out, model.Transaction{
				Date:     t.Dates[i],
				Amount:   decimal.NewFromFloat(v),
				Category: cat,
				Type:     model.Expense,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
