package model

import (
	"fmt"
	"sort"
	"time"
)

// Column names shared by the pipeline and its consumers.
const (
	ColTotal       = "total_daily"
	ColDOW         = "dow"
	ColDOM         = "dom"
	ColWOM         = "wom"
	ColMonth       = "month"
	ColWeekend     = "is_weekend"
	ColMonthStart  = "is_month_start"
	ColMonthEnd    = "is_month_end"
	ColDOWSin      = "dow_sin"
	ColDOWCos      = "dow_cos"
	ColDOMSin      = "dom_sin"
	ColDOMCos      = "dom_cos"
	ColSpike       = "is_spike"
	ColSinceSpike  = "days_since_spike"
	ColMomentum    = "momentum_3d"
	ColDiversity   = "category_diversity"
	ColConsistency = "spending_consistency"
)

// CategoryColumn names the per-category daily sum column.
func CategoryColumn(category string) string { return "cat_" + category }

// LagColumn names a value shifted back by lag days. base is "total" or a category.
func LagColumn(base string, lag int) string { return fmt.Sprintf("%s_lag_%d", base, lag) }

// RollingColumn names a trailing window statistic (mean, std, max).
func RollingColumn(base, stat string, window int) string {
	return fmt.Sprintf("%s_roll_%s_%d", base, stat, window)
}

// CategoryFeature names a per-category behavioral column.
func CategoryFeature(category, feature string) string { return category + "_" + feature }

// DailyTable is a dense, contiguous, column-oriented daily series.
// Row i corresponds to Dates[i]; every column has len(Dates) values.
type DailyTable struct {
	Dates   []time.Time
	columns map[string][]float64
	order   []string
}

// NewDailyTable creates an empty table over the given days.
func NewDailyTable(dates []time.Time) *DailyTable {
	return &DailyTable{
		Dates:   dates,
		columns: make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (t *DailyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// Set stores a column, replacing any previous values under the same name.
func (t *DailyTable) Set(name string, values []float64) {
	if len(values) != len(t.Dates) {
		panic(fmt.Sprintf("model: column %s has %d values for %d rows", name, len(values), len(t.Dates)))
	}
	if _, ok := t.columns[name]; !ok {
		t.order = append(t.order, name)
	}
	t.columns[name] = values
}

// Col returns the column values, or nil if the column does not exist.
// The returned slice is shared with the table and must not be modified.
func (t *DailyTable) Col(name string) []float64 {
	if t == nil {
		return nil
	}
	return t.columns[name]
}

// Has reports whether the column exists.
func (t *DailyTable) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Columns returns column names in insertion order.
func (t *DailyTable) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Total is shorthand for the total_daily column.
func (t *DailyTable) Total() []float64 { return t.Col(ColTotal) }

// Category is shorthand for a category's daily sum column.
func (t *DailyTable) Category(category string) []float64 {
	return t.Col(CategoryColumn(category))
}

// First returns the first day, or the zero time for an empty table.
func (t *DailyTable) First() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.Dates[0]
}

// Last returns the last day, or the zero time for an empty table.
func (t *DailyTable) Last() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.Dates[len(t.Dates)-1]
}

// Tail returns a table holding only the last n rows. Columns are copied.
func (t *DailyTable) Tail(n int) *DailyTable {
	if n <= 0 || n >= t.Len() {
		return t
	}
	start := t.Len() - n
	out := NewDailyTable(append([]time.Time(nil), t.Dates[start:]...))
	for _, name := range t.order {
		out.Set(name, append([]float64(nil), t.columns[name][start:]...))
	}
	return out
}

// Head returns a table holding only the first n rows. Columns are copied.
func (t *DailyTable) Head(n int) *DailyTable {
	if n >= t.Len() {
		return t
	}
	if n < 0 {
		n = 0
	}
	out := NewDailyTable(append([]time.Time(nil), t.Dates[:n]...))
	for _, name := range t.order {
		out.Set(name, append([]float64(nil), t.columns[name][:n]...))
	}
	return out
}

// ActiveDays counts rows with positive spend in the given column.
func (t *DailyTable) ActiveDays(name string) int {
	n := 0
	for _, v := range t.Col(name) {
		if v > 0 {
			n++
		}
	}
	return n
}

// SortedColumns returns column names in lexical order.
func (t *DailyTable) SortedColumns() []string {
	out := t.Columns()
	sort.Strings(out)
	return out
}
