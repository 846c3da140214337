package forecast

import (
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
)

// WindowSize is the number of trailing days kept for feature synthesis.
const WindowSize = 30

// Window is a fixed-size ring buffer of the most recent daily values. It
// carries only what lag and rolling features need, so multi-step forecasts
// do not grow any table.
type Window struct {
	totals []float64
	cats   map[string][]float64
	head   int // next write position
	count  int
	last   time.Time
}

// NewWindow creates an empty window of WindowSize days.
func NewWindow() *Window {
	w := &Window{
		totals: make([]float64, WindowSize),
		cats:   make(map[string][]float64, len(model.Categories)),
	}
	for _, c := range model.Categories {
		w.cats[c] = make([]float64, WindowSize)
	}
	return w
}

// Push appends one day. Categories missing from cats count as zero.
func (w *Window) Push(day time.Time, total float64, cats map[string]float64) {
	w.totals[w.head] = total
	for c, buf := range w.cats {
		buf[w.head] = cats[c]
	}
	w.head = (w.head + 1) % WindowSize
	if w.count < WindowSize {
		w.count++
	}
	w.last = day
}

// Len is the number of days held.
func (w *Window) Len() int { return w.count }

// Last is the most recently pushed day.
func (w *Window) Last() time.Time { return w.last }

// Next is the day after Last.
func (w *Window) Next() time.Time { return w.last.AddDate(0, 0, 1) }

func (w *Window) at(buf []float64, k int) float64 {
	if k < 1 || k > w.count {
		return 0
	}
	return buf[(w.head-k+WindowSize)%WindowSize]
}

// Lag returns the total k days back (1 = most recent), 0 when unavailable.
func (w *Window) Lag(k int) float64 { return w.at(w.totals, k) }

// CategoryLag returns a category's value k days back.
func (w *Window) CategoryLag(category string, k int) float64 {
	buf, ok := w.cats[category]
	if !ok {
		return 0
	}
	return w.at(buf, k)
}

// Trailing returns up to n most recent totals, oldest first.
func (w *Window) Trailing(n int) []float64 {
	return w.trailing(w.totals, n)
}

// TrailingCategory returns up to n most recent values of a category, oldest first.
func (w *Window) TrailingCategory(category string, n int) []float64 {
	return w.trailing(w.cats[category], n)
}

func (w *Window) trailing(buf []float64, n int) []float64 {
	if n > w.count {
		n = w.count
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = w.at(buf, n-i)
	}
	return out
}

// Shares returns each category's share of spend across the window.
func (w *Window) Shares() map[string]float64 {
	out := make(map[string]float64, len(w.cats))
	var total float64
	sums := make(map[string]float64, len(w.cats))
	for _, c := range model.Categories {
		for _, v := range w.TrailingCategory(c, w.count) {
			sums[c] += v
		}
		total += sums[c]
	}
	if total == 0 {
		return out
	}
	for c, s := range sums {
		out[c] = s / total
	}
	return out
}

// Split distributes a predicted total across categories by share.
func Split(total float64, shares map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(shares))
	for c, s := range shares {
		out[c] = total * s
	}
	return out
}

// Clone returns an independent copy.
func (w *Window) Clone() *Window {
	c := &Window{
		totals: append([]float64(nil), w.totals...),
		cats:   make(map[string][]float64, len(w.cats)),
		head:   w.head,
		count:  w.count,
		last:   w.last,
	}
	for k, v := range w.cats {
		c.cats[k] = append([]float64(nil), v...)
	}
	return c
}

// WindowFromTable primes a window with the last WindowSize rows of a table.
func WindowFromTable(t *model.DailyTable) *Window {
	w := NewWindow()
	start := t.Len() - WindowSize
	if start < 0 {
		start = 0
	}
	total := t.Total()
	for i := start; i < t.Len(); i++ {
		cats := make(map[string]float64, len(model.Categories))
		for _, c := range model.Categories {
			cats[c] = t.Category(c)[i]
		}
		w.Push(t.Dates[i], total[i], cats)
	}
	return w
}
