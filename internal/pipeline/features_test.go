package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/model"
)

var start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func expense(day int, amount float64, category string) model.Transaction {
	return model.Transaction{
		Date:     start.AddDate(0, 0, day),
		Amount:   decimal.NewFromFloat(amount),
		Category: category,
		Type:     model.Expense,
	}
}

// sparseHistory has spend on every other day plus an income row and a gap.
func sparseHistory() []model.Transaction {
	var txs []model.Transaction
	for d := 0; d < 60; d += 2 {
		txs = append(txs, expense(d, float64(10+d%7), model.Food))
		if d%6 == 0 {
			txs = append(txs, expense(d, 45, model.Transport))
		}
	}
	txs = append(txs, model.Transaction{Date: start.AddDate(0, 0, 3), Amount: decimal.NewFromInt(5000), Category: "Other", Type: model.Income})
	txs = append(txs, expense(80, -30, model.Shopping))
	return txs
}

func TestBuildInsufficientHistory(t *testing.T) {
	var txs []model.Transaction
	for d := 0; d < 13; d++ {
		txs = append(txs, expense(d*3, 20, model.Food))
	}
	table := Build(txs)
	assert.Equal(t, 0, table.Len())
}

func TestBuildContiguousAndFinite(t *testing.T) {
	table := Build(sparseHistory())
	require.Equal(t, 81, table.Len())

	for i := 1; i < table.Len(); i++ {
		assert.Equal(t, table.Dates[i-1].AddDate(0, 0, 1), table.Dates[i], "gap at row %d", i)
	}
	for _, name := range table.Columns() {
		for i, v := range table.Col(name) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%s[%d] = %v", name, i, v)
			}
		}
	}

	// income is excluded, negative amounts become absolute
	assert.Equal(t, 0.0, table.Total()[3])
	assert.Equal(t, 30.0, table.Category(model.Shopping)[80])
}

func TestBuildTemporalColumns(t *testing.T) {
	table := Build(sparseHistory())
	// 2025-01-01 is a Wednesday
	assert.Equal(t, 2.0, table.Col(model.ColDOW)[0])
	assert.Equal(t, 1.0, table.Col(model.ColMonthStart)[0])
	assert.Equal(t, 1.0, table.Col(model.ColMonthEnd)[30])
	assert.Equal(t, 1.0, table.Col(model.ColWeekend)[3])
	assert.Equal(t, 5.0, table.Col(model.ColWOM)[29])

	sin, cos := table.Col(model.ColDOWSin)[0], table.Col(model.ColDOWCos)[0]
	assert.InDelta(t, 1.0, sin*sin+cos*cos, 1e-9)
}

func TestBuildLagsAndRolling(t *testing.T) {
	table := Build(sparseHistory())
	total := table.Total()
	lag7 := table.Col(model.LagColumn("total", 7))
	assert.Equal(t, 0.0, lag7[3])
	assert.Equal(t, total[13], lag7[20])

	mean3 := table.Col(model.RollingColumn("total", "mean", 3))
	assert.InDelta(t, (total[8]+total[9]+total[10])/3, mean3[10], 1e-9)
	assert.Equal(t, 0.0, table.Col(model.RollingColumn("total", "std", 7))[0])
}

func TestRollingMeanNoLookAhead(t *testing.T) {
	txs := sparseHistory()
	base := Build(txs)

	extended := append(append([]model.Transaction(nil), txs...),
		expense(81, 900, model.Food), expense(85, 1200, model.Travel))
	longer := Build(extended)
	require.Greater(t, longer.Len(), base.Len())

	for _, name := range []string{
		model.RollingColumn("total", "mean", 7),
		model.RollingColumn(model.Food, "mean", 7),
	} {
		assert.Equal(t, base.Col(name), longer.Col(name)[:base.Len()], name)
	}
}

func TestBehavioralColumns(t *testing.T) {
	var txs []model.Transaction
	for d := 0; d < 30; d++ {
		txs = append(txs, expense(d, 20, model.Food))
	}
	txs = append(txs, expense(2, 50, model.Shopping), expense(9, 50, model.Shopping), expense(20, 400, model.Shopping))
	table := Build(txs)

	assert.Equal(t, 1.0, table.Col(model.ColSpike)[20])
	assert.Equal(t, 0.0, table.Col(model.ColSpike)[19])
	assert.Equal(t, 0.0, table.Col(model.ColSinceSpike)[20])
	assert.Equal(t, 5.0, table.Col(model.ColSinceSpike)[25])
	assert.Equal(t, 2.0, table.Col(model.ColDiversity)[20])

	since := table.Col(model.CategoryFeature(model.Shopping, "days_since"))
	assert.Equal(t, 0.0, since[20])
	assert.Equal(t, 3.0, since[23])

	memory := table.Col(model.CategoryFeature(model.Shopping, "spike_memory"))
	assert.Equal(t, 0.0, memory[2])
	assert.Equal(t, []float64{1, 1, 1}, memory[20:23])
	assert.Equal(t, 0.0, memory[23])

	level := table.Col(model.CategoryFeature(model.Food, "activity_level"))
	assert.Equal(t, 2.0, level[29])
}

func TestSanitizeFillsRollingGapsWithExpandingMean(t *testing.T) {
	dates := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2), start.AddDate(0, 0, 3), start.AddDate(0, 0, 4)}
	table := model.NewDailyTable(dates)
	nan := math.NaN()
	table.Set(model.RollingColumn("total", "std", 7), []float64{nan, 4, 8, nan, math.Inf(1)})
	table.Set(model.LagColumn("total", 1), []float64{nan, 1, nan, 3, 4})

	sanitize(table)

	assert.Equal(t, []float64{0, 4, 8, 6, Sentinel}, table.Col(model.RollingColumn("total", "std", 7)))
	assert.Equal(t, []float64{0, 1, 0, 3, 4}, table.Col(model.LagColumn("total", 1)))
}

func TestRoundTripIdempotent(t *testing.T) {
	first := Build(sparseHistory())
	second := Build(Transactions(first))
	require.Equal(t, first.Len(), second.Len())
	assert.Equal(t, first.Total(), second.Total())
	for _, cat := range model.Categories {
		assert.Equal(t, first.Category(cat), second.Category(cat), cat)
	}
}

func TestResampleWeekly(t *testing.T) {
	table := Build(sparseHistory())
	weeks := ResampleWeekly(table)
	require.NotEmpty(t, weeks)

	// 2025-01-01 is a Wednesday so the first bucket starts on Monday 2024-12-30
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), weeks[0].Start)
	assert.Equal(t, 5, weeks[0].Days)

	var sum float64
	for _, w := range weeks {
		sum += w.Total()
	}
	var want float64
	for _, v := range table.Total() {
		want += v
	}
	assert.InDelta(t, want, sum, 1e-6)

	months := ResampleMonthly(table)
	require.Len(t, months, 3)
	assert.Equal(t, 31, months[0].Days)
	assert.Len(t, LastBuckets(months, 2), 2)
}
