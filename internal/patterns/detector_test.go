package patterns

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
)

var start = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC) // a Monday

func expense(day int, amount float64, category string) model.Transaction {
	return model.Transaction{
		Date:     start.AddDate(0, 0, day),
		Amount:   decimal.NewFromFloat(amount),
		Category: category,
		Type:     model.Expense,
	}
}

func constantFood(days int) []model.Transaction {
	txs := make([]model.Transaction, 0, days)
	for d := 0; d < days; d++ {
		txs = append(txs, expense(d, 50, model.Food))
	}
	return txs
}

func TestConstantFoodScenario(t *testing.T) {
	table := pipeline.Build(constantFood(90))
	require.Equal(t, 90, table.Len())

	f := Detect(table, 0)
	require.False(t, f.Insufficient)

	food := f.ActivityLevels[model.Food]
	assert.Equal(t, model.ActivityRegular, food.Class)
	assert.Equal(t, model.ActivityFrequent, food.Level)
	assert.InDelta(t, 0, f.Volatility[model.Food], 1e-9)
	assert.Empty(t, f.Spikes)
	for _, r := range f.Recurrences {
		assert.NotEqual(t, model.Food, r.Category)
	}
	assert.Equal(t, model.ActivityInactive, f.ActivityLevels[model.Travel].Level)
	_, hasTravel := f.Volatility[model.Travel]
	assert.False(t, hasTravel, "inactive categories have no volatility entry")
}

func TestWeeklyRecurrenceScenario(t *testing.T) {
	txs := constantFood(90)
	for d := 0; d < 90; d += 7 {
		txs = append(txs, expense(d, 100, model.Entertainment))
	}
	f := Detect(pipeline.Build(txs), 0)

	rec, ok := f.RecurrenceFor(model.Entertainment)
	require.True(t, ok, "weekly recurrence not found: %+v", f.Recurrences)
	assert.Equal(t, "weekly", rec.Pattern)
	assert.Equal(t, 7, rec.PeriodDays)
	assert.Greater(t, rec.Confidence, 0.6)
	assert.InDelta(t, 1.0, rec.Strength, 1e-9)
	assert.Equal(t, start.AddDate(0, 0, 91), rec.NextExpected)

	var labels []string
	for _, r := range f.Recurrences {
		if r.Category == model.Entertainment {
			labels = append(labels, r.Pattern)
		}
	}
	assert.Equal(t, []string{"weekly"}, labels, "harmonics are suppressed")
	require.NotEmpty(t, f.Insights)
	assert.Contains(t, f.Insights[0], "weekly")
}

func TestBiweeklyRecurrence(t *testing.T) {
	txs := constantFood(120)
	for d := 3; d < 120; d += 14 {
		txs = append(txs, expense(d, 80, model.Bills))
	}
	rec, ok := Detect(pipeline.Build(txs), 0).RecurrenceFor(model.Bills)
	require.True(t, ok)
	assert.Equal(t, "biweekly", rec.Pattern)
	assert.Equal(t, 14, rec.PeriodDays)
}

func TestSingleOutlierSpike(t *testing.T) {
	txs := constantFood(40)
	txs = append(txs, expense(20, 450, model.Shopping)) // 10x the daily total
	table := pipeline.Build(txs)

	spikes := DetectSpikes(table)
	require.Len(t, spikes, 1)
	s := spikes[0]
	assert.Equal(t, start.AddDate(0, 0, 20), s.Date)
	assert.InDelta(t, 500, s.Amount, 1e-9)
	assert.InDelta(t, 50, s.Baseline, 1e-9)
	assert.Equal(t, []string{model.Shopping}, s.ContributingCategories)
	assert.False(t, s.IsRecent)
}

func TestSpikeNeedsSevenPriorDays(t *testing.T) {
	txs := constantFood(30)
	txs = append(txs, expense(5, 450, model.Shopping))
	assert.Empty(t, DetectSpikes(pipeline.Build(txs)))
}

func TestRecentSpikeInsight(t *testing.T) {
	txs := constantFood(30)
	txs = append(txs, expense(28, 900, model.Travel))
	f := Detect(pipeline.Build(txs), 0)
	require.Len(t, f.Spikes, 1)
	assert.True(t, f.Spikes[0].IsRecent)
	assert.Contains(t, f.Insights[0], "Travel")
}

func TestInsufficientTable(t *testing.T) {
	f := Detect(pipeline.Build(constantFood(10)), 0)
	assert.True(t, f.Insufficient)
	assert.Empty(t, f.Insights)
	assert.NotNil(t, f.Volatility)
}

func TestLookbackWindow(t *testing.T) {
	f := Detect(pipeline.Build(constantFood(90)), 30)
	assert.Equal(t, 30, f.DaysAnalyzed)
	assert.Nil(t, f.Seasonality.Month)
	assert.NotNil(t, f.Seasonality.Weekday)
}

func TestTrends(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)*5
	}
	trends := Trends(rising)
	require.Len(t, trends, 3)
	assert.Equal(t, model.TrendIncreasing, trends["7d"].Direction)
	assert.InDelta(t, 1.0, trends["30d"].Confidence, 1e-9)

	flat := Trends([]float64{10, 10, 10, 10, 10, 10, 10, 10})
	assert.Equal(t, model.TrendStable, flat["7d"].Direction)
	_, ok := flat["14d"]
	assert.False(t, ok)

	zero := Trends(make([]float64, 7))
	assert.Equal(t, model.TrendStable, zero["7d"].Direction)
}

func TestSeasonality(t *testing.T) {
	var txs []model.Transaction
	for d := 0; d < 63; d++ {
		amount := 20.0
		if d%7 == 5 { // Saturday
			amount = 100
		}
		if start.AddDate(0, 0, d).Day() >= 26 {
			amount += 30
		}
		txs = append(txs, expense(d, amount, model.Food))
	}
	s := DetectSeasonality(pipeline.Build(txs))
	require.NotNil(t, s.Weekday)
	assert.Equal(t, "Saturday", s.Weekday.PeakDay)
	assert.Greater(t, s.Weekday.WeekendRatio, 1.0)
	require.NotNil(t, s.Month)
	assert.Equal(t, "end-loaded", s.Month.Profile)
}

func TestClusteringScore(t *testing.T) {
	assert.Equal(t, 0.0, ClusteringScore([]float64{1, 1, 1, 1}))
	assert.Equal(t, 0.0, ClusteringScore([]float64{1, 0, 1, 0, 1}))
	clustered := []float64{1, 0, 1, 1, 1, 1, 1, 1, 0, 1, 0, 0}
	assert.Greater(t, ClusteringScore(clustered), 0.3)
	assert.LessOrEqual(t, ClusteringScore(clustered), 1.0)
}

func TestActivityTier(t *testing.T) {
	assert.Equal(t, "inactive", ActivityTier(0.05))
	assert.Equal(t, "occasional", ActivityTier(0.2))
	assert.Equal(t, "regular", ActivityTier(0.5))
	assert.Equal(t, "frequent", ActivityTier(0.9))
}

func TestInsightsCapped(t *testing.T) {
	f := &model.PatternFindings{}
	for i := 0; i < 8; i++ {
		f.Recurrences = append(f.Recurrences, model.Recurrence{Category: model.Bills, Pattern: "weekly", PeriodDays: 7, Confidence: 0.9})
	}
	assert.Len(t, Insights(f), MaxInsights)
}
