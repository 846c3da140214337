package budget

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{
		Floors:     map[string]float64{model.Food: 20, model.Bills: 50, model.Travel: 10},
		Elasticity: map[string]float64{model.Food: 1.2, model.Bills: 0.2, model.Shopping: 1.5, model.Travel: 1.6},
	}
}

func expense(from time.Time, day int, amount float64, category string) model.Transaction {
	return model.Transaction{
		Date:     from.AddDate(0, 0, day),
		Amount:   decimal.NewFromFloat(amount),
		Category: category,
		Type:     model.Expense,
	}
}

func dailyFood(from time.Time, days int) []model.Transaction {
	var txs []model.Transaction
	for d := 0; d < days; d++ {
		txs = append(txs, expense(from, d, 30, model.Food))
	}
	return txs
}

func generators() []Generator {
	return []Generator{NewStatistical(), NewAdvanced()}
}

func line(t *testing.T, res *model.BudgetResult, category string) model.BudgetLine {
	t.Helper()
	l, ok := res.Line(category)
	require.True(t, ok, "missing %s", category)
	return l
}

func TestRoundTo10(t *testing.T) {
	assert.Equal(t, 210.0, RoundTo10(205))
	assert.Equal(t, 200.0, RoundTo10(204.9))
	assert.Equal(t, 0.0, RoundTo10(0))
	assert.Equal(t, 1000.0, RoundTo10(996))
}

func TestZeroActivityCategory(t *testing.T) {
	table := pipeline.Build(dailyFood(monday, 63))
	for _, g := range generators() {
		for _, period := range []model.BudgetPeriod{model.PeriodWeekly, model.PeriodMonthly} {
			res, err := g.Generate(context.Background(), Request{Table: table, Period: period, Policy: testPolicy()})
			require.NoError(t, err)

			travel := line(t, res, model.Travel)
			assert.Equal(t, model.ActivityInactive, travel.ActivityLevel, "%s %s", g.Name(), period)
			assert.LessOrEqual(t, travel.Amount, travel.Floor, "%s %s", g.Name(), period)
			assert.Equal(t, testPolicy().Floor(model.Travel, period), travel.Floor)
		}
	}
}

func TestFloorBindsExactly(t *testing.T) {
	table := pipeline.Build(dailyFood(monday, 63))
	for _, g := range generators() {
		req := Request{Table: table, Period: model.PeriodWeekly, Policy: testPolicy()}
		res, err := g.Generate(context.Background(), req)
		require.NoError(t, err)
		unconstrained := line(t, res, model.Food).Amount

		for _, raise := range []float64{0.5, 17, 250} {
			req.Policy = testPolicy().WithFloor(model.Food, unconstrained+raise)
			res, err := g.Generate(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, unconstrained+raise, line(t, res, model.Food).Amount, "%s +%v", g.Name(), raise)
		}
	}
}

func TestStatisticalRegularCategory(t *testing.T) {
	table := pipeline.Build(dailyFood(monday, 63))
	res, err := NewStatistical().Generate(context.Background(), Request{Table: table, Period: model.PeriodWeekly, Policy: testPolicy()})
	require.NoError(t, err)

	food := line(t, res, model.Food)
	assert.Equal(t, 210.0, food.Amount)
	assert.Equal(t, model.ActivityRegular, food.ActivityLevel)
	assert.InDelta(t, 1, food.AdjustmentFactor, 1e-9)
	assert.Equal(t, model.Food, res.Lines[0].Category, "largest line first")
	assert.Equal(t, "2025-06", res.TargetMonth)
	assert.Equal(t, StatisticalName, res.Methodology.Approach)
	assert.Equal(t, 63, res.Methodology.DaysOfData)

	var sum float64
	for _, l := range res.Lines {
		sum += l.Amount
	}
	assert.InDelta(t, sum, res.Total, 1e-9)

	monthly, err := NewStatistical().Generate(context.Background(), Request{Table: table, Period: model.PeriodMonthly, Policy: testPolicy()})
	require.NoError(t, err)
	assert.Equal(t, 900.0, line(t, monthly, model.Food).Amount)
}

func TestStatisticalPatternFactors(t *testing.T) {
	table := pipeline.Build(dailyFood(monday, 63))
	findings := &model.PatternFindings{
		Recurrences: []model.Recurrence{{Category: model.Food, Confidence: 0.9, PeriodDays: 7}},
		Spikes:      []model.Spike{{IsRecent: true, ContributingCategories: []string{model.Food}}},
		Volatility:  map[string]float64{model.Food: 0},
	}
	res, err := NewStatistical().Generate(context.Background(), Request{
		Table: table, Findings: findings, Period: model.PeriodWeekly, Policy: testPolicy(),
	})
	require.NoError(t, err)

	food := line(t, res, model.Food)
	assert.InDelta(t, 1.1*1.2, food.AdjustmentFactor, 1e-9)
	assert.Equal(t, 280.0, food.Amount)
}

func TestStatisticalOccasionalCategory(t *testing.T) {
	txs := dailyFood(monday, 90)
	for d := 0; d < 90; d += 5 {
		txs = append(txs, expense(monday, d, 100, model.Shopping))
	}
	res, err := NewStatistical().Generate(context.Background(), Request{Table: pipeline.Build(txs), Period: model.PeriodWeekly, Policy: testPolicy()})
	require.NoError(t, err)
	shopping := line(t, res, model.Shopping)
	assert.Equal(t, model.ActivityOccasional, shopping.ActivityLevel)
	assert.Greater(t, shopping.Amount, 0.0)
}

func TestAdvancedWeeklyConstant(t *testing.T) {
	table := pipeline.Build(dailyFood(monday, 63))
	res, err := NewAdvanced().Generate(context.Background(), Request{Table: table, Period: model.PeriodWeekly, Policy: testPolicy()})
	require.NoError(t, err)

	food := line(t, res, model.Food)
	assert.InDelta(t, 210, food.Amount, 1e-9)
	assert.Equal(t, model.ActivityRegular, food.ActivityLevel)
	assert.Equal(t, "advanced-weekly", res.Methodology.Approach)
}

func TestAdvancedWeeklyHazard(t *testing.T) {
	txs := dailyFood(monday, 63)
	for d := 0; d < 63; d += 7 {
		txs = append(txs, expense(monday, d, 70, model.Entertainment))
	}
	res, err := NewAdvanced().Generate(context.Background(), Request{Table: pipeline.Build(txs), Period: model.PeriodWeekly, Policy: testPolicy()})
	require.NoError(t, err)

	ent := line(t, res, model.Entertainment)
	assert.Equal(t, model.ActivityInactive, ent.ActivityLevel)
	assert.InDelta(t, inactiveWeekly*hazardFactor, ent.AdjustmentFactor, 1e-9)
	assert.InDelta(t, 70*inactiveWeekly*hazardFactor, ent.Amount, 1e-6)
}

func TestAdvancedMonthly(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := NewAdvanced().Generate(context.Background(), Request{Table: pipeline.Build(dailyFood(jan, 120)), Period: model.PeriodMonthly, Policy: testPolicy()})
	require.NoError(t, err)

	food := line(t, res, model.Food)
	assert.InDelta(t, 1.08*930, food.Amount, 1e-6, "capped at 1.08x the monthly max")
	assert.Equal(t, "advanced-monthly", res.Methodology.Approach)
	assert.Equal(t, "2025-05", res.TargetMonth)
}

func TestAdvancedMonthlyShortHistory(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := NewAdvanced().Generate(context.Background(), Request{Table: pipeline.Build(dailyFood(jan, 40)), Period: model.PeriodMonthly, Policy: testPolicy()})
	require.NoError(t, err)

	assert.Equal(t, "advanced-weekly-scaled", res.Methodology.Approach)
	assert.Equal(t, model.PeriodMonthly, res.Period)
	assert.InDelta(t, 210*WeeksPerMonth, line(t, res, model.Food).Amount, 1e-6)
	assert.InDelta(t, 50*WeeksPerMonth, line(t, res, model.Bills).Amount, 1e-6)
}

func TestInsufficientHistory(t *testing.T) {
	empty := pipeline.Build(dailyFood(monday, 5))
	require.Equal(t, 0, empty.Len())
	for _, g := range generators() {
		res, err := g.Generate(context.Background(), Request{Table: empty, Period: model.PeriodWeekly, Policy: testPolicy()})
		require.NoError(t, err)
		assert.Equal(t, "insufficient", res.Methodology.DataQuality)
		assert.Len(t, res.Lines, len(model.Categories))
		for _, l := range res.Lines {
			assert.Equal(t, l.Floor, l.Amount)
		}
		assert.InDelta(t, 80, res.Total, 1e-9)
	}
}

func savingsFixture() *model.BudgetResult {
	return &model.BudgetResult{
		Period: model.PeriodWeekly,
		Lines: []model.BudgetLine{
			{Category: model.Shopping, Amount: 200, Floor: 0, Elasticity: 1.5},
			{Category: model.Bills, Amount: 150, Floor: 150, Elasticity: 0.2},
			{Category: model.Food, Amount: 100, Floor: 80, Elasticity: 1.2},
			{Category: model.Health, Amount: 60, Floor: 20, Elasticity: 0},
		},
		Total: 510,
	}
}

func assertSavingsBounds(t *testing.T, res *model.BudgetResult, floors map[string]float64) {
	t.Helper()
	var cuts float64
	for _, c := range res.Savings.Cuts {
		cuts += c
	}
	assert.InDelta(t, res.Savings.Applied, cuts, 1e-6)
	for _, l := range res.Lines {
		assert.GreaterOrEqual(t, l.Amount, floors[l.Category]-1e-9, l.Category)
	}
}

func TestSavingsProportional(t *testing.T) {
	res := savingsFixture()
	floors := map[string]float64{model.Shopping: 0, model.Bills: 150, model.Food: 80, model.Health: 20}
	ApplySavingsGoal(res, 100)

	require.NotNil(t, res.Savings)
	assert.True(t, res.Savings.Achievable)
	assert.InDelta(t, 260, res.Savings.Headroom, 1e-9)
	assert.InDelta(t, 100, res.Savings.Applied, 1e-6)
	assert.InDelta(t, 100*300.0/324, res.Savings.Cuts[model.Shopping], 1e-6)
	assert.InDelta(t, 100*24.0/324, res.Savings.Cuts[model.Food], 1e-6)
	assert.NotContains(t, res.Savings.Cuts, model.Bills)
	assert.InDelta(t, 410, res.Total, 1e-6)
	assertSavingsBounds(t, res, floors)
}

func TestSavingsRedistributesPastSaturation(t *testing.T) {
	res := savingsFixture()
	floors := map[string]float64{model.Shopping: 0, model.Bills: 150, model.Food: 80, model.Health: 20}
	ApplySavingsGoal(res, 240)

	assert.True(t, res.Savings.Achievable)
	assert.InDelta(t, 240, res.Savings.Applied, 1e-6)
	assert.InDelta(t, 200, res.Savings.Cuts[model.Shopping], 1e-6)
	assert.InDelta(t, 20, res.Savings.Cuts[model.Food], 1e-6)
	assert.InDelta(t, 20, res.Savings.Cuts[model.Health], 1e-6)
	assertSavingsBounds(t, res, floors)
}

func TestSavingsUnachievable(t *testing.T) {
	res := savingsFixture()
	floors := map[string]float64{model.Shopping: 0, model.Bills: 150, model.Food: 80, model.Health: 20}
	ApplySavingsGoal(res, 500)

	assert.False(t, res.Savings.Achievable)
	assert.InDelta(t, 260, res.Savings.Applied, 1e-6)
	for _, l := range res.Lines {
		assert.InDelta(t, floors[l.Category], l.Amount, 1e-6, l.Category)
	}
	assert.InDelta(t, 250, res.Total, 1e-6)
}

func TestGenerateWithSavingsGoal(t *testing.T) {
	table := pipeline.Build(dailyFood(monday, 63))
	res, err := NewStatistical().Generate(context.Background(), Request{
		Table: table, Period: model.PeriodWeekly, Policy: testPolicy(), SavingsGoal: 50,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Savings)
	assert.InDelta(t, 50, res.Savings.Applied, 1e-6)
	assert.InDelta(t, 160, line(t, res, model.Food).Amount, 1e-6)
}
