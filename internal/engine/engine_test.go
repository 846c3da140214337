package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/budget"
	"github.com/theirongolddev/spendlens/internal/cache"
	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/forecast"
	"github.com/theirongolddev/spendlens/internal/logging"
	"github.com/theirongolddev/spendlens/internal/model"
)

var start = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func history(days int) []model.Transaction {
	var txs []model.Transaction
	for d := 0; d < days; d++ {
		txs = append(txs, model.Transaction{
			ID:       "f" + start.AddDate(0, 0, d).Format("20060102"),
			Date:     start.AddDate(0, 0, d),
			Amount:   decimal.NewFromInt(int64(25 + d%4)),
			Category: model.Food,
			Type:     model.Expense,
		})
		if d%7 == 4 {
			txs = append(txs, model.Transaction{
				ID:       "s" + start.AddDate(0, 0, d).Format("20060102"),
				Date:     start.AddDate(0, 0, d),
				Amount:   decimal.NewFromInt(90),
				Category: model.Shopping,
				Type:     model.Expense,
			})
		}
	}
	return txs
}

type savedResult struct{ user, kind, params string }

type memResults struct {
	mu    sync.Mutex
	saved []savedResult
}

func (m *memResults) SaveResult(_ context.Context, userID, kind, params string, _ any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, savedResult{userID, kind, params})
	return "id", nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func testEngine(t *testing.T) (*Engine, *recorder, *memResults) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Engine.Trees = 10
	cfg.Engine.MaxDepth = 5
	rec := &recorder{}
	results := &memResults{}
	e := New(Options{
		Config:  cfg,
		Cache:   cache.NewMemory(nil),
		Results: results,
		Logger:  logging.Discard(),
		OnEvent: rec.add,
	})
	return e, rec, results
}

func TestForecastStrategySelection(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()

	short, err := e.Forecast(ctx, ForecastRequest{UserID: "u1", Transactions: history(30)})
	require.NoError(t, err)
	assert.Equal(t, forecast.AutoRegressiveName, short.Strategy)
	assert.Len(t, short.Points, 7)

	long, err := e.Forecast(ctx, ForecastRequest{UserID: "u2", Transactions: history(90)})
	require.NoError(t, err)
	assert.Equal(t, forecast.EnsembleName, long.Strategy)

	_, ok := e.Registry().Cached("u2")
	assert.True(t, ok)
	_, ok = e.Registry().Cached("u1")
	assert.False(t, ok)
}

func TestForecastReadsThroughCache(t *testing.T) {
	e, rec, results := testEngine(t)
	ctx := context.Background()
	req := ForecastRequest{UserID: "u1", Transactions: history(40), Horizon: 3}

	first, err := e.Forecast(ctx, req)
	require.NoError(t, err)
	assert.False(t, rec.last().Cached)

	second, err := e.Forecast(ctx, req)
	require.NoError(t, err)
	assert.True(t, rec.last().Cached)
	assert.InDelta(t, first.Sum(), second.Sum(), 1e-9)
	assert.Len(t, results.saved, 1)

	require.NoError(t, e.Invalidate(ctx, "u1"))
	_, err = e.Forecast(ctx, req)
	require.NoError(t, err)
	assert.False(t, rec.last().Cached)
}

func TestChangedDataMissesCache(t *testing.T) {
	e, rec, _ := testEngine(t)
	ctx := context.Background()

	_, err := e.Patterns(ctx, "u1", history(40), 0)
	require.NoError(t, err)
	_, err = e.Patterns(ctx, "u1", history(41), 0)
	require.NoError(t, err)
	assert.False(t, rec.last().Cached)
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Forecast(context.Context, forecast.Request) (*model.ForecastResult, error) {
	return nil, errors.New("boom")
}

func TestChainFallsBack(t *testing.T) {
	c := &chain{strategies: []forecast.Forecaster{failing{}, forecast.NewBaseline()}, log: logging.Discard()}
	res, err := c.Forecast(context.Background(), forecast.Request{Transactions: history(30), Horizon: 2})
	require.NoError(t, err)
	assert.Equal(t, forecast.BaselineName, res.Strategy)

	c = &chain{strategies: []forecast.Forecaster{failing{}}, log: logging.Discard()}
	_, err = c.Forecast(context.Background(), forecast.Request{Transactions: history(30)})
	assert.Error(t, err)
}

func TestBudgetStrategySelection(t *testing.T) {
	e, rec, _ := testEngine(t)
	ctx := context.Background()

	res, err := e.Budget(ctx, BudgetRequest{UserID: "u1", Transactions: history(40), Period: model.PeriodWeekly})
	require.NoError(t, err)
	assert.Equal(t, budget.StatisticalName, res.Methodology.Approach)
	assert.Equal(t, budget.StatisticalName, rec.last().Strategy)

	res, err = e.Budget(ctx, BudgetRequest{UserID: "u1", Transactions: history(70), Period: model.PeriodWeekly})
	require.NoError(t, err)
	assert.Equal(t, "advanced-weekly", res.Methodology.Approach)

	res, err = e.Budget(ctx, BudgetRequest{UserID: "u1", Transactions: history(70), Period: model.PeriodWeekly, Strategy: budget.StatisticalName})
	require.NoError(t, err)
	assert.Equal(t, budget.StatisticalName, res.Methodology.Approach)
	for _, l := range res.Lines {
		assert.GreaterOrEqual(t, l.Amount, l.Floor, l.Category)
	}
}

func TestUnknownStrategies(t *testing.T) {
	e, _, _ := testEngine(t)
	_, err := e.Forecast(context.Background(), ForecastRequest{UserID: "u1", Transactions: history(30), Strategy: "magic"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = e.Budget(context.Background(), BudgetRequest{UserID: "u1", Transactions: history(30), Strategy: "magic"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestForecastRejectsLongHorizon(t *testing.T) {
	e, rec, _ := testEngine(t)
	ctx := context.Background()

	_, err := e.Forecast(ctx, ForecastRequest{UserID: "u1", Transactions: history(30), Horizon: 1 << 40})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = e.Forecast(ctx, ForecastRequest{UserID: "u1", Transactions: history(30), Horizon: 53, Timeframe: model.Weekly})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, rec.events)

	res, err := e.Forecast(ctx, ForecastRequest{UserID: "u1", Transactions: history(30), Horizon: 52, Timeframe: model.Weekly})
	require.NoError(t, err)
	assert.Len(t, res.Points, 52)
}

func TestForecastHorizonLimitConfigurable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.Trees = 5
	cfg.Engine.MaxHorizonDays = 30
	e := New(Options{Config: cfg, Logger: logging.Discard()})

	_, err := e.Forecast(context.Background(), ForecastRequest{UserID: "u1", Transactions: history(30), Horizon: 31})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = e.Forecast(context.Background(), ForecastRequest{UserID: "u1", Transactions: history(30), Horizon: 30})
	assert.NoError(t, err)
}

func TestInsufficientHistoryIsData(t *testing.T) {
	e, _, _ := testEngine(t)
	res, err := e.Forecast(context.Background(), ForecastRequest{UserID: "u1", Transactions: history(5)})
	require.NoError(t, err)
	assert.True(t, res.Insufficient)

	_, err = e.Train(context.Background(), "u1", history(5))
	assert.ErrorIs(t, err, forecast.ErrInsufficientHistory)
}

func TestTrain(t *testing.T) {
	e, _, _ := testEngine(t)
	summary, err := e.Train(context.Background(), "u1", history(80))
	require.NoError(t, err)
	assert.Equal(t, "u1", summary.UserID)
	assert.Equal(t, 10, summary.Trees)
	assert.Equal(t, 79, summary.Metrics.TrainRows)
	assert.NotEmpty(t, summary.Importance)

	art, ok := e.Registry().Cached("u1")
	require.True(t, ok)
	assert.Equal(t, summary.Fingerprint, art.Fingerprint)
}

func TestBacktest(t *testing.T) {
	e, _, _ := testEngine(t)
	report, err := e.Backtest(context.Background(), "u1", history(60), "")
	require.NoError(t, err)
	assert.Equal(t, forecast.AutoRegressiveName, report.Strategy)
	assert.Len(t, report.Weekly, 2)
}

func TestSummarize(t *testing.T) {
	e, _, _ := testEngine(t)
	s, err := e.Summarize(context.Background(), SummaryRequest{
		UserID:        "u1",
		Transactions:  history(75),
		Horizon:       7,
		Period:        model.PeriodMonthly,
		MonthlyBudget: 2000,
	})
	require.NoError(t, err)
	require.NotNil(t, s.Forecast)
	require.NotNil(t, s.Budget)
	require.NotNil(t, s.Patterns)
	require.NotNil(t, s.Overspending)
	assert.Equal(t, "budget", s.Overspending.Basis)
	assert.False(t, s.Patterns.Insufficient)
}

func TestFingerprintStable(t *testing.T) {
	assert.Equal(t, Fingerprint(history(20)), Fingerprint(history(20)))
	assert.NotEqual(t, Fingerprint(history(20)), Fingerprint(history(21)))
}
