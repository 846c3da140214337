package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// AutoRegressiveName identifies the auto-regressive strategy.
const AutoRegressiveName = "autoregressive"

const (
	arTrainDays = 90
	arLowerPct  = 10
	arUpperPct  = 90
)

// AutoRegressive trains a tree ensemble on the trailing 90 days of each
// request's history and rolls it forward one day at a time. It keeps no
// state between calls.
type AutoRegressive struct {
	params ForestParams
}

// NewAutoRegressive creates the strategy.
func NewAutoRegressive(params ForestParams) *AutoRegressive {
	return &AutoRegressive{params: params.normalized()}
}

// Name implements Forecaster.
func (a *AutoRegressive) Name() string { return AutoRegressiveName }

// arFeatureNames lists the columns produced by arFeatures, in order.
func arFeatureNames() []string {
	names := []string{
		model.ColDOW, model.ColWeekend, model.ColMonthStart, model.ColMonthEnd,
		model.LagColumn("total", 1), model.LagColumn("total", 2), model.LagColumn("total", 3),
		model.RollingColumn("total", "mean", 7),
	}
	for _, c := range model.KeyCategories {
		names = append(names, model.LagColumn(c, 1))
	}
	return names
}

// arFeatures builds the feature row for day from values strictly before it.
func arFeatures(day time.Time, w *Window) []float64 {
	wd := pipeline.Weekday(day)
	row := []float64{
		float64(wd),
		boolf(wd >= 5),
		boolf(day.Day() == 1),
		boolf(day.AddDate(0, 0, 1).Day() == 1),
		w.Lag(1), w.Lag(2), w.Lag(3),
		stats.Mean(w.Trailing(7)),
	}
	for _, c := range model.KeyCategories {
		row = append(row, w.CategoryLag(c, 1))
	}
	return row
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// arModel is a trained auto-regressive model plus the state needed to roll
// it forward.
type arModel struct {
	forest *Forest
	window *Window
	shares map[string]float64
	days   int
}

// trainAR replays the daily history through a window, recording each day's
// features before the day itself is pushed. Only the trailing arTrainDays
// rows become training examples.
func trainAR(ctx context.Context, days []pipeline.DaySums, params ForestParams) (*arModel, error) {
	w := NewWindow()
	var x [][]float64
	var y []float64
	firstTrain := len(days) - arTrainDays
	if firstTrain < 1 {
		firstTrain = 1
	}
	for i, d := range days {
		total := 0.0
		for _, c := range model.Categories {
			total += d.Categories[c]
		}
		if i >= firstTrain {
			x = append(x, arFeatures(d.Date, w))
			y = append(y, total)
		}
		w.Push(d.Date, total, d.Categories)
	}

	forest, err := FitForest(ctx, x, y, arFeatureNames(), params)
	if err != nil {
		return nil, fmt.Errorf("training auto-regressive ensemble: %w", err)
	}
	return &arModel{forest: forest, window: w, shares: w.Shares(), days: len(days)}, nil
}

// next predicts the day after the window's last day.
func (m *arModel) next(w *Window) dailyPoint {
	day := w.Next()
	point, lower, upper := band(m.forest.PredictAll(arFeatures(day, w)), arLowerPct, arUpperPct)
	return dailyPoint{date: day, predicted: point, lower: lower, upper: upper}
}

// roll produces n daily points, feeding each prediction back into w.
func (m *arModel) roll(ctx context.Context, w *Window, n int) ([]dailyPoint, error) {
	out := make([]dailyPoint, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dp := m.next(w)
		w.Push(dp.date, dp.predicted, Split(dp.predicted, m.shares))
		out = append(out, dp)
	}
	return out, nil
}

// Forecast implements Forecaster.
func (a *AutoRegressive) Forecast(ctx context.Context, req Request) (*model.ForecastResult, error) {
	days := pipeline.AggregateDays(req.Transactions)
	if res := precheck(a.Name(), req, len(days)); res != nil {
		return res, nil
	}
	tf := req.Timeframe
	if tf == "" {
		tf = model.Daily
	}

	m, err := trainAR(ctx, days, a.params)
	if err != nil {
		return nil, err
	}
	n := horizonDays(m.window.Next(), req.Horizon, tf)
	points, err := m.roll(ctx, m.window.Clone(), n)
	if err != nil {
		return nil, err
	}

	return &model.ForecastResult{
		Points:      bucketize(points, tf),
		Confidence:  math.Min(0.95, 0.5+float64(m.days)/200),
		Drivers:     Drivers(m.forest.Ranked()),
		Strategy:    a.Name(),
		Timeframe:   tf,
		HistoryDays: m.days,
	}, nil
}
