package forecast

import (
	"context"
	"math"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// BaselineName identifies the trailing-mean strategy.
const BaselineName = "baseline"

const (
	baselineDays       = 30
	baselineZ          = 1.645
	baselineConfidence = 0.4
)

// Baseline forecasts every day as the trailing 30-day mean with a 90%
// normal band. It needs no training and is the last-resort fallback.
type Baseline struct{}

// NewBaseline creates the strategy.
func NewBaseline() *Baseline { return &Baseline{} }

// Name implements Forecaster.
func (b *Baseline) Name() string { return BaselineName }

// Forecast implements Forecaster.
func (b *Baseline) Forecast(ctx context.Context, req Request) (*model.ForecastResult, error) {
	days := pipeline.AggregateDays(req.Transactions)
	if res := precheck(b.Name(), req, len(days)); res != nil {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tf := req.Timeframe
	if tf == "" {
		tf = model.Daily
	}

	w := NewWindow()
	totals := make([]float64, 0, len(days))
	for _, d := range days {
		total := 0.0
		for _, c := range model.Categories {
			total += d.Categories[c]
		}
		totals = append(totals, total)
		w.Push(d.Date, total, d.Categories)
	}
	if len(totals) > baselineDays {
		totals = totals[len(totals)-baselineDays:]
	}
	mean := stats.Mean(totals)
	spread := baselineZ * stats.StdDev(totals)

	n := horizonDays(w.Next(), req.Horizon, tf)
	points := make([]dailyPoint, 0, n)
	day := w.Next()
	for i := 0; i < n; i++ {
		points = append(points, dailyPoint{
			date:      day,
			predicted: mean,
			lower:     math.Max(0, mean-spread),
			upper:     mean + spread,
		})
		day = day.AddDate(0, 0, 1)
	}

	return &model.ForecastResult{
		Points:      bucketize(points, tf),
		Confidence:  baselineConfidence,
		Drivers:     []string{DriverLabel(model.RollingColumn("total", "mean", baselineDays))},
		Strategy:    b.Name(),
		Timeframe:   tf,
		HistoryDays: len(days),
	}, nil
}
