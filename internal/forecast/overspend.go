package forecast

import (
	"context"
	"fmt"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

const (
	// WeeksPerMonth scales a monthly budget to one week.
	WeeksPerMonth = 4.3
	// OverspendMargin is applied to the historical weekly average when no
	// budget is given.
	OverspendMargin = 1.2
)

// CheckOverspending forecasts the next seven days with f and compares the sum
// against monthlyBudget/4.3, or against 1.2x the historical weekly average
// when monthlyBudget is not positive.
func CheckOverspending(ctx context.Context, f Forecaster, req Request, monthlyBudget float64) (*model.OverspendCheck, error) {
	req.Horizon = 7
	req.Timeframe = model.Daily
	res, err := f.Forecast(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("overspending forecast: %w", err)
	}
	if res.Insufficient {
		return &model.OverspendCheck{Insufficient: true, Basis: "insufficient history"}, nil
	}

	check := &model.OverspendCheck{
		ProjectedWeekly: res.Sum(),
		Confidence:      res.Confidence,
	}
	if monthlyBudget > 0 {
		check.Threshold = monthlyBudget / WeeksPerMonth
		check.Basis = "budget"
	} else {
		check.Threshold = OverspendMargin * HistoricalWeeklyAverage(req.Transactions)
		check.Basis = "historical"
	}
	check.WillOverspend = check.Threshold > 0 && check.ProjectedWeekly > check.Threshold
	return check, nil
}

// HistoricalWeeklyAverage is the mean total of complete Monday-start weeks,
// or the daily mean times seven when no week is complete.
func HistoricalWeeklyAverage(txs []model.Transaction) float64 {
	table := pipeline.Build(txs)
	if table.Len() == 0 {
		return 0
	}
	var totals []float64
	for _, b := range pipeline.ResampleWeekly(table) {
		if b.Complete() {
			totals = append(totals, b.Total())
		}
	}
	if len(totals) == 0 {
		return stats.Mean(table.Total()) * 7
	}
	return stats.Mean(totals)
}
