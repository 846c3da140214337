package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
)

// BacktestDays is the held-out tail scored by Backtest.
const BacktestDays = 14

// Backtest holds out the last 14 days, forecasts them from the remaining
// history and scores the 14 daily points and two weekly sums.
func Backtest(ctx context.Context, f Forecaster, req Request) (*model.BacktestReport, error) {
	days := pipeline.AggregateDays(req.Transactions)
	if len(days) < MinHistoryDays+BacktestDays {
		return nil, fmt.Errorf("backtest needs %d days, have %d: %w",
			MinHistoryDays+BacktestDays, len(days), ErrInsufficientHistory)
	}
	cutoff := days[len(days)-BacktestDays].Date
	held := days[len(days)-BacktestDays:]

	train := req
	train.Transactions = pipeline.FilterByTime(req.Transactions, time.Time{}, cutoff)
	train.Horizon = BacktestDays
	train.Timeframe = model.Daily
	res, err := f.Forecast(ctx, train)
	if err != nil {
		return nil, fmt.Errorf("backtest forecast: %w", err)
	}
	if res.Insufficient || len(res.Points) < BacktestDays {
		return nil, fmt.Errorf("backtest forecast: %w", ErrInsufficientHistory)
	}

	report := &model.BacktestReport{Strategy: res.Strategy}
	var absErr float64
	for i, d := range held {
		actual := 0.0
		for _, c := range model.Categories {
			actual += d.Categories[c]
		}
		p := model.BacktestPoint{Start: d.Date, Actual: actual, Predicted: res.Points[i].Predicted}
		report.Daily = append(report.Daily, p)
		absErr += math.Abs(p.Predicted - p.Actual)
		if p.Predicted > p.Actual {
			report.DailyOver++
		} else if p.Predicted < p.Actual {
			report.DailyUnder++
		}
	}
	report.DailyMAE = absErr / BacktestDays

	for w := 0; w < BacktestDays/7; w++ {
		week := model.BacktestPoint{Start: report.Daily[w*7].Start}
		for _, p := range report.Daily[w*7 : w*7+7] {
			week.Actual += p.Actual
			week.Predicted += p.Predicted
		}
		report.Weekly = append(report.Weekly, week)
		if week.Predicted > week.Actual {
			report.WeeklyOver++
		} else if week.Predicted < week.Actual {
			report.WeeklyUnder++
		}
	}
	return report, nil
}
