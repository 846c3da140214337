package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/spendlens/internal/model"
)

// Summary bundles every result for one user.
type Summary struct {
	UserID       string                 `json:"user_id"`
	Forecast     *model.ForecastResult  `json:"forecast"`
	Budget       *model.BudgetResult    `json:"budget"`
	Patterns     *model.PatternFindings `json:"patterns"`
	Overspending *model.OverspendCheck  `json:"overspending"`
}

// SummaryRequest selects the parameters for Summarize.
type SummaryRequest struct {
	UserID        string
	Transactions  []model.Transaction
	Horizon       int
	Timeframe     model.Timeframe
	Period        model.BudgetPeriod
	SavingsGoal   float64
	MonthlyBudget float64
}

// Summarize runs the four user-facing operations concurrently. The first
// failure cancels the rest.
func (e *Engine) Summarize(ctx context.Context, req SummaryRequest) (*Summary, error) {
	out := &Summary{UserID: req.UserID}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := e.Forecast(ctx, ForecastRequest{
			UserID: req.UserID, Transactions: req.Transactions,
			Horizon: req.Horizon, Timeframe: req.Timeframe,
		})
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		out.Forecast = res
		return nil
	})
	g.Go(func() error {
		res, err := e.Budget(ctx, BudgetRequest{
			UserID: req.UserID, Transactions: req.Transactions,
			Period: req.Period, SavingsGoal: req.SavingsGoal,
		})
		if err != nil {
			return fmt.Errorf("budget: %w", err)
		}
		out.Budget = res
		return nil
	})
	g.Go(func() error {
		res, err := e.Patterns(ctx, req.UserID, req.Transactions, 0)
		if err != nil {
			return fmt.Errorf("patterns: %w", err)
		}
		out.Patterns = res
		return nil
	})
	g.Go(func() error {
		res, err := e.CheckOverspending(ctx, req.UserID, req.Transactions, req.MonthlyBudget)
		if err != nil {
			return fmt.Errorf("overspending: %w", err)
		}
		out.Overspending = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
