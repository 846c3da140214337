package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
)

// runSummary is the root command: forecast, budget, patterns and the
// overspending check side by side.
func runSummary(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		tf, err := parseTimeframe("", a.cfg.General.DefaultTimeframe)
		if err != nil {
			return err
		}
		s, err := a.engine.Summarize(ctx, engine.SummaryRequest{
			UserID:        a.user(),
			Transactions:  txs,
			Timeframe:     tf,
			Period:        model.BudgetPeriod(a.cfg.Budget.Period),
			SavingsGoal:   a.cfg.Budget.SavingsGoal,
			MonthlyBudget: a.cfg.MonthlyBudget(),
		})
		if err != nil {
			return err
		}
		return output(s, func() string {
			return title("SPENDLENS  "+a.user()) +
				cli.RenderForecast(s.Forecast) + "\n" +
				cli.RenderOverspend(s.Overspending) + "\n" +
				cli.RenderBudget(s.Budget) + "\n" +
				cli.RenderPatterns(s.Patterns)
		})
	})
}
