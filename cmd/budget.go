package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/client"
	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
)

var (
	flagPeriod         string
	flagSavings        float64
	flagMonth          string
	flagBudgetStrategy string
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Recommend a per-category budget for the next period",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().StringVarP(&flagPeriod, "period", "p", "", "weekly or monthly (default from config)")
	budgetCmd.Flags().Float64Var(&flagSavings, "savings", -1, "Savings goal to cut from the budget (default from config)")
	budgetCmd.Flags().StringVar(&flagMonth, "month", "", "Target month label, YYYY-MM (default: month after the data)")
	budgetCmd.Flags().StringVarP(&flagBudgetStrategy, "strategy", "s", engine.StrategyAuto, "auto, statistical or advanced")
	rootCmd.AddCommand(budgetCmd)
}

func parsePeriod(s string) (model.BudgetPeriod, error) {
	switch p := model.BudgetPeriod(s); p {
	case "", model.PeriodWeekly, model.PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period %q (want weekly or monthly)", s)
	}
}

func runBudget(cmd *cobra.Command, _ []string) error {
	c, cfg, err := remote()
	if err != nil {
		return err
	}
	if c != nil {
		period, err := parsePeriod(flagPeriod)
		if err != nil {
			return err
		}
		savings := cfg.Budget.SavingsGoal
		if flagSavings >= 0 {
			savings = flagSavings
		}
		res, err := c.Budget(commandContext(cmd), client.BudgetParams{
			Period: period, SavingsGoal: savings, Month: flagMonth, Strategy: flagBudgetStrategy,
		})
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("BUDGET  "+remoteUser(cfg)) + cli.RenderBudget(res)
		})
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		period, err := parsePeriod(flagPeriod)
		if err != nil {
			return err
		}
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		savings := a.cfg.Budget.SavingsGoal
		if flagSavings >= 0 {
			savings = flagSavings
		}
		res, err := a.engine.Budget(ctx, engine.BudgetRequest{
			UserID:       a.user(),
			Transactions: txs,
			Period:       period,
			TargetMonth:  flagMonth,
			SavingsGoal:  savings,
			Strategy:     flagBudgetStrategy,
		})
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("BUDGET  "+a.user()) + cli.RenderBudget(res)
		})
	})
}
