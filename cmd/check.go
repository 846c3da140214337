package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
)

var flagMonthlyBudget float64

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether next week's spending is on track",
	Long: "Projects the next 7 days and compares them with the monthly budget spread\n" +
		"over 4.3 weeks, or with the historical weekly average when no budget is set.",
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Float64Var(&flagMonthlyBudget, "budget", -1, "Monthly budget (default from config; 0 compares against history)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	c, cfg, err := remote()
	if err != nil {
		return err
	}
	if c != nil {
		res, err := c.Overspending(commandContext(cmd), flagMonthlyBudget)
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("SPENDING CHECK  "+remoteUser(cfg)) + cli.RenderOverspend(res)
		})
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		monthly := a.cfg.MonthlyBudget()
		if flagMonthlyBudget >= 0 {
			monthly = flagMonthlyBudget
		}
		res, err := a.engine.CheckOverspending(ctx, a.user(), txs, monthly)
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("SPENDING CHECK  "+a.user()) + cli.RenderOverspend(res)
		})
	})
}
