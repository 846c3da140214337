package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
)

var flagBacktestStrategy string

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score a forecaster on the last two weeks of history",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVarP(&flagBacktestStrategy, "strategy", "s", "", "autoregressive, ensemble or baseline (default autoregressive)")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		res, err := a.engine.Backtest(ctx, a.user(), txs, flagBacktestStrategy)
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("BACKTEST  "+a.user()) + cli.RenderBacktest(res)
		})
	})
}
