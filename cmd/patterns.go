package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
)

var flagLookback int

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Detect recurring spend, spikes, trends and seasonality",
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().IntVar(&flagLookback, "lookback", 0, "Days to analyze (default from config)")
	rootCmd.AddCommand(patternsCmd)
}

func runPatterns(cmd *cobra.Command, _ []string) error {
	c, cfg, err := remote()
	if err != nil {
		return err
	}
	if c != nil {
		res, err := c.Patterns(commandContext(cmd), flagLookback)
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("PATTERNS  "+remoteUser(cfg)) + cli.RenderPatterns(res)
		})
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		res, err := a.engine.Patterns(ctx, a.user(), txs, flagLookback)
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("PATTERNS  "+a.user()) + cli.RenderPatterns(res)
		})
	})
}
