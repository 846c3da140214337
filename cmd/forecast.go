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
	flagHorizon   int
	flagTimeframe string
	flagStrategy  string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast upcoming spending",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&flagHorizon, "horizon", 0, "Periods to forecast (default from config)")
	forecastCmd.Flags().StringVarP(&flagTimeframe, "timeframe", "t", "", "daily, weekly or monthly (default from config)")
	forecastCmd.Flags().StringVarP(&flagStrategy, "strategy", "s", engine.StrategyAuto, "auto, ensemble, autoregressive or baseline")
	rootCmd.AddCommand(forecastCmd)
}

func parseTimeframe(s, fallback string) (model.Timeframe, error) {
	if s == "" {
		s = fallback
	}
	if s == "" {
		return model.Daily, nil
	}
	tf, ok := model.ParseTimeframe(s)
	if !ok {
		return "", fmt.Errorf("invalid timeframe %q (want daily, weekly or monthly)", s)
	}
	return tf, nil
}

func runForecast(cmd *cobra.Command, _ []string) error {
	c, cfg, err := remote()
	if err != nil {
		return err
	}
	if c != nil {
		tf, err := parseTimeframe(flagTimeframe, cfg.General.DefaultTimeframe)
		if err != nil {
			return err
		}
		res, err := c.Forecast(commandContext(cmd), client.ForecastParams{
			Horizon: flagHorizon, Timeframe: tf, Strategy: flagStrategy,
		})
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("FORECAST  "+remoteUser(cfg)) + cli.RenderForecast(res)
		})
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		tf, err := parseTimeframe(flagTimeframe, a.cfg.General.DefaultTimeframe)
		if err != nil {
			return err
		}
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		res, err := a.engine.Forecast(ctx, engine.ForecastRequest{
			UserID:       a.user(),
			Transactions: txs,
			Horizon:      flagHorizon,
			Timeframe:    tf,
			Strategy:     flagStrategy,
		})
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("FORECAST  "+a.user()) + cli.RenderForecast(res)
		})
	})
}
