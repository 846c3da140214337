package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain and store the user's ensemble forecaster",
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	c, cfg, err := remote()
	if err != nil {
		return err
	}
	if c != nil {
		res, err := c.Train(commandContext(cmd))
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("MODEL  "+remoteUser(cfg)) + cli.RenderModel(res)
		})
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		txs, err := a.transactions(ctx)
		if err != nil {
			return err
		}
		if !flagQuiet && !flagJSON {
			fmt.Fprintf(os.Stderr, "  Training on %s transactions...\n", cli.FormatNumber(int64(len(txs))))
		}
		res, err := a.engine.Train(ctx, a.user(), txs)
		if err != nil {
			return err
		}
		return output(res, func() string {
			return title("MODEL  "+a.user()) + cli.RenderModel(res)
		})
	})
}
