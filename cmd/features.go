package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
)

var (
	flagFeaturesDir    string
	flagFeaturesWeekly bool
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Show the daily feature table built from transactions",
	RunE:  runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&flagFeaturesDir, "dir", "", "Read transaction files from dir instead of the store")
	featuresCmd.Flags().BoolVar(&flagFeaturesWeekly, "weekly", false, "Show weekly totals per category instead")
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	var txs []model.Transaction
	if flagFeaturesDir != "" {
		res, err := pipeline.Load(flagFeaturesDir, progress("Parsing"))
		if err != nil {
			return err
		}
		if !flagQuiet && res.TotalFiles > 0 {
			fmt.Fprintf(os.Stderr, "\r  Parsed %d files (%d bad rows)    \n", res.ParsedFiles, res.ParseErrors)
		}
		txs = res.Transactions
	} else {
		err := withApp(cmd, func(ctx context.Context, a *app) error {
			var err error
			txs, err = a.transactions(ctx)
			return err
		})
		if err != nil {
			return err
		}
	}

	table := pipeline.Build(txs)
	if flagFeaturesWeekly {
		weeks := pipeline.ResampleWeekly(table)
		return output(weeks, func() string { return renderWeeks(weeks) })
	}
	return output(featureRows(table), func() string { return cli.RenderFeatures(table) })
}

// featureRows flattens the table into one JSON object per day.
func featureRows(t *model.DailyTable) []map[string]any {
	rows := make([]map[string]any, t.Len())
	cols := t.SortedColumns()
	for i, d := range t.Dates {
		row := make(map[string]any, len(cols)+1)
		row["date"] = model.DayKey(d)
		for _, c := range cols {
			row[c] = t.Col(c)[i]
		}
		rows[i] = row
	}
	return rows
}

func renderWeeks(weeks []pipeline.Bucket) string {
	t := cli.Table{Title: "Weekly totals", Headers: []string{"Week"}}
	t.Headers = append(t.Headers, model.Categories...)
	t.Headers = append(t.Headers, "Total")
	totals := make([]float64, 0, len(weeks))
	for _, w := range weeks {
		label := w.Start.Format("2006-01-02")
		if !w.Complete() {
			label += "*"
		}
		row := []string{label}
		for _, c := range model.Categories {
			row = append(row, cli.FormatCompact(w.Sums[c]))
		}
		row = append(row, cli.FormatCompact(w.Total()))
		t.Rows = append(t.Rows, row)
		totals = append(totals, w.Total())
	}
	return cli.RenderTable(t) + cli.KeyValue("Trend", cli.RenderSparkline(totals)) +
		cli.KeyValue("", "* partial week")
}
