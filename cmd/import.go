package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/cli"
	"github.com/theirongolddev/spendlens/internal/pipeline"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import CSV and JSONL transaction files from a directory",
	Long: "Scans dir for .csv and .jsonl files and stores their transactions for the user.\n" +
		"Files that have not changed since the last import are skipped; files that\n" +
		"disappeared are removed along with their transactions.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Scanning %s...\n", args[0])
		}
		res, err := pipeline.ImportIncremental(ctx, args[0], a.user(), a.store, progress("Parsing"))
		if err != nil {
			return err
		}
		if !flagQuiet && res.Reparsed > 0 {
			fmt.Fprintln(os.Stderr)
		}
		if res.Reparsed > 0 || res.Removed > 0 {
			if err := a.engine.Invalidate(ctx, a.user()); err != nil {
				a.log.WithError(err).Warn("invalidating after import")
			}
		}

		return output(res, func() string {
			return title("IMPORT  "+a.user()) +
				cli.KeyValue("Files", fmt.Sprintf("%d (%d accounts)", res.TotalFiles, res.AccountCount)) +
				cli.KeyValue("Unchanged", cli.FormatNumber(int64(res.Unchanged))) +
				cli.KeyValue("Parsed", cli.FormatNumber(int64(res.Reparsed))) +
				cli.KeyValue("Removed", cli.FormatNumber(int64(res.Removed))) +
				cli.KeyValue("Bad rows", cli.FormatNumber(int64(res.ParseErrors))) +
				cli.KeyValue("Unreadable files", cli.FormatNumber(int64(res.FileErrors))) +
				cli.KeyValue("Transactions", cli.FormatNumber(int64(len(res.Transactions))))
		})
	})
}
