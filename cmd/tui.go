package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/tui"
)

var flagRefresh time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&flagRefresh, "refresh", 0, "recompute periodically (e.g. 5m); 0 disables")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		// Log lines would tear the alternate screen.
		a.log.SetOutput(io.Discard)

		// Force TrueColor so background styling always produces ANSI codes.
		lipgloss.SetColorProfile(termenv.TrueColor)

		path := config.ConfigPath()
		if flagConfig != "" {
			path = flagConfig
		}
		// Only dashboard settings are written back; command-line overrides
		// in a.cfg stay out of the file.
		save := func(c config.Config) error {
			onDisk, err := config.LoadFrom(path)
			if err != nil {
				return err
			}
			onDisk.Budget = c.Budget
			onDisk.General.DefaultTimeframe = c.General.DefaultTimeframe
			onDisk.General.Theme = c.General.Theme
			return config.SaveTo(path, onDisk)
		}

		m := tui.NewApp(tui.Options{
			UserID:   a.user(),
			Config:   a.cfg,
			Analyzer: a.engine,
			Load: func(ctx context.Context) ([]model.Transaction, error) {
				return a.transactions(ctx)
			},
			Save:            save,
			RefreshInterval: flagRefresh,
		})
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
