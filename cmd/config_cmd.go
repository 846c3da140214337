package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagJSON {
		return output(cfg, nil)
	}

	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfig != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default user:      %s\n", cfg.General.DefaultUser)
	fmt.Printf("    Forecast horizon:  %d\n", cfg.General.ForecastHorizon)
	fmt.Printf("    Timeframe:         %s\n", cfg.General.DefaultTimeframe)
	fmt.Printf("    Pattern lookback:  %d days\n", cfg.General.LookbackDays)
	fmt.Println()

	fmt.Println("  [Engine]")
	fmt.Printf("    Ensemble from:     %d days of history\n", cfg.Engine.EnsembleMinDays)
	fmt.Printf("    Advanced budget:   %d days of history\n", cfg.Engine.AdvancedBudgetDays)
	fmt.Printf("    Forest:            %d trees, depth %d, seed %d\n", cfg.Engine.Trees, cfg.Engine.MaxDepth, cfg.Engine.Seed)
	fmt.Printf("    CV folds:          %d\n", cfg.Engine.CVFolds)
	fmt.Printf("    Max horizon days:  %d\n", cfg.Engine.MaxHorizonDays)
	fmt.Println()

	fmt.Println("  [Storage]")
	db := cfg.Store.Path
	if db == "" {
		db = "(default)"
	}
	fmt.Printf("    Database:          %s\n", db)
	fmt.Printf("    Cache:             %s, ttl %s\n", cfg.Cache.Backend, cfg.Cache.TTL())
	if cfg.Cache.Backend == "redis" {
		fmt.Printf("    Redis:             %s db %d\n", cfg.Redis.Addr, cfg.Redis.DB)
	}
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Period:            %s\n", cfg.Budget.Period)
	if cfg.Budget.SavingsGoal > 0 {
		fmt.Printf("    Savings goal:      $%.2f\n", cfg.Budget.SavingsGoal)
	}
	if m := cfg.MonthlyBudget(); m > 0 {
		fmt.Printf("    Monthly budget:    $%.2f\n", m)
	} else {
		fmt.Println("    Monthly budget:    not set (checks use history)")
	}
	if len(cfg.Policy) > 0 {
		cats := make([]string, 0, len(cfg.Policy))
		for c := range cfg.Policy {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		fmt.Println("    Policy overrides:")
		for _, c := range cats {
			p := cfg.Policy[c]
			line := "      " + c + ":"
			if p.Floor != nil {
				line += fmt.Sprintf(" floor $%.0f", *p.Floor)
			}
			if p.Elasticity != nil {
				line += fmt.Sprintf(" elasticity %.2f", *p.Elasticity)
			}
			fmt.Println(line)
		}
	}
	fmt.Println()

	fmt.Println("  Run `spendlens setup` to reconfigure.")
	return nil
}
