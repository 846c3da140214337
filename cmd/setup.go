package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/spendlens/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func validateAmount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func parseAmount(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func formatAmount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := loadConfig()

	user := cfg.General.DefaultUser
	period := cfg.Budget.Period
	timeframe := cfg.General.DefaultTimeframe
	monthly := formatAmount(cfg.MonthlyBudget())
	savings := formatAmount(cfg.Budget.SavingsGoal)
	backend := cfg.Cache.Backend
	redisAddr := cfg.Redis.Addr

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to spendlens").
				Description("A few settings for forecasts and budgets.\nEverything can be changed later."),
			huh.NewInput().
				Title("Default user").
				Value(&user),
			huh.NewSelect[string]().
				Title("Forecast timeframe").
				Options(
					huh.NewOption("Daily", "daily"),
					huh.NewOption("Weekly", "weekly"),
					huh.NewOption("Monthly", "monthly"),
				).
				Value(&timeframe),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Budget period").
				Options(
					huh.NewOption("Monthly", "monthly"),
					huh.NewOption("Weekly", "weekly"),
				).
				Value(&period),
			huh.NewInput().
				Title("Monthly budget").
				Description("Used by `spendlens check`. Leave blank to compare against history.").
				Validate(validateAmount).
				Value(&monthly),
			huh.NewInput().
				Title("Savings goal per period").
				Description("Cut from flexible categories first. Leave blank for none.").
				Validate(validateAmount).
				Value(&savings),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Result cache").
				Options(
					huh.NewOption("In memory", "memory"),
					huh.NewOption("Redis", "redis"),
					huh.NewOption("None", "none"),
				).
				Value(&backend),
			huh.NewInput().
				Title("Redis address").
				Description("Only used with the Redis cache.").
				Value(&redisAddr),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return err
	}

	if u := strings.TrimSpace(user); u != "" {
		cfg.General.DefaultUser = u
	}
	cfg.General.DefaultTimeframe = timeframe
	cfg.Budget.Period = period
	cfg.Budget.SavingsGoal = parseAmount(savings)
	if m := parseAmount(monthly); m > 0 {
		cfg.Budget.MonthlyBudget = &m
	} else {
		cfg.Budget.MonthlyBudget = nil
	}
	cfg.Cache.Backend = backend
	cfg.Redis.Addr = strings.TrimSpace(redisAddr)

	save := config.Save
	path := config.ConfigPath()
	if flagConfig != "" {
		path = flagConfig
		save = func(c config.Config) error { return config.SaveTo(flagConfig, c) }
	}
	if err := save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `spendlens setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
