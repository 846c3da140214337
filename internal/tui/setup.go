package tui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/tui/theme"
)

// settingsValues backs the settings form. Amounts are kept as text while
// editing.
type settingsValues struct {
	period    string
	savings   string
	monthly   string
	timeframe string
	theme     string
}

func valuesFromConfig(cfg config.Config) *settingsValues {
	return &settingsValues{
		period:    cfg.Budget.Period,
		savings:   amountText(cfg.Budget.SavingsGoal),
		monthly:   amountText(cfg.MonthlyBudget()),
		timeframe: cfg.General.DefaultTimeframe,
		theme:     theme.Active.Name,
	}
}

func amountText(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func validAmount(s string) error {
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

func newSettingsForm(vals *settingsValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Budget period").
				Options(
					huh.NewOption("Monthly", "monthly"),
					huh.NewOption("Weekly", "weekly"),
				).
				Value(&vals.period),
			huh.NewInput().
				Title("Savings goal per period").
				Description("Taken from flexible categories first. Blank for none.").
				Validate(validAmount).
				Value(&vals.savings),
			huh.NewInput().
				Title("Monthly budget").
				Description("Threshold for the overspending check. Blank to use history.").
				Validate(validAmount).
				Value(&vals.monthly),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Forecast timeframe").
				Options(
					huh.NewOption("Daily", "daily"),
					huh.NewOption("Weekly", "weekly"),
					huh.NewOption("Monthly", "monthly"),
				).
				Value(&vals.timeframe),
			huh.NewSelect[string]().
				Title("Theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithShowHelp(true)
}

// apply copies the form values into cfg.
func (v settingsValues) apply(cfg config.Config) config.Config {
	cfg.Budget.Period = v.period
	cfg.Budget.SavingsGoal, _ = strconv.ParseFloat(strings.TrimSpace(v.savings), 64)
	if m, _ := strconv.ParseFloat(strings.TrimSpace(v.monthly), 64); m > 0 {
		cfg.Budget.MonthlyBudget = &m
	} else {
		cfg.Budget.MonthlyBudget = nil
	}
	cfg.General.DefaultTimeframe = v.timeframe
	cfg.General.Theme = v.theme
	return cfg
}

func (a App) openSettings() (tea.Model, tea.Cmd) {
	a.settingsVals = valuesFromConfig(a.cfg)
	a.settingsForm = newSettingsForm(a.settingsVals)
	if a.width > 0 {
		a.settingsForm = a.settingsForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a, a.settingsForm.Init()
}

func (a App) updateSettingsForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.settingsForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.settingsForm = f
	}

	switch a.settingsForm.State {
	case huh.StateAborted:
		a.settingsForm = nil
		return a, nil
	case huh.StateCompleted:
		a.settingsForm = nil
		a.cfg = a.settingsVals.apply(a.cfg)
		theme.SetActive(a.cfg.General.Theme)
		if tf, ok := model.ParseTimeframe(a.cfg.General.DefaultTimeframe); ok {
			a.timeframe = tf
		}
		if a.opts.Save != nil {
			if err := a.opts.Save(a.cfg); err != nil {
				a.err = err
			}
		}
		a.computing = true
		return a, tea.Batch(a.computeCmd(false), a.spinner.Tick)
	}
	return a, cmd
}
