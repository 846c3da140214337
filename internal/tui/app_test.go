package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/tui/components"
)

type fakeAnalyzer struct {
	invalidated int
	requests    []engine.SummaryRequest
	err         error
}

func (f *fakeAnalyzer) Summarize(_ context.Context, req engine.SummaryRequest) (*engine.Summary, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return sampleSummary(), nil
}

func (f *fakeAnalyzer) Invalidate(context.Context, string) error {
	f.invalidated++
	return nil
}

func sampleSummary() *engine.Summary {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	pts := make([]model.ForecastPoint, 7)
	for i := range pts {
		pts[i] = model.ForecastPoint{
			Date: day.AddDate(0, 0, i), Predicted: 40 + float64(i), Lower: 30, Upper: 60,
			Timeframe: model.Daily,
		}
	}
	return &engine.Summary{
		UserID: "alice",
		Forecast: &model.ForecastResult{
			Points: pts, Confidence: 0.72, Strategy: "ar", Timeframe: model.Daily,
			HistoryDays: 45, Drivers: []string{"weekday pattern"},
		},
		Budget: &model.BudgetResult{
			Lines: []model.BudgetLine{
				{Category: "Food", Amount: 600, Floor: 200, ActivityLevel: "frequent", AdjustmentFactor: 1, Confidence: 0.8},
				{Category: "Shopping", Amount: 150, Floor: 30, ActivityLevel: "occasional", AdjustmentFactor: 0.9, Confidence: 0.5},
			},
			Total:       750,
			Period:      model.PeriodMonthly,
			Methodology: model.Methodology{Approach: "statistical", DataQuality: "good", DaysOfData: 45},
			Savings:     &model.SavingsOutcome{Requested: 100, Applied: 100, Achievable: true, Cuts: map[string]float64{"Shopping": 100}},
		},
		Patterns: &model.PatternFindings{Insufficient: true, DaysAnalyzed: 10},
		Overspending: &model.OverspendCheck{
			WillOverspend: true, ProjectedWeekly: 320, Threshold: 250, Basis: "budget",
		},
	}
}

func newTestApp(f *fakeAnalyzer) App {
	cfg := config.DefaultConfig()
	return NewApp(Options{
		UserID:   "alice",
		Config:   cfg,
		Analyzer: f,
		Load: func(context.Context) ([]model.Transaction, error) {
			return []model.Transaction{{Date: time.Now(), Amount: decimal.NewFromInt(12), Category: "Food"}}, nil
		},
	})
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	out, ok := m.(App)
	require.True(t, ok)
	return out
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedApp(t *testing.T, f *fakeAnalyzer) App {
	a := newTestApp(f)
	a = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 50})
	return update(t, a, SummaryMsg{Summary: sampleSummary(), Transactions: 1})
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			assert.Equal(t, i, a.tabAtX(pos+w/2), "active=%d tab=%d", active, i)
			pos += w + 1
		}
		assert.Equal(t, -1, a.tabAtX(pos+50))
	}
}

func TestComputeCmdInvalidatesAndSummarizes(t *testing.T) {
	f := &fakeAnalyzer{}
	a := newTestApp(f)

	msg, ok := a.computeCmd(true)().(SummaryMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, 1, f.invalidated)
	assert.Equal(t, 1, msg.Transactions)
	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "alice", req.UserID)
	assert.Equal(t, model.Daily, req.Timeframe)
	assert.Equal(t, model.PeriodMonthly, req.Period)
}

func TestComputeCmdReportsErrors(t *testing.T) {
	f := &fakeAnalyzer{err: errors.New("boom")}
	a := newTestApp(f)
	a = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})

	msg := a.computeCmd(false)()
	a = update(t, a, msg)
	assert.False(t, a.loaded)
	assert.False(t, a.computing)
	assert.Contains(t, a.View(), "boom")
}

func TestKeysSwitchTabsAndTimeframe(t *testing.T) {
	a := loadedApp(t, &fakeAnalyzer{})
	require.True(t, a.loaded)

	a = update(t, a, keyMsg("b"))
	assert.Equal(t, 1, a.activeTab)
	a = update(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, a.activeTab)
	a = update(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 3, a.activeTab)

	a = update(t, a, keyMsg("t"))
	assert.Equal(t, model.Weekly, a.timeframe)
	assert.True(t, a.computing)

	// Ignored while a computation is running.
	a = update(t, a, keyMsg("t"))
	assert.Equal(t, model.Weekly, a.timeframe)
}

func TestTabsRender(t *testing.T) {
	a := loadedApp(t, &fakeAnalyzer{})

	want := []string{"Over budget", "Total budget", "Not enough history", "not enough active days"}
	for i, w := range want {
		a.activeTab = i
		assert.Contains(t, a.View(), w, "tab %d", i)
	}
}

func TestSettingsApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := settingsValues{period: "weekly", savings: "50", monthly: "", timeframe: "weekly", theme: "terminal"}
	out := vals.apply(cfg)

	assert.Equal(t, "weekly", out.Budget.Period)
	assert.InDelta(t, 50, out.Budget.SavingsGoal, 1e-9)
	assert.Nil(t, out.Budget.MonthlyBudget)
	assert.Equal(t, "terminal", out.General.Theme)

	vals.monthly = "1200"
	assert.InDelta(t, 1200, vals.apply(cfg).MonthlyBudget(), 1e-9)
}

func TestValidAmount(t *testing.T) {
	assert.NoError(t, validAmount(""))
	assert.NoError(t, validAmount(" 12.5 "))
	assert.Error(t, validAmount("abc"))
	assert.Error(t, validAmount("-3"))
}
