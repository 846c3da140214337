package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{3, "$3.00"},
		{1234.5, "$1,234.50"},
		{-42.125, "-$42.13"},
		{1000000, "$1,000,000.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	if got := FormatDecimal(decimal.RequireFromString("9876.5")); got != "$9,876.50" {
		t.Errorf("got %q", got)
	}
}

func TestFormatCompact(t *testing.T) {
	if got := FormatCompact(1234.56); got != "$1,235" {
		t.Errorf("got %q", got)
	}
	if got := FormatCompact(12.5); got != "$12.50" {
		t.Errorf("got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(120, 100); got != "+$20.00" {
		t.Errorf("got %q", got)
	}
	if got := FormatDelta(80, 100); got != "-$20.00" {
		t.Errorf("got %q", got)
	}
}

func TestFormatPeriod(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if got := FormatPeriod(model.ForecastPoint{Date: day, Timeframe: model.Daily}); got != "Mon Mar 03" {
		t.Errorf("daily = %q", got)
	}
	wk := model.ForecastPoint{WeekStart: day, WeekEnd: day.AddDate(0, 0, 6), Timeframe: model.Weekly}
	if got := FormatPeriod(wk); got != "Mar 03 - Mar 09" {
		t.Errorf("weekly = %q", got)
	}
	if got := FormatPeriod(model.ForecastPoint{Month: "2025-04", Timeframe: model.Monthly}); got != "Apr 2025" {
		t.Errorf("monthly = %q", got)
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Category", "Amount"},
		Rows:    [][]string{{"Food", "$1.00"}, Separator, {"Total", "$100.00"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	width := len([]rune(lines[0]))
	for _, l := range lines {
		if n := len([]rune(l)); n != width {
			t.Errorf("ragged line %q (%d != %d)", l, n, width)
		}
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 7, 14}); got != "▁▄█" {
		t.Errorf("got %q", got)
	}
	if got := RenderSparkline([]float64{0, 0}); got != "▁▁" {
		t.Errorf("got %q", got)
	}
}

func TestRenderBudgetShowsSavings(t *testing.T) {
	out := RenderBudget(&model.BudgetResult{
		Period: model.PeriodMonthly,
		Lines:  []model.BudgetLine{{Category: "Food", Amount: 400, Floor: 100, AdjustmentFactor: 1}},
		Total:  400,
		Savings: &model.SavingsOutcome{
			Requested: 500, Applied: 300, Headroom: 300,
			Cuts: map[string]float64{"Food": 300},
		},
	})
	for _, want := range []string{"Monthly budget", "Food", "$400.00", "cut Food", "exceeds"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderForecastInsufficient(t *testing.T) {
	out := RenderForecast(&model.ForecastResult{Insufficient: true, Message: "insufficient history"})
	if !strings.Contains(out, "insufficient history") {
		t.Errorf("got %q", out)
	}
}
