// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
)

// FormatMoney formats an amount with a currency sign and comma separators.
// e.g., 1234.5 -> "$1,234.50", -3 -> "-$3.00"
func FormatMoney(amount float64) string {
	return FormatDecimal(decimal.NewFromFloat(amount))
}

// FormatDecimal is FormatMoney for exact amounts.
func FormatDecimal(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatDecimal(d.Neg())
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return "$" + s
	}
	return "$" + FormatNumber(n) + "." + frac
}

// FormatCompact drops cents above 1000.
func FormatCompact(amount float64) string {
	if amount >= 1000 || amount <= -1000 {
		d := decimal.NewFromFloat(amount).Round(0)
		if d.IsNegative() {
			return "-$" + FormatNumber(-d.IntPart())
		}
		return "$" + FormatNumber(d.IntPart())
	}
	return FormatMoney(amount)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDelta formats the change from previous to current with a sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return "-" + FormatMoney(-delta)
}

// FormatFactor formats a multiplier, e.g. 1.32 -> "x1.32".
func FormatFactor(f float64) string {
	return fmt.Sprintf("x%.2f", f)
}

// FormatPeriod labels a forecast point by its bucket.
func FormatPeriod(p model.ForecastPoint) string {
	switch p.Timeframe {
	case model.Weekly:
		return p.WeekStart.Format("Jan 02") + " - " + p.WeekEnd.Format("Jan 02")
	case model.Monthly:
		if t, err := time.Parse("2006-01", p.Month); err == nil {
			return t.Format("Jan 2006")
		}
		return p.Month
	default:
		return p.Date.Format("Mon Jan 02")
	}
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
