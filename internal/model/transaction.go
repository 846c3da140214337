// Package model defines domain types for spendlens transactions and analytics results.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxType distinguishes spending from income.
type TxType string

const (
	Expense TxType = "expense"
	Income  TxType = "income"
)

// Category names of the fixed category set.
const (
	Food          = "Food"
	Groceries     = "Groceries"
	Transport     = "Transport"
	Shopping      = "Shopping"
	Entertainment = "Entertainment"
	Bills         = "Bills"
	Health        = "Health"
	Education     = "Education"
	Travel        = "Travel"
	Other         = "Other"
)

// Categories is the fixed category set, in display order.
var Categories = []string{
	Food, Groceries, Transport, Shopping, Entertainment,
	Bills, Health, Education, Travel, Other,
}

// KeyCategories get lag features, recurrence and volatility analysis.
var KeyCategories = []string{
	Food, Groceries, Transport, Shopping, Entertainment, Bills, Health,
}

var categoryIndex = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// NormalizeCategory maps a free-form category onto the fixed set.
// Unknown and empty names become Other.
func NormalizeCategory(name string) string {
	if c, ok := categoryIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return Other
}

// Transaction is one raw record as supplied by the caller.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Type        TxType          `json:"transaction_type"`
}

// IsExpense reports whether the record feeds the engine.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense || t.Type == ""
}

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats a day as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
