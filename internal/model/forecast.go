package model

import "time"

// Timeframe selects the forecast bucket size.
type Timeframe string

const (
	Daily   Timeframe = "daily"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
)

// ParseTimeframe accepts daily, weekly or monthly.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case Daily, Weekly, Monthly:
		return Timeframe(s), true
	}
	return "", false
}

// ForecastPoint is one predicted period. Daily points set Date, weekly
// points set WeekStart/WeekEnd, monthly points set Month (YYYY-MM).
type ForecastPoint struct {
	Date      time.Time `json:"date,omitempty"`
	WeekStart time.Time `json:"week_start,omitempty"`
	WeekEnd   time.Time `json:"week_end,omitempty"`
	Month     string    `json:"month,omitempty"`
	Predicted float64   `json:"predicted_amount"`
	Lower     float64   `json:"lower_bound"`
	Upper     float64   `json:"upper_bound"`
	Timeframe Timeframe `json:"timeframe"`
}

// ForecastResult is the output of any forecasting strategy.
type ForecastResult struct {
	Points       []ForecastPoint `json:"forecast"`
	Confidence   float64         `json:"confidence"`
	Drivers      []string        `json:"drivers"`
	Strategy     string          `json:"strategy"`
	Timeframe    Timeframe       `json:"timeframe"`
	HistoryDays  int             `json:"history_days"`
	Insufficient bool            `json:"insufficient,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// Sum adds up the point estimates.
func (r *ForecastResult) Sum() float64 {
	var s float64
	for _, p := range r.Points {
		s += p.Predicted
	}
	return s
}

// OverspendCheck compares a one-week projection against a threshold.
type OverspendCheck struct {
	WillOverspend   bool    `json:"will_overspend"`
	ProjectedWeekly float64 `json:"projected_weekly"`
	Threshold       float64 `json:"threshold"`
	Basis           string  `json:"basis"`
	Confidence      float64 `json:"confidence"`
	Insufficient    bool    `json:"insufficient,omitempty"`
}

// BacktestPoint pairs an actual value with its forecast.
type BacktestPoint struct {
	Start     time.Time `json:"start"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
}

// BacktestReport scores a forecaster against held-out history.
type BacktestReport struct {
	Strategy    string          `json:"strategy"`
	Daily       []BacktestPoint `json:"daily"`
	Weekly      []BacktestPoint `json:"weekly"`
	DailyOver   int             `json:"daily_over"`
	DailyUnder  int             `json:"daily_under"`
	WeeklyOver  int             `json:"weekly_over"`
	WeeklyUnder int             `json:"weekly_under"`
	DailyMAE    float64         `json:"daily_mae"`
}

// FeatureImportance ranks one model input.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelMetrics summarizes a training run.
type ModelMetrics struct {
	CVMAE     float64 `json:"cv_mae"`
	Folds     int     `json:"folds"`
	TrainRows int     `json:"train_rows"`
	AvgDaily  float64 `json:"avg_daily"`
}

// ModelSummary describes a trained ensemble without its trees.
type ModelSummary struct {
	UserID      string              `json:"user_id"`
	Fingerprint string              `json:"fingerprint"`
	TrainedAt   time.Time           `json:"trained_at"`
	LastDate    time.Time           `json:"last_date"`
	Trees       int                 `json:"trees"`
	Features    int                 `json:"features"`
	Confidence  float64             `json:"confidence"`
	Metrics     ModelMetrics        `json:"metrics"`
	Importance  []FeatureImportance `json:"feature_importance"`
}
