// Package forecast predicts future spending. Strategies share the
// Forecaster interface: an auto-regressive tree ensemble trained per call,
// a persisted ensemble predictor trained once per user and reused, and a
// trailing-mean baseline.
package forecast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

const (
	// MinHistoryDays is the minimum number of distinct expense days.
	MinHistoryDays = 14
	// MonthlyMinDays is the minimum history for monthly forecasts.
	MonthlyMinDays = 30
	// monthlyFallbackConfidence is reported when monthly history is too short.
	monthlyFallbackConfidence = 0.3
	maxDrivers                = 5
	// MaxHorizonDays bounds the number of days a single forecast rolls forward.
	MaxHorizonDays = 366
)

// Request is the input shared by every strategy.
type Request struct {
	UserID       string
	Transactions []model.Transaction
	Horizon      int
	Timeframe    model.Timeframe
}

// Forecaster is a forecasting strategy.
type Forecaster interface {
	Name() string
	Forecast(ctx context.Context, req Request) (*model.ForecastResult, error)
}

// dailyPoint is one day of a roll-forward forecast.
type dailyPoint struct {
	date      time.Time
	predicted float64
	lower     float64
	upper     float64
}

// precheck applies the shared edge-case policy. It returns a finished result
// when the request cannot be forecast, or nil to continue. days is the
// calendar length of the history.
func precheck(name string, req Request, days int) *model.ForecastResult {
	tf := req.Timeframe
	if tf == "" {
		tf = model.Daily
	}
	if pipeline.ActiveDayCount(req.Transactions) < MinHistoryDays {
		return &model.ForecastResult{
			Points:       []model.ForecastPoint{},
			Drivers:      []string{},
			Strategy:     name,
			Timeframe:    tf,
			HistoryDays:  days,
			Insufficient: true,
			Message:      fmt.Sprintf("insufficient history: need at least %d days of expenses", MinHistoryDays),
		}
	}
	if tf == model.Monthly && days < MonthlyMinDays {
		return &model.ForecastResult{
			Points:      []model.ForecastPoint{},
			Drivers:     []string{},
			Confidence:  monthlyFallbackConfidence,
			Strategy:    name,
			Timeframe:   tf,
			HistoryDays: days,
			Message:     fmt.Sprintf("monthly forecasts need at least %d days of history", MonthlyMinDays),
		}
	}
	return nil
}

// horizonDays converts a horizon in timeframe units into forecast days
// starting at first, capped at MaxHorizonDays.
func horizonDays(first time.Time, horizon int, tf model.Timeframe) int {
	horizon = min(max(horizon, 1), MaxHorizonDays)
	var days int
	switch tf {
	case model.Weekly:
		days = 7 * horizon
	case model.Monthly:
		end := pipeline.MonthStart(first).AddDate(0, horizon, 0)
		days = int(end.Sub(first).Hours() / 24)
	default:
		days = horizon
	}
	return min(days, MaxHorizonDays)
}

// HorizonLimit returns the largest horizon, in timeframe units, that fits in
// maxDays. A month counts as 31 days.
func HorizonLimit(maxDays int, tf model.Timeframe) int {
	switch tf {
	case model.Weekly:
		return max(maxDays/7, 1)
	case model.Monthly:
		return max(maxDays/31, 1)
	default:
		return max(maxDays, 1)
	}
}

// bucketize sums daily points into the requested timeframe.
func bucketize(points []dailyPoint, tf model.Timeframe) []model.ForecastPoint {
	out := []model.ForecastPoint{}
	switch tf {
	case model.Weekly:
		for i := 0; i+7 <= len(points); i += 7 {
			p := sumPoints(points[i : i+7])
			p.WeekStart = points[i].date
			p.WeekEnd = points[i+6].date
			p.Timeframe = model.Weekly
			out = append(out, p)
		}
	case model.Monthly:
		for i := 0; i < len(points); {
			j := i
			for j < len(points) && points[j].date.Month() == points[i].date.Month() {
				j++
			}
			p := sumPoints(points[i:j])
			p.Month = points[i].date.Format("2006-01")
			p.Timeframe = model.Monthly
			out = append(out, p)
			i = j
		}
	default:
		for _, dp := range points {
			out = append(out, model.ForecastPoint{
				Date:      dp.date,
				Predicted: dp.predicted,
				Lower:     dp.lower,
				Upper:     dp.upper,
				Timeframe: model.Daily,
			})
		}
	}
	return out
}

func sumPoints(points []dailyPoint) model.ForecastPoint {
	var p model.ForecastPoint
	for _, dp := range points {
		p.Predicted += dp.predicted
		p.Lower += dp.lower
		p.Upper += dp.upper
	}
	return p
}

// band turns per-tree predictions into a clamped point and interval.
func band(preds []float64, lowerPct, upperPct float64) (float64, float64, float64) {
	point := stats.Mean(preds)
	lower := stats.Percentile(preds, lowerPct)
	upper := stats.Percentile(preds, upperPct)
	if point < 0 {
		point = 0
	}
	if lower < 0 {
		lower = 0
	}
	if lower > point {
		lower = point
	}
	if upper < point {
		upper = point
	}
	return point, lower, upper
}

// Drivers converts an importance ranking into readable labels.
func Drivers(ranked []model.FeatureImportance) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, fi := range ranked {
		if fi.Importance <= 0 {
			break
		}
		label := DriverLabel(fi.Feature)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
		if len(out) == maxDrivers {
			break
		}
	}
	return out
}

// DriverLabel describes a feature column in plain words.
func DriverLabel(feature string) string {
	switch feature {
	case model.ColDOW, model.ColDOWSin, model.ColDOWCos:
		return "Day of week"
	case model.ColDOM, model.ColDOMSin, model.ColDOMCos:
		return "Day of month"
	case model.ColWOM:
		return "Week of month"
	case model.ColMonth:
		return "Month of year"
	case model.ColWeekend:
		return "Weekend"
	case model.ColMonthStart:
		return "Start of month"
	case model.ColMonthEnd:
		return "End of month"
	case model.ColMomentum:
		return "Recent momentum"
	case model.ColConsistency:
		return "Spending consistency"
	}

	if base, rest, ok := strings.Cut(feature, "_lag_"); ok {
		days, _ := strconv.Atoi(rest)
		subject := "Spending"
		if base != "total" {
			subject = base + " spending"
		}
		if days == 1 {
			return subject + " yesterday"
		}
		return fmt.Sprintf("%s %d days ago", subject, days)
	}
	if base, rest, ok := strings.Cut(feature, "_roll_"); ok {
		stat, window, _ := strings.Cut(rest, "_")
		subject := "spending"
		if base != "total" {
			subject = base + " spending"
		}
		switch stat {
		case "mean":
			return fmt.Sprintf("%s-day average %s", window, subject)
		case "std":
			return fmt.Sprintf("%s-day %s variability", window, subject)
		case "max":
			return fmt.Sprintf("%s-day peak %s", window, subject)
		}
	}
	return feature
}
