package budget

import (
	"context"
	"math"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// StatisticalName identifies the statistics-driven strategy.
const StatisticalName = "statistical"

const (
	statLookbackDays      = 90
	trendWindow           = 14
	maxTrendBoost         = 0.10
	maxShave              = 0.10
	shavePerElasticity    = 0.05
	recurrenceFactor      = 1.10
	recurrenceConfidence  = 0.7
	volatilityFactor      = 1.15
	volatilityThreshold   = 0.5
	recentSpikeFactor     = 1.20
	volatilityBufferShare = 0.1
	relTolerance          = 1e-9
)

// Statistical budgets each category from descriptive statistics of its
// daily series over the trailing 90 days.
type Statistical struct{}

// NewStatistical creates the strategy.
func NewStatistical() *Statistical { return &Statistical{} }

// Name implements Generator.
func (s *Statistical) Name() string { return StatisticalName }

// Generate implements Generator.
func (s *Statistical) Generate(ctx context.Context, req Request) (*model.BudgetResult, error) {
	req.Period = normalizePeriod(req.Period)
	if req.Table == nil || req.Table.Len() == 0 {
		return insufficient(s.Name(), req), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := req.Table.Tail(statLookbackDays)
	res := &model.BudgetResult{
		Period:      req.Period,
		TargetMonth: targetMonth(req),
		Methodology: model.Methodology{
			Approach:    s.Name(),
			DataQuality: dataQuality(req.Table.Len()),
			DaysOfData:  req.Table.Len(),
		},
	}
	for _, c := range model.Categories {
		res.Lines = append(res.Lines, statisticalLine(c, table.Category(c), req))
	}
	return finish(res, req), nil
}

// statisticalLine computes one category:
//
//	base      inactive 0, occasional median(active)*rate*P, regular (0.7*mean+0.3*p75)*P
//	shave     when base > mean*P and elasticity e > 1, by min(10%, 5%*e), not below floor
//	patterns  x1.1 strong recurrence, x1.15 volatile, x1.2 recent spike
//	trend     + min(trend, 10%) when rising
//	buffer    + 0.1*2*std*sqrt(P) when std > mean/2
//	round to 10, then floor
func statisticalLine(category string, series []float64, req Request) model.BudgetLine {
	period := float64(req.Period.Days())
	floor := req.Policy.Floor(category, req.Period)
	e := req.Policy.ElasticityOf(category)

	active := stats.Positive(series)
	rate := stats.SafeDiv(float64(len(active)), float64(len(series)))
	class := pipeline.ActivityClass(rate)
	mean := stats.Mean(series)

	var base float64
	switch class {
	case 0:
		base = 0
	case 1:
		base = stats.Median(active) * rate * period
	default:
		base = (0.7*mean + 0.3*stats.Percentile(series, 75)) * period
	}

	if base > mean*period*(1+relTolerance) && e > 1 {
		shaved := base * (1 - math.Min(maxShave, shavePerElasticity*e))
		base = math.Max(shaved, math.Min(base, floor))
	}

	factor := patternFactor(category, req.Findings)
	amount := base * factor

	if t := recentTrend(series); t > 0 {
		boost := math.Min(t, maxTrendBoost)
		amount *= 1 + boost
		factor *= 1 + boost
	}

	if std := stats.StdDev(series); mean > 0 && std > mean/2 {
		amount += volatilityBufferShare * 2 * std * math.Sqrt(period)
	}

	line := model.BudgetLine{
		Category:         category,
		Amount:           RoundTo10(amount),
		Floor:            floor,
		Elasticity:       e,
		ActivityLevel:    pipeline.ActivityClassName(class),
		AdjustmentFactor: factor,
		Confidence:       statisticalConfidence(rate, len(series)),
	}
	applyFloor(&line)
	return line
}

// patternFactor compounds the multipliers derived from pattern findings.
func patternFactor(category string, f *model.PatternFindings) float64 {
	if f == nil {
		return 1
	}
	factor := 1.0
	if r, ok := f.RecurrenceFor(category); ok && r.Confidence > recurrenceConfidence {
		factor *= recurrenceFactor
	}
	if f.Volatility[category] > volatilityThreshold {
		factor *= volatilityFactor
	}
	if f.HasRecentSpike(category) {
		factor *= recentSpikeFactor
	}
	return factor
}

// recentTrend is the relative change of the last 14 days' mean over the
// 14 days before, 0 without enough data.
func recentTrend(series []float64) float64 {
	if len(series) < 2*trendWindow {
		return 0
	}
	n := len(series)
	recent := stats.Mean(series[n-trendWindow:])
	prior := stats.Mean(series[n-2*trendWindow : n-trendWindow])
	return stats.SafeDiv(recent-prior, prior)
}

func statisticalConfidence(rate float64, days int) float64 {
	c := stats.Clamp(0.5+0.4*rate, 0.5, 0.9)
	if days < 30 {
		c *= 0.8
	}
	return c
}
