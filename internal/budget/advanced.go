package budget

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// AdvancedName identifies the EMA/hazard strategy.
const AdvancedName = "advanced"

const (
	weeklyLookback  = 8
	weeklyAlpha     = 0.6
	emaWeight       = 0.6
	iqrCap          = 1.75
	cvWeight        = 0.20
	inactiveWeekly  = 0.25
	hazardFactor    = 1.20
	spikeMemFactor  = 1.15
	monthlyLookback = 6
	monthlyAlpha    = 2.0 / (4 + 1) // 4-month span
	monthlyEMAShare = 0.7
	inactiveMonthly = 0.35
	activeMonthly   = 1.15
	monthlyMaxCap   = 1.08
	minMonths       = 2
)

// hazardDays are days-since-last-spend values that suggest a weekly or
// biweekly charge is due.
var hazardDays = map[int]bool{6: true, 7: true, 13: true, 14: true}

// Advanced budgets from weekly (or monthly) resampled history using an EMA,
// the median of active periods, recurrence hazard and spike memory.
type Advanced struct{}

// NewAdvanced creates the strategy. The variant follows Request.Period.
func NewAdvanced() *Advanced { return &Advanced{} }

// Name implements Generator.
func (a *Advanced) Name() string { return AdvancedName }

// Generate implements Generator.
func (a *Advanced) Generate(ctx context.Context, req Request) (*model.BudgetResult, error) {
	req.Period = normalizePeriod(req.Period)
	if req.Table == nil || req.Table.Len() == 0 {
		return insufficient(a.Name(), req), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Period == model.PeriodWeekly {
		return finish(a.weekly(req), req), nil
	}
	return finish(a.monthly(req), req), nil
}

// tier maps average active days per month onto an activity level.
func tier(activeDays, days int) string {
	perMonth := stats.SafeDiv(float64(activeDays), float64(days)/30)
	switch {
	case perMonth < 5:
		return model.ActivityInactive
	case perMonth < 12:
		return model.ActivityOccasional
	default:
		return model.ActivityRegular
	}
}

func roundCents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func (a *Advanced) weekly(req Request) *model.BudgetResult {
	t := req.Table
	weeks := pipeline.CompleteBuckets(pipeline.ResampleWeekly(t))
	if len(weeks) < 2 {
		weeks = pipeline.ResampleWeekly(t)
	}
	weeks = pipeline.LastBuckets(weeks, weeklyLookback)

	res := &model.BudgetResult{
		Period:      model.PeriodWeekly,
		TargetMonth: targetMonth(req),
		Methodology: model.Methodology{
			Approach:    a.Name() + "-weekly",
			DataQuality: dataQuality(t.Len()),
			DaysOfData:  t.Len(),
			Notes:       []string{fmt.Sprintf("%d weeks analyzed", len(weeks))},
		},
	}
	last := t.Len() - 1
	for _, c := range model.Categories {
		series := pipeline.Series(weeks, c)
		median := stats.Median(stats.Positive(series))
		cv := stats.CV(series)

		factor := 1.0
		level := tier(t.ActiveDays(model.CategoryColumn(c)), t.Len())
		if level == model.ActivityInactive {
			factor *= inactiveWeekly
		}
		if hazardDays[int(t.Col(model.CategoryFeature(c, "days_since"))[last])] {
			factor *= hazardFactor
		}
		if t.Col(model.CategoryFeature(c, "spike_memory"))[last] > 0 {
			factor *= spikeMemFactor
		}
		factor *= 1 + cvWeight*cv

		raw := emaWeight*stats.LastEMA(series, weeklyAlpha) + (1-emaWeight)*median
		amount := math.Min(raw*factor, median+iqrCap*stats.IQR(series))

		line := model.BudgetLine{
			Category:         c,
			Amount:           roundCents(amount),
			Floor:            req.Policy.Floor(c, model.PeriodWeekly),
			Elasticity:       req.Policy.ElasticityOf(c),
			ActivityLevel:    level,
			AdjustmentFactor: factor,
			Confidence:       stats.Clamp(0.9-0.2*cv, 0.4, 0.9) * math.Min(1, float64(len(weeks))/weeklyLookback),
		}
		applyFloor(&line)
		res.Lines = append(res.Lines, line)
	}
	return res
}

func (a *Advanced) monthly(req Request) *model.BudgetResult {
	t := req.Table
	months := pipeline.CompleteBuckets(pipeline.ResampleMonthly(t))
	if len(months) < minMonths {
		return a.scaledWeekly(req, len(months))
	}
	months = pipeline.LastBuckets(months, monthlyLookback)

	res := &model.BudgetResult{
		Period:      model.PeriodMonthly,
		TargetMonth: targetMonth(req),
		Methodology: model.Methodology{
			Approach:    a.Name() + "-monthly",
			DataQuality: dataQuality(t.Len()),
			DaysOfData:  t.Len(),
			Notes:       []string{fmt.Sprintf("%d complete months analyzed", len(months))},
		},
	}
	for _, c := range model.Categories {
		series := pipeline.Series(months, c)
		level := tier(t.ActiveDays(model.CategoryColumn(c)), t.Len())
		factor := activeMonthly
		if level == model.ActivityInactive {
			factor = inactiveMonthly
		}

		raw := monthlyEMAShare*stats.LastEMA(series, monthlyAlpha) + (1-monthlyEMAShare)*stats.Median(series)
		amount := math.Min(raw*factor, monthlyMaxCap*stats.Max(series))

		line := model.BudgetLine{
			Category:         c,
			Amount:           roundCents(amount),
			Floor:            req.Policy.Floor(c, model.PeriodMonthly),
			Elasticity:       req.Policy.ElasticityOf(c),
			ActivityLevel:    level,
			AdjustmentFactor: factor,
			Confidence:       stats.Clamp(0.9-0.2*stats.CV(series), 0.4, 0.9) * math.Min(1, float64(len(months))/monthlyLookback),
		}
		applyFloor(&line)
		res.Lines = append(res.Lines, line)
	}
	return res
}

// scaledWeekly is the monthly fallback for short histories: the weekly
// budget times 4.3.
func (a *Advanced) scaledWeekly(req Request, months int) *model.BudgetResult {
	res := a.weekly(req)
	res.Period = model.PeriodMonthly
	res.Methodology.Approach = a.Name() + "-weekly-scaled"
	res.Methodology.Notes = append(res.Methodology.Notes,
		fmt.Sprintf("%d complete months; weekly budget scaled by %.1f", months, WeeksPerMonth))
	for i := range res.Lines {
		l := &res.Lines[i]
		l.Amount = roundCents(l.Amount * WeeksPerMonth)
		l.Floor = req.Policy.Floor(l.Category, model.PeriodMonthly)
		applyFloor(l)
	}
	return res
}
