// Package budget turns spending history into per-category recommendations.
// Two strategies share the Generator interface: a statistics-driven one that
// works from short histories and an EMA/hazard one for longer histories.
// Both apply per-category floors last, so a binding floor is returned
// exactly.
package budget

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
)

// WeeksPerMonth scales weekly amounts to a month.
const WeeksPerMonth = 4.3

// Request is the input shared by every strategy.
type Request struct {
	Table       *model.DailyTable
	Findings    *model.PatternFindings // optional
	Period      model.BudgetPeriod
	TargetMonth string // YYYY-MM, defaults to the month after the history
	SavingsGoal float64
	Policy      Policy
}

// Generator is a budget strategy.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*model.BudgetResult, error)
}

// Policy holds the per-category floor and elasticity tables. Floors are
// weekly essential minimums.
type Policy struct {
	Floors     map[string]float64
	Elasticity map[string]float64
}

// DefaultElasticity is used for categories missing from the table.
const DefaultElasticity = 1.0

// Floor returns the category's floor scaled to period.
func (p Policy) Floor(category string, period model.BudgetPeriod) float64 {
	f := p.Floors[category]
	if period == model.PeriodMonthly {
		return f * WeeksPerMonth
	}
	return f
}

// ElasticityOf returns the category's elasticity.
func (p Policy) ElasticityOf(category string) float64 {
	if e, ok := p.Elasticity[category]; ok {
		return e
	}
	return DefaultElasticity
}

// WithFloor returns a copy of p with one floor replaced.
func (p Policy) WithFloor(category string, weekly float64) Policy {
	floors := make(map[string]float64, len(p.Floors)+1)
	for k, v := range p.Floors {
		floors[k] = v
	}
	floors[category] = weekly
	return Policy{Floors: floors, Elasticity: p.Elasticity}
}

// RoundTo10 rounds half away from zero to the nearest 10.
func RoundTo10(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(-1).Float64()
	return f
}

// applyFloor is the last step of every strategy.
func applyFloor(line *model.BudgetLine) {
	if line.Amount < line.Floor {
		line.Amount = line.Floor
	}
}

// finish orders lines by amount (descending, ties in category order),
// totals them and applies any savings goal.
func finish(res *model.BudgetResult, req Request) *model.BudgetResult {
	sortLines(res.Lines)
	res.Total = totalOf(res.Lines)
	if req.SavingsGoal > 0 {
		ApplySavingsGoal(res, req.SavingsGoal)
	}
	return res
}

func sortLines(lines []model.BudgetLine) {
	order := make(map[string]int, len(model.Categories))
	for i, c := range model.Categories {
		order[c] = i
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Amount != lines[j].Amount {
			return lines[i].Amount > lines[j].Amount
		}
		return order[lines[i].Category] < order[lines[j].Category]
	})
}

func totalOf(lines []model.BudgetLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Amount))
	}
	f, _ := sum.Float64()
	return f
}

// targetMonth defaults to the month following the last day of history.
func targetMonth(req Request) string {
	if req.TargetMonth != "" {
		return req.TargetMonth
	}
	if req.Table == nil || req.Table.Len() == 0 {
		return ""
	}
	return pipeline.MonthStart(req.Table.Last()).AddDate(0, 1, 0).Format("2006-01")
}

func dataQuality(days int) string {
	switch {
	case days == 0:
		return "insufficient"
	case days < 30:
		return "sparse"
	case days < 60:
		return "limited"
	default:
		return "good"
	}
}

// insufficient returns floor-only lines when there is no usable history.
func insufficient(name string, req Request) *model.BudgetResult {
	res := &model.BudgetResult{
		Period:      req.Period,
		TargetMonth: targetMonth(req),
		Methodology: model.Methodology{
			Approach:    name,
			DataQuality: dataQuality(0),
			Notes:       []string{"not enough history; amounts are category floors"},
		},
	}
	for _, c := range model.Categories {
		line := model.BudgetLine{
			Category:         c,
			Floor:            req.Policy.Floor(c, req.Period),
			Elasticity:       req.Policy.ElasticityOf(c),
			ActivityLevel:    model.ActivityInactive,
			AdjustmentFactor: 1,
			Confidence:       0.3,
		}
		applyFloor(&line)
		res.Lines = append(res.Lines, line)
	}
	return finish(res, req)
}

func normalizePeriod(p model.BudgetPeriod) model.BudgetPeriod {
	if p == model.PeriodWeekly {
		return p
	}
	return model.PeriodMonthly
}
