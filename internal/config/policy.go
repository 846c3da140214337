package config

import (
	"github.com/theirongolddev/spendlens/internal/budget"
	"github.com/theirongolddev/spendlens/internal/model"
)

// CategoryPolicy is the floor and elasticity of one category. Floors are
// weekly essential minimums in the user's currency.
type CategoryPolicy struct {
	Floor      float64
	Elasticity float64
}

// DefaultPolicy holds the built-in tables: staples have elasticity below 1
// and a non-zero floor, discretionary categories have elasticity above 1 and
// no floor. The values are not calibrated per market or currency.
var DefaultPolicy = map[string]CategoryPolicy{
	model.Food:          {Floor: 25, Elasticity: 1.2},
	model.Groceries:     {Floor: 40, Elasticity: 0.5},
	model.Transport:     {Floor: 15, Elasticity: 0.6},
	model.Shopping:      {Floor: 0, Elasticity: 1.5},
	model.Entertainment: {Floor: 0, Elasticity: 1.8},
	model.Bills:         {Floor: 50, Elasticity: 0.2},
	model.Health:        {Floor: 10, Elasticity: 0.3},
	model.Education:     {Floor: 0, Elasticity: 0.7},
	model.Travel:        {Floor: 0, Elasticity: 1.6},
	model.Other:         {Floor: 0, Elasticity: 1.0},
}

// LookupPolicy returns the policy for a category, normalizing its name
// first. Unrecognized names resolve to Other.
func LookupPolicy(category string) CategoryPolicy {
	return DefaultPolicy[model.NormalizeCategory(category)]
}

// BudgetPolicy merges the defaults with [policy.<Category>] overrides.
func (c Config) BudgetPolicy() budget.Policy {
	p := budget.Policy{
		Floors:     make(map[string]float64, len(model.Categories)),
		Elasticity: make(map[string]float64, len(model.Categories)),
	}
	for _, cat := range model.Categories {
		def := LookupPolicy(cat)
		p.Floors[cat] = def.Floor
		p.Elasticity[cat] = def.Elasticity
	}
	for name, o := range c.Policy {
		cat := model.NormalizeCategory(name)
		if o.Floor != nil && *o.Floor >= 0 {
			p.Floors[cat] = *o.Floor
		}
		if o.Elasticity != nil && *o.Elasticity >= 0 {
			p.Elasticity[cat] = *o.Elasticity
		}
	}
	return p
}
