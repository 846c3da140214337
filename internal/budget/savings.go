package budget

import (
	"math"

	"github.com/theirongolddev/spendlens/internal/model"
)

const savingsEpsilon = 1e-9

// ApplySavingsGoal cuts min(goal, total headroom) from res, where headroom is
// each line's amount above its floor. The cut is shared in proportion to
// elasticity x headroom; a line that would drop below its floor is held at
// the floor and the rest of the cut is redistributed among the others.
// Amounts are left unrounded so the cuts sum to the applied savings.
func ApplySavingsGoal(res *model.BudgetResult, goal float64) {
	out := &model.SavingsOutcome{Requested: goal, Cuts: make(map[string]float64)}
	res.Savings = out
	if goal <= 0 {
		out.Achievable = true
		return
	}

	headroom := make([]float64, len(res.Lines))
	for i, l := range res.Lines {
		headroom[i] = math.Max(0, l.Amount-l.Floor)
		out.Headroom += headroom[i]
	}
	cut := math.Min(goal, out.Headroom)
	out.Achievable = goal <= out.Headroom+savingsEpsilon

	w := make([]float64, len(res.Lines))
	for i, l := range res.Lines {
		w[i] = math.Max(0, l.Elasticity) * headroom[i]
	}
	cuts := distribute(cut, headroom, w)

	// Lines with zero elasticity absorb whatever the others could not.
	var assigned float64
	spare := make([]float64, len(cuts))
	for i := range cuts {
		assigned += cuts[i]
		spare[i] = headroom[i] - cuts[i]
	}
	if left := cut - assigned; left > savingsEpsilon {
		for i, extra := range distribute(left, spare, spare) {
			cuts[i] += extra
		}
	}

	for i := range res.Lines {
		if cuts[i] <= 0 {
			continue
		}
		l := &res.Lines[i]
		l.Amount = math.Max(l.Floor, l.Amount-cuts[i])
		out.Cuts[l.Category] = cuts[i]
		out.Applied += cuts[i]
	}
	sortLines(res.Lines)
	res.Total = totalOf(res.Lines)
}

// distribute splits total across slots by weight without exceeding any
// slot's capacity. Saturated slots drop out and the remainder is re-spread
// over the rest until nothing is left or every slot is full.
func distribute(total float64, capacity, weight []float64) []float64 {
	alloc := make([]float64, len(capacity))
	open := make([]bool, len(capacity))
	for i := range capacity {
		open[i] = capacity[i] > 0 && weight[i] > 0
	}

	remaining := total
	for remaining > savingsEpsilon {
		var wsum float64
		for i, ok := range open {
			if ok {
				wsum += weight[i]
			}
		}
		if wsum == 0 {
			break
		}

		saturated := false
		for i, ok := range open {
			if !ok {
				continue
			}
			if remaining*weight[i]/wsum >= capacity[i]-alloc[i] {
				remaining -= capacity[i] - alloc[i]
				alloc[i] = capacity[i]
				open[i] = false
				saturated = true
			}
		}
		if saturated {
			continue
		}
		for i, ok := range open {
			if ok {
				alloc[i] += remaining * weight[i] / wsum
			}
		}
		remaining = 0
	}
	return alloc
}
