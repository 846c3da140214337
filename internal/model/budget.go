package model

// BudgetPeriod is the horizon a budget covers.
type BudgetPeriod string

const (
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
)

// Days returns the nominal length of the period.
func (p BudgetPeriod) Days() int {
	if p == PeriodWeekly {
		return 7
	}
	return 30
}

// Activity classes used by budgets.
const (
	ActivityInactive   = "inactive"
	ActivityOccasional = "occasional"
	ActivityRegular    = "regular"
	ActivityFrequent   = "frequent"
)

// BudgetLine is the recommendation for one category.
type BudgetLine struct {
	Category         string  `json:"category"`
	Amount           float64 `json:"amount"`
	Floor            float64 `json:"floor"`
	Elasticity       float64 `json:"elasticity"`
	ActivityLevel    string  `json:"activity_level"`
	AdjustmentFactor float64 `json:"adjustment_factor"`
	Confidence       float64 `json:"confidence"`
}

// Methodology explains how a budget was produced. Informational only.
type Methodology struct {
	Approach    string   `json:"approach"`
	DataQuality string   `json:"data_quality"`
	DaysOfData  int      `json:"days_of_data"`
	Notes       []string `json:"notes,omitempty"`
}

// SavingsOutcome reports the effect of a savings goal.
type SavingsOutcome struct {
	Requested  float64            `json:"requested"`
	Applied    float64            `json:"applied"`
	Headroom   float64            `json:"headroom"`
	Achievable bool               `json:"achievable"`
	Cuts       map[string]float64 `json:"cuts"`
}

// BudgetResult is the output of any budget strategy.
type BudgetResult struct {
	Lines       []BudgetLine    `json:"categories"`
	Total       float64         `json:"total"`
	Period      BudgetPeriod    `json:"period"`
	TargetMonth string          `json:"target_month,omitempty"`
	Methodology Methodology     `json:"methodology"`
	Savings     *SavingsOutcome `json:"savings,omitempty"`
}

// Line returns the line for a category.
func (r *BudgetResult) Line(category string) (BudgetLine, bool) {
	for _, l := range r.Lines {
		if l.Category == category {
			return l, true
		}
	}
	return BudgetLine{}, false
}
