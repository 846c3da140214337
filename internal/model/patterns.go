package model

import "time"

// Recurrence is a periodic spending pattern found by autocorrelation.
type Recurrence struct {
	Category     string    `json:"category"`
	Pattern      string    `json:"pattern"`
	PeriodDays   int       `json:"period_days"`
	Confidence   float64   `json:"confidence"`
	Strength     float64   `json:"strength"`
	NextExpected time.Time `json:"next_expected"`
}

// Spike is a day whose total departs from its trailing baseline.
type Spike struct {
	Date                   time.Time `json:"date"`
	Amount                 float64   `json:"amount"`
	ZScore                 float64   `json:"z_score"`
	Baseline               float64   `json:"expected_baseline"`
	ContributingCategories []string  `json:"contributing_categories"`
	IsRecent               bool      `json:"is_recent"`
}

// ActivityProfile classifies how often a category sees spend.
type ActivityProfile struct {
	// Level is the four-tier label, optionally suffixed with "_clustered".
	Level      string  `json:"level"`
	Class      string  `json:"class"`
	Rate       float64 `json:"rate"`
	Clustering float64 `json:"clustering"`
}

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Trend is a linear fit over a trailing window.
type Trend struct {
	Direction  string  `json:"direction"`
	Slope      float64 `json:"normalized_slope"`
	Confidence float64 `json:"confidence"`
}

// WeekdaySeasonality summarizes spend by day of week.
type WeekdaySeasonality struct {
	Means        [7]float64 `json:"means"`
	PeakDay      string     `json:"peak_day"`
	LowDay       string     `json:"low_day"`
	WeekendRatio float64    `json:"weekend_ratio"`
}

// MonthSeasonality summarizes spend by thirds of the month.
type MonthSeasonality struct {
	Early   float64 `json:"early"`
	Mid     float64 `json:"mid"`
	Late    float64 `json:"late"`
	Profile string  `json:"profile"`
}

// Seasonality holds whichever summaries had enough data.
type Seasonality struct {
	Weekday *WeekdaySeasonality `json:"weekday,omitempty"`
	Month   *MonthSeasonality   `json:"month,omitempty"`
}

// PatternFindings is the full output of one detection run.
type PatternFindings struct {
	Recurrences    []Recurrence               `json:"recurrences"`
	Spikes         []Spike                    `json:"spikes"`
	Volatility     map[string]float64         `json:"volatility"`
	ActivityLevels map[string]ActivityProfile `json:"activity_levels"`
	Trends         map[string]Trend           `json:"trends"`
	Seasonality    Seasonality                `json:"seasonality"`
	Insights       []string                   `json:"insights"`

	DaysAnalyzed int  `json:"days_analyzed"`
	Insufficient bool `json:"insufficient,omitempty"`
}

// RecurrenceFor returns the strongest recurrence for a category, if any.
func (p *PatternFindings) RecurrenceFor(category string) (Recurrence, bool) {
	var best Recurrence
	found := false
	if p == nil {
		return best, false
	}
	for _, r := range p.Recurrences {
		if r.Category == category && (!found || r.Confidence > best.Confidence) {
			best = r
			found = true
		}
	}
	return best, found
}

// HasRecentSpike reports whether a recent spike was driven by the category.
func (p *PatternFindings) HasRecentSpike(category string) bool {
	if p == nil {
		return false
	}
	for _, s := range p.Spikes {
		if !s.IsRecent {
			continue
		}
		for _, c := range s.ContributingCategories {
			if c == category {
				return true
			}
		}
	}
	return false
}
