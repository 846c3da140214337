package stats

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// EMA returns the exponentially weighted moving average series for the given
// smoothing factor alpha, seeded with the first value.
func EMA(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	// Period 1 seeds with the first value; multiplier = Smoothing/(Period+1).
	ema := &trend.Ema[float64]{Period: 1, Smoothing: 2 * alpha}
	return helper.ChanToSlice(ema.Compute(helper.SliceToChan(values)))
}

// LastEMA is the final value of EMA, or 0 for no values.
func LastEMA(values []float64, alpha float64) float64 {
	series := EMA(values, alpha)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
