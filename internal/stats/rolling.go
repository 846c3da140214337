package stats

import "math"

// Rolling applies fn to each trailing window ending at row i (inclusive).
// Rows with fewer than minPeriods samples get NaN.
func Rolling(values []float64, window, minPeriods int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		if i-start+1 < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(values[start : i+1])
	}
	return out
}

// RollingMean is a trailing mean with min-periods 1.
func RollingMean(values []float64, window int) []float64 {
	return Rolling(values, window, 1, Mean)
}

// RollingStd is a trailing sample std with min-periods 2.
func RollingStd(values []float64, window int) []float64 {
	return Rolling(values, window, 2, StdDev)
}

// RollingMax is a trailing max with min-periods 1.
func RollingMax(values []float64, window int) []float64 {
	return Rolling(values, window, 1, Max)
}

// RollingSum is a trailing sum with min-periods 1.
func RollingSum(values []float64, window int) []float64 {
	return Rolling(values, window, 1, Sum)
}

// Shift moves values forward by lag rows, filling the head with fill.
func Shift(values []float64, lag int, fill float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i-lag >= 0 && i-lag < len(values) {
			out[i] = values[i-lag]
		} else {
			out[i] = fill
		}
	}
	return out
}

// Trailing returns up to n values ending just before index i.
func Trailing(values []float64, i, n int) []float64 {
	start := i - n
	if start < 0 {
		start = 0
	}
	if i > len(values) {
		i = len(values)
	}
	if start >= i {
		return nil
	}
	return values[start:i]
}
