package stats

import "math"

// Fit is a least-squares line over x = 0..n-1.
type Fit struct {
	Slope     float64
	Intercept float64
	R         float64
}

// LinearRegression fits y against its index. R is the Pearson correlation
// between index and value, 0 for a flat or too-short series.
func LinearRegression(ys []float64) Fit {
	n := len(ys)
	if n < 2 {
		return Fit{Intercept: Mean(ys)}
	}
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return Fit{Intercept: sumY / nf}
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf

	var r float64
	varY := nf*sumYY - sumY*sumY
	if varY > 0 {
		r = (nf*sumXY - sumX*sumY) / math.Sqrt(denom*varY)
		r = Clamp(r, -1, 1)
	}
	return Fit{Slope: slope, Intercept: intercept, R: r}
}

// Detrend subtracts the least-squares line from the series.
func Detrend(ys []float64) []float64 {
	fit := LinearRegression(ys)
	out := make([]float64, len(ys))
	for i, y := range ys {
		out[i] = y - (fit.Intercept + fit.Slope*float64(i))
	}
	return out
}

// Autocorrelation returns the sample ACF for lags 0..maxLag. Lags beyond the
// series are left at 0. A zero-variance series yields all zeros.
func Autocorrelation(xs []float64, maxLag int) []float64 {
	acf := make([]float64, maxLag+1)
	n := len(xs)
	if n == 0 {
		return acf
	}
	mean := Mean(xs)
	var denom float64
	for _, x := range xs {
		d := x - mean
		denom += d * d
	}
	// Relative guard: detrending a constant series leaves float noise.
	if denom <= 1e-12*float64(n)*(1+mean*mean) {
		return acf
	}
	for lag := 0; lag <= maxLag && lag < n; lag++ {
		var num float64
		for t := 0; t+lag < n; t++ {
			num += (xs[t] - mean) * (xs[t+lag] - mean)
		}
		acf[lag] = num / denom
	}
	return acf
}
