// Package stats holds the small numeric helpers shared by the analysis
// packages. Every function is total: empty or degenerate input yields 0
// rather than NaN or a panic.
package stats

import (
	"math"
)

// Mean returns the arithmetic mean of data, or 0 when empty.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// StdDev returns the population standard deviation around mean.
func StdDev(data []float64, mean float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)))
}

// SampleStdDev returns the n-1 standard deviation (0 for fewer than 2 values).
func SampleStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := Mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1))
}

// CoefficientOfVariation returns sample stddev / mean, 0 when the mean is 0.
func CoefficientOfVariation(data []float64) float64 {
	m := Mean(data)
	if m == 0 {
		return 0
	}
	return SampleStdDev(data) / m
}

// SMA calculates the simple moving average for the given period.
// The first period-1 slots are zero.
func SMA(data []float64, period int) []float64 {
	n := len(data)
	if n < period || period <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = sum / float64(period)

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = sum / float64(period)
	}

	return result
}

// Tail returns the last n values of data (all of it when shorter).
func Tail(data []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n >= len(data) {
		return data
	}
	return data[len(data)-n:]
}

// Fit is the result of an ordinary least-squares line fit.
type Fit struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearRegression fits y against x = 0..len(y)-1.
// Fewer than 2 points yields a zero fit.
func LinearRegression(y []float64) Fit {
	n := len(y)
	if n < 2 {
		if n == 1 {
			return Fit{Intercept: y[0]}
		}
		return Fit{}
	}

	xMean := float64(n-1) / 2
	yMean := Mean(y)

	var sxy, sxx, syy float64
	for i, v := range y {
		dx := float64(i) - xMean
		dy := v - yMean
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	slope := sxy / sxx
	fit := Fit{Slope: slope, Intercept: yMean - slope*xMean}
	if syy > 0 {
		fit.R2 = (sxy * sxy) / (sxx * syy)
	}
	return fit
}

// Pearson returns the correlation of a and b over their common prefix.
// Constant inputs yield 0.
func Pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a, b = a[:n], b[:n]
	ma, mb := Mean(a), Mean(b)

	var cov, va, vb float64
	for i := 0; i < n; i++ {
		da := a[i] - ma
		db := b[i] - mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}

// Jaccard returns |a ∩ b| / |a ∪ b| over string sets; two empty sets yield 0.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	union := make(map[string]struct{}, len(a)+len(b))
	for s := range setA {
		union[s] = struct{}{}
	}
	inter := 0
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := setA[s]; ok {
			inter++
		}
		union[s] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Ratio returns num/den, or 0 when den is 0 or the result is not finite.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if !Finite(r) {
		return 0
	}
	return r
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
