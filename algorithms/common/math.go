package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// MeanPopStdDev returns the mean and the population standard deviation
// (divisor n) of data. Both are 0 for an empty slice.
func MeanPopStdDev(data []float64) (mean, stdDev float64) {
	if len(data) == 0 {
		return 0.0, 0.0
	}
	mean, variance := stat.PopMeanVariance(data, nil)
	if variance < 0 {
		// rounding on near-constant input
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// Range returns max(data) - min(data), or 0 for an empty slice
func Range(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data) - floats.Min(data)
}

// IsFinite reports whether v is neither NaN nor an infinity
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
