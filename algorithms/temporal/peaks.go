package temporal

import (
	"github.com/RyanBlaney/pulso/algorithms/common"
)

// FindPeaks returns the indices of local maxima in series that rise above an
// adaptive threshold of mean + thresholdFactor*stddev. A sample at index i
// (1 <= i <= n-2) qualifies when it is strictly greater than both neighbours
// and strictly greater than the threshold. Indices are ascending.
//
// The threshold is derived from series alone on every call. A flat series
// or one shorter than 3 samples has no peaks.
func FindPeaks(series []float64, thresholdFactor float64) []int {
	return NewPeakDetector(thresholdFactor, 0).Detect(series)
}

// PeakDetector finds heartbeat peaks in a filtered brightness series.
type PeakDetector struct {
	thresholdFactor float64
	minDistance     int // samples; 0 disables the refractory check
}

// NewPeakDetector creates a detector. minDistance is a refractory period in
// samples: a candidate closer than that to the last accepted peak is
// skipped. Pass 0 to keep every qualifying local maximum.
func NewPeakDetector(thresholdFactor float64, minDistance int) *PeakDetector {
	return &PeakDetector{
		thresholdFactor: thresholdFactor,
		minDistance:     max(minDistance, 0),
	}
}

// Threshold returns the amplitude a peak in series has to exceed
func (pd *PeakDetector) Threshold(series []float64) float64 {
	mean, stdDev := common.MeanPopStdDev(series)
	return mean + pd.thresholdFactor*stdDev
}

// Detect returns ascending peak indices in series
func (pd *PeakDetector) Detect(series []float64) []int {
	if len(series) < 3 {
		return []int{}
	}

	threshold := pd.Threshold(series)

	peaks := []int{}
	lastPeak := -pd.minDistance // Allow first peak

	for i := 1; i < len(series)-1; i++ {
		if series[i] > series[i-1] &&
			series[i] > series[i+1] &&
			series[i] > threshold &&
			(pd.minDistance == 0 || i-lastPeak >= pd.minDistance) {
			peaks = append(peaks, i)
			lastPeak = i
		}
	}

	return peaks
}

// PeakIntervals returns the spacing, in samples, between consecutive peaks
func PeakIntervals(peaks []int) []int {
	if len(peaks) < 2 {
		return []int{}
	}

	intervals := make([]int, len(peaks)-1)
	for i := range len(intervals) {
		intervals[i] = peaks[i+1] - peaks[i]
	}
	return intervals
}

// AverageInterval returns the arithmetic mean peak spacing in samples.
// ok is false when fewer than two peaks are given or the mean is not
// positive, in which case no rate can be derived.
func AverageInterval(peaks []int) (avg float64, ok bool) {
	intervals := PeakIntervals(peaks)
	if len(intervals) == 0 {
		return 0.0, false
	}

	sum := 0
	for _, interval := range intervals {
		sum += interval
	}
	avg = float64(sum) / float64(len(intervals))

	return avg, avg > 0
}

// IntervalToBPM converts a mean peak spacing in samples into beats per
// minute: 60 / (interval / sampleRate). A non-positive interval or sample
// rate gives 0.
func IntervalToBPM(interval, sampleRate float64) float64 {
	if interval <= 0 || sampleRate <= 0 {
		return 0.0
	}
	return 60.0 / (interval / sampleRate)
}
