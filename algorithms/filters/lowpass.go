package filters

import (
	"math"
)

// ExponentialLowPass implements a first-order IIR low-pass filter, the
// exponential moving average:
//
//	y[0] = x[0]
//	y[n] = alpha*x[n] + (1-alpha)*y[n-1]
//
// alpha lies in (0, 1]. Smaller values smooth more and lag more; alpha = 1
// passes the input through unchanged. Fingertip brightness traces differ in
// noise level from one camera to the next, so alpha is always supplied by
// the caller rather than fixed here.
type ExponentialLowPass struct {
	alpha float64

	// State variables
	y1          float64 // Previous output sample y[n-1]
	initialized bool    // false until the first sample seeds y1
}

// NewExponentialLowPass creates a low-pass filter with the given smoothing
// factor. Values outside (0, 1] are clamped into that range.
func NewExponentialLowPass(alpha float64) *ExponentialLowPass {
	return &ExponentialLowPass{alpha: clampAlpha(alpha)}
}

// NewExponentialLowPassWithCutoff derives alpha from a -3dB cutoff frequency
// using the RC analogue: alpha = dt / (RC + dt), RC = 1 / (2*pi*fc).
func NewExponentialLowPassWithCutoff(sampleRate, cutoffFreq float64) *ExponentialLowPass {
	return NewExponentialLowPass(AlphaForCutoff(sampleRate, cutoffFreq))
}

// AlphaForCutoff returns the smoothing factor whose cutoff is cutoffFreq Hz at
// sampleRate. Non-positive arguments give alpha = 1 (no smoothing).
func AlphaForCutoff(sampleRate, cutoffFreq float64) float64 {
	if sampleRate <= 0 || cutoffFreq <= 0 {
		return 1.0
	}
	dt := 1.0 / sampleRate
	rc := 1.0 / (2.0 * math.Pi * cutoffFreq)
	return clampAlpha(dt / (rc + dt))
}

// Process filters a single sample
func (lp *ExponentialLowPass) Process(input float64) float64 {
	if !lp.initialized {
		lp.y1 = input
		lp.initialized = true
		return input
	}

	lp.y1 = lp.alpha*input + (1.0-lp.alpha)*lp.y1
	return lp.y1
}

// ProcessBuffer filters an entire buffer, continuing from the current state
func (lp *ExponentialLowPass) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = lp.Process(sample)
	}
	return output
}

// Reset clears the filter state; the next sample seeds the output again
func (lp *ExponentialLowPass) Reset() {
	lp.y1 = 0.0
	lp.initialized = false
}

// SetAlpha changes the smoothing factor without touching the state
func (lp *ExponentialLowPass) SetAlpha(alpha float64) {
	lp.alpha = clampAlpha(alpha)
}

// GetAlpha returns the current smoothing factor
func (lp *ExponentialLowPass) GetAlpha() float64 {
	return lp.alpha
}

// GetCutoffFrequency returns the approximate -3dB cutoff in Hz at sampleRate
func (lp *ExponentialLowPass) GetCutoffFrequency(sampleRate float64) float64 {
	if sampleRate <= 0 || lp.alpha >= 1.0 {
		return sampleRate / 2.0
	}
	dt := 1.0 / sampleRate
	rc := dt * (1.0 - lp.alpha) / lp.alpha
	return 1.0 / (2.0 * math.Pi * rc)
}

// Smooth runs a fresh exponential moving average over series and returns the
// filtered copy. series is not modified. alpha is clamped like
// NewExponentialLowPass.
func Smooth(series []float64, alpha float64) []float64 {
	return NewExponentialLowPass(alpha).ProcessBuffer(series)
}

func clampAlpha(alpha float64) float64 {
	if math.IsNaN(alpha) || alpha > 1.0 {
		return 1.0
	}
	if alpha <= 0.0 {
		return math.SmallestNonzeroFloat64
	}
	return alpha
}
