package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/pulso/algorithms/common"
	"github.com/RyanBlaney/pulso/algorithms/windowing"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// PowerSpectrum returns |X[k]|^2 for k = 0..n/2 of the mean-removed signal,
// so bin 0 carries no DC offset from the brightness baseline.
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	return f.power(center(x))
}

func (f *FFT) power(x []float64) []float64 {
	spectrum := f.Compute(x)
	power := make([]float64, len(x)/2+1)
	for k := range power {
		m := cmplx.Abs(spectrum[k])
		power[k] = m * m
	}
	return power
}

func center(x []float64) []float64 {
	mean := common.Mean(x)
	centered := make([]float64, len(x))
	for i, v := range x {
		centered[i] = v - mean
	}
	return centered
}

// BandPowerRatio returns the share of AC signal power that falls between
// lowHz and highHz (inclusive). A clean pulse concentrates its power in the
// cardiac band, so the ratio is a cheap signal-quality index. The frame is
// Hann-tapered to keep leakage from off-bin rates out of neighbouring bands.
// It is 0 for signals with no AC power or a non-positive sample rate.
func BandPowerRatio(signal []float64, sampleRate, lowHz, highHz float64) float64 {
	if len(signal) < 2 || sampleRate <= 0 || highHz < lowHz {
		return 0.0
	}

	windowed, err := windowing.NewHann(len(signal), false).Apply(center(signal))
	if err != nil {
		return 0.0
	}

	f := NewFFT()
	power := f.power(windowed)
	binHz := sampleRate / float64(len(signal))

	total, inBand := 0.0, 0.0
	for k := 1; k < len(power); k++ {
		total += power[k]
		freq := float64(k) * binHz
		if freq >= lowHz && freq <= highHz {
			inBand += power[k]
		}
	}

	if total <= 1e-12 {
		return 0.0
	}
	return inBand / total
}
