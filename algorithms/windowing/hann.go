// Package windowing tapers analysis frames before spectral estimation.
package windowing

import (
	"fmt"
	"math"
)

// Hann is a raised-cosine taper. The periodic form keeps a tone that falls
// exactly on an FFT bin confined to that bin and its two neighbours; the
// symmetric form reaches zero at both ends.
type Hann struct {
	symmetric    bool
	coefficients []float64
}

// NewHann creates a Hann window of size samples
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{symmetric: symmetric}
	h.generate(max(size, 0))
	return h
}

func (h *Hann) generate(size int) {
	h.coefficients = make([]float64, size)
	if size == 1 {
		h.coefficients[0] = 1
		return
	}

	denominator := float64(size)
	if h.symmetric {
		denominator = float64(size - 1)
	}
	for i := range size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// Apply returns signal multiplied by the window
func (h *Hann) Apply(signal []float64) ([]float64, error) {
	if len(signal) != len(h.coefficients) {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(h.coefficients))
	}

	windowed := make([]float64, len(signal))
	for i, v := range signal {
		windowed[i] = v * h.coefficients[i]
	}
	return windowed, nil
}

// Coefficients returns a copy of the window
func (h *Hann) Coefficients() []float64 {
	out := make([]float64, len(h.coefficients))
	copy(out, h.coefficients)
	return out
}

// Size returns the window length
func (h *Hann) Size() int {
	return len(h.coefficients)
}

// CoherentGain is the mean coefficient, 0.5 for long periodic windows
func (h *Hann) CoherentGain() float64 {
	if len(h.coefficients) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range h.coefficients {
		sum += c
	}
	return sum / float64(len(h.coefficients))
}
