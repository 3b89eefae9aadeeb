package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tone(n int, sampleRate, freq, dc float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dc + math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestPowerSpectrum_PeakBin(t *testing.T) {
	const rate = 30.0
	x := tone(300, rate, 1.2, 150) // 1.2 Hz lands exactly on bin 12

	power := NewFFT().PowerSpectrum(x)
	require.Len(t, power, 151)

	best := 0
	for k := range power {
		if power[k] > power[best] {
			best = k
		}
	}
	assert.Equal(t, 12, best)
	assert.InDelta(t, 0.0, power[0], 1e-6, "DC must be removed")
}

func TestBandPowerRatio(t *testing.T) {
	const rate = 30.0

	inBand := BandPowerRatio(tone(300, rate, 1.2, 150), rate, 0.5, 3.7)
	assert.InDelta(t, 1.0, inBand, 1e-6)

	outOfBand := BandPowerRatio(tone(300, rate, 9, 150), rate, 0.5, 3.7)
	assert.InDelta(t, 0.0, outOfBand, 1e-6)

	flat := make([]float64, 300)
	assert.Zero(t, BandPowerRatio(flat, rate, 0.5, 3.7))
	assert.Zero(t, BandPowerRatio(nil, rate, 0.5, 3.7))
	assert.Zero(t, BandPowerRatio(tone(300, rate, 1, 0), 0, 0.5, 3.7))
}
