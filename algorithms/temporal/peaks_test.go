package temporal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/pulso/algorithms/filters"
)

// pulseTrain is a sinusoid whose maxima are period samples apart. The phase
// offset keeps neighbouring samples from tying at the crest.
func pulseTrain(n int, period float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/period+0.3)
	}
	return out
}

func TestFindPeaks_ShortSeries(t *testing.T) {
	assert.Empty(t, FindPeaks(nil, 0.1))
	assert.Empty(t, FindPeaks([]float64{1}, 0.1))
	assert.Empty(t, FindPeaks([]float64{1, 5}, 0.1))
}

func TestFindPeaks_Flat(t *testing.T) {
	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 42
	}
	assert.Empty(t, FindPeaks(flat, 0))
	assert.Empty(t, FindPeaks(flat, 0.5))
}

func TestFindPeaks_ThresholdGate(t *testing.T) {
	// two local maxima; only the tall one clears mean + 1*sd
	series := []float64{0, 1, 0, 0, 0, 10, 0, 0}

	assert.Equal(t, []int{1, 5}, FindPeaks(series, -10))
	assert.Equal(t, []int{5}, FindPeaks(series, 1))
	assert.Empty(t, FindPeaks(series, 5))
}

func TestFindPeaks_PlateauIsNotAPeak(t *testing.T) {
	series := []float64{0, 3, 3, 0, 0, 4, 0}
	assert.Equal(t, []int{5}, FindPeaks(series, 0))
}

func TestFindPeaks_NeverAtEdgesAndAscending(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		series := make([]float64, 3+rng.Intn(200))
		for i := range series {
			series[i] = rng.Float64() * 10
		}
		// make the edges the largest values
		series[0] = 100
		series[len(series)-1] = 100

		peaks := FindPeaks(series, 0)
		for i, p := range peaks {
			assert.NotEqual(t, 0, p)
			assert.NotEqual(t, len(series)-1, p)
			if i > 0 {
				assert.Greater(t, p, peaks[i-1])
			}
		}
	}
}

func TestPeakDetector_MinDistance(t *testing.T) {
	series := []float64{0, 5, 0, 6, 0, 0, 0, 7, 0, 0}

	assert.Equal(t, []int{1, 3, 7}, NewPeakDetector(-10, 0).Detect(series))
	assert.Equal(t, []int{1, 7}, NewPeakDetector(-10, 3).Detect(series))
}

func TestPeakIntervalsAndAverage(t *testing.T) {
	assert.Equal(t, []int{10, 12, 8}, PeakIntervals([]int{5, 15, 27, 35}))
	assert.Empty(t, PeakIntervals([]int{5}))

	avg, ok := AverageInterval([]int{5, 15, 27, 35})
	require.True(t, ok)
	assert.InDelta(t, 10.0, avg, 1e-12)

	_, ok = AverageInterval([]int{4})
	assert.False(t, ok)
	_, ok = AverageInterval(nil)
	assert.False(t, ok)
}

func TestIntervalToBPM(t *testing.T) {
	assert.InDelta(t, 72.0, IntervalToBPM(25, 30), 1e-9)
	assert.InDelta(t, 225.0, IntervalToBPM(8, 30), 1e-9)
	assert.Zero(t, IntervalToBPM(0, 30))
	assert.Zero(t, IntervalToBPM(10, 0))
}

func TestRoundTripBPM(t *testing.T) {
	const sampleRate = 30.0

	for _, target := range []float64{45, 72, 150} {
		period := sampleRate * 60 / target
		series := pulseTrain(300, period)

		filtered := filters.Smooth(series, 0.5)
		peaks := FindPeaks(filtered, 0.1)
		require.GreaterOrEqual(t, len(peaks), 2, "target %v", target)

		avg, ok := AverageInterval(peaks)
		require.True(t, ok)
		assert.InDelta(t, target, IntervalToBPM(avg, sampleRate), 2, "target %v", target)
	}
}
