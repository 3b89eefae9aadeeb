package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1000000000, 0)

func fill(sb *SampleBuffer, n int) {
	for i := range n {
		sb.Add(float64(i), t0.Add(time.Duration(i)*time.Second/30))
	}
}

func TestSampleBuffer_Empty(t *testing.T) {
	sb := NewSampleBuffer(600, 30)

	assert.Equal(t, 0, sb.Len())
	assert.Equal(t, 600, sb.Cap())
	assert.Empty(t, sb.Window(10))
	assert.Empty(t, sb.Values())
	assert.False(t, sb.IsFull())
}

func TestSampleBuffer_EvictsOldestFirst(t *testing.T) {
	const rate = 30
	capacity := 20 * rate
	sb := NewSampleBuffer(capacity, rate)

	fill(sb, capacity+5)

	require.Equal(t, capacity, sb.Len())
	assert.True(t, sb.IsFull())

	values := sb.Values()
	require.Len(t, values, capacity)
	for i, v := range values {
		assert.Equal(t, float64(i+5), v, "index %d", i)
	}
}

func TestSampleBuffer_WindowIsTrailing(t *testing.T) {
	sb := NewSampleBuffer(600, 30)
	fill(sb, 400)

	w := sb.Window(10)
	require.Len(t, w, 300)
	assert.Equal(t, 100.0, w[0].Value)
	assert.Equal(t, 399.0, w[len(w)-1].Value)
	assert.True(t, w[0].Timestamp.Before(w[1].Timestamp))

	// 300.6 samples: never more than the requested duration
	assert.Len(t, sb.Window(10.02), 300)

	// longer than what is buffered
	assert.Len(t, sb.Window(60), 400)
}

func TestSampleBuffer_WindowAfterWrap(t *testing.T) {
	sb := NewSampleBuffer(10, 1)
	fill(sb, 23)

	w := sb.Window(4)
	require.Len(t, w, 4)
	assert.Equal(t, []float64{19, 20, 21, 22}, []float64{w[0].Value, w[1].Value, w[2].Value, w[3].Value})
	assert.Equal(t, []float64{21, 22}, sb.LastValues(2))
}

func TestSampleBuffer_Reset(t *testing.T) {
	sb := NewSampleBuffer(5, 1)
	fill(sb, 7)
	sb.Reset()

	assert.Equal(t, 0, sb.Len())
	sb.Add(42, t0)
	assert.Equal(t, []float64{42}, sb.Values())
}

func TestSampleBuffer_MinimumCapacity(t *testing.T) {
	sb := NewSampleBuffer(0, 30)
	sb.Add(1, t0)
	sb.Add(2, t0)
	assert.Equal(t, []float64{2}, sb.Values())
}

func TestSecondsToSamples(t *testing.T) {
	assert.Equal(t, 150, SecondsToSamples(5, 30))
	assert.Equal(t, 300, SecondsToSamples(10, 30))
	assert.Equal(t, 75, SecondsToSamples(2.5, 30))
	assert.Equal(t, 69, SecondsToSamples(2.3, 30))
	assert.Equal(t, 1, SecondsToSamples(0.05, 30)) // 1.5 samples
	assert.Equal(t, 0, SecondsToSamples(0.02, 30)) // 0.6 samples
	assert.Equal(t, 0, SecondsToSamples(-1, 30))
	assert.Equal(t, 0, SecondsToSamples(math.Inf(1), 30))
}

func TestStatistics(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mean, sd := MeanPopStdDev(data)
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, sd, 1e-12)
	assert.InDelta(t, 7.0, Range(data), 1e-12)
	assert.InDelta(t, 5.0, Mean(data), 1e-12)
	assert.Greater(t, StandardDeviation(data), sd)

	mean, sd = MeanPopStdDev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, sd)
	assert.Zero(t, Range(nil))
	assert.False(t, IsFinite(math.NaN()))
	assert.True(t, IsFinite(-3))
}
