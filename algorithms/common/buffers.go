package common

import (
	"math"
	"time"
)

// Sample is one brightness reading and the instant it was taken
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SampleBuffer is a fixed-capacity ring of timestamped samples. Once full,
// every Add overwrites the oldest entry, so steady-state operation never
// allocates.
//
// SampleBuffer is not safe for concurrent use; callers that share one across
// goroutines must serialize access.
type SampleBuffer struct {
	samples    []Sample
	sampleRate float64
	head       int // index of the oldest sample
	count      int
}

// NewSampleBuffer creates a buffer holding at most capacity samples recorded at
// sampleRate samples per second. A capacity below 1 is raised to 1.
func NewSampleBuffer(capacity int, sampleRate float64) *SampleBuffer {
	capacity = max(capacity, 1)
	return &SampleBuffer{
		samples:    make([]Sample, capacity),
		sampleRate: sampleRate,
	}
}

// Add appends a sample, evicting the oldest one when the buffer is full
func (sb *SampleBuffer) Add(value float64, timestamp time.Time) {
	size := len(sb.samples)
	s := Sample{Timestamp: timestamp, Value: value}

	if sb.count < size {
		sb.samples[(sb.head+sb.count)%size] = s
		sb.count++
		return
	}

	// Buffer full, overwrite oldest data
	sb.samples[sb.head] = s
	sb.head = (sb.head + 1) % size
}

// Last returns the n most recent samples in chronological order.
// n is capped to the number of buffered samples.
func (sb *SampleBuffer) Last(n int) []Sample {
	n = min(max(n, 0), sb.count)
	out := make([]Sample, n)
	start := sb.count - n
	for i := range n {
		out[i] = sb.samples[(sb.head+start+i)%len(sb.samples)]
	}
	return out
}

// LastValues is Last without the timestamps
func (sb *SampleBuffer) LastValues(n int) []float64 {
	n = min(max(n, 0), sb.count)
	out := make([]float64, n)
	start := sb.count - n
	for i := range n {
		out[i] = sb.samples[(sb.head+start+i)%len(sb.samples)].Value
	}
	return out
}

// Window returns the trailing samples covering durationSeconds at the
// buffer's sample rate, or everything buffered if that is less.
func (sb *SampleBuffer) Window(durationSeconds float64) []Sample {
	return sb.Last(SecondsToSamples(durationSeconds, sb.sampleRate))
}

// Values returns every buffered value, oldest first
func (sb *SampleBuffer) Values() []float64 {
	return sb.LastValues(sb.count)
}

// Len returns the number of buffered samples
func (sb *SampleBuffer) Len() int {
	return sb.count
}

// Cap returns the maximum number of samples the buffer retains
func (sb *SampleBuffer) Cap() int {
	return len(sb.samples)
}

// SampleRate returns the nominal sample rate the buffer was created with
func (sb *SampleBuffer) SampleRate() float64 {
	return sb.sampleRate
}

// IsFull returns true if buffer is full
func (sb *SampleBuffer) IsFull() bool {
	return sb.count == len(sb.samples)
}

// Reset empties the buffer without releasing its storage
func (sb *SampleBuffer) Reset() {
	clear(sb.samples)
	sb.head = 0
	sb.count = 0
}

// SecondsToSamples returns how many whole samples fit in seconds at
// sampleRate, so a window never spans more than the requested duration.
// Negative or non-finite results yield 0.
func SecondsToSamples(seconds, sampleRate float64) int {
	// the epsilon keeps products like 2.3*30 = 68.99999999999999 at 69
	n := math.Floor(seconds*sampleRate + 1e-9)
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(n)
}
