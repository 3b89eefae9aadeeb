// Package synth generates synthetic fingertip brightness traces for tests,
// demos and the sample producer.
package synth

import (
	"math"
	"math/rand"
)

// Params shapes the synthetic trace
type Params struct {
	SampleRate    float64 // samples per second
	HeartRate     float64 // beats per minute
	Baseline      float64 // mean brightness, 0-255 scale
	Amplitude     float64 // height of the systolic hump
	Noise         float64 // standard deviation of additive gaussian noise
	RespirationHz float64 // baseline wander frequency, 0 disables it
	Seed          int64
}

// DefaultParams models a 30 fps red-channel trace at 72 BPM
func DefaultParams() Params {
	return Params{
		SampleRate:    30,
		HeartRate:     72,
		Baseline:      120,
		Amplitude:     4,
		Noise:         0,
		RespirationHz: 0.25,
		Seed:          1,
	}
}

// PPGSim produces a pulse-like waveform: a systolic hump followed by a
// smaller diastolic shoulder, riding on a slowly breathing baseline. The two
// humps are close enough to merge into one maximum per beat.
type PPGSim struct {
	p     Params
	phase float64 // position inside the current beat, [0, 1)
	n     int     // samples emitted
	rng   *rand.Rand
}

// NewPPGSim creates a generator. Output is deterministic for a given Params.
func NewPPGSim(p Params) *PPGSim {
	return &PPGSim{p: p, rng: rand.New(rand.NewSource(p.Seed))}
}

// Next returns the next brightness sample and advances time by one frame.
// Samples are clamped at 0.
func (s *PPGSim) Next() float64 {
	t := s.phase

	systolic := gauss(t, 0.25, 0.1)
	diastolic := 0.4 * gauss(t, 0.42, 0.1)

	seconds := float64(s.n) / s.p.SampleRate
	wander := 0.0
	if s.p.RespirationHz > 0 {
		wander = 0.1 * s.p.Amplitude * math.Sin(2*math.Pi*s.p.RespirationHz*seconds)
	}

	noise := 0.0
	if s.p.Noise > 0 {
		noise = s.p.Noise * s.rng.NormFloat64()
	}

	v := s.p.Baseline + wander + s.p.Amplitude*(systolic+diastolic) + noise

	s.n++
	s.phase += s.p.HeartRate / 60.0 / s.p.SampleRate
	s.phase -= math.Floor(s.phase)

	return math.Max(v, 0)
}

// Generate returns the next n samples
func (s *PPGSim) Generate(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

// SetHeartRate changes the simulated rate without a phase jump
func (s *PPGSim) SetHeartRate(bpm float64) {
	s.p.HeartRate = bpm
}

// Flat returns n copies of value: a covered lens with no pulse
func Flat(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// Sine returns n samples of a sinusoid whose maxima are exactly
// sampleRate*60/bpm samples apart
func Sine(n int, sampleRate, bpm, mean, amplitude float64) []float64 {
	period := sampleRate * 60 / bpm
	out := make([]float64, n)
	for i := range out {
		// offset keeps the crest from landing on two equal samples
		out[i] = mean + amplitude*math.Sin(2*math.Pi*float64(i)/period+0.3)
	}
	return out
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
