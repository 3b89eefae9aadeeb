package ppg

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/RyanBlaney/pulso/algorithms/common"
	"github.com/RyanBlaney/pulso/algorithms/filters"
	"github.com/RyanBlaney/pulso/algorithms/spectral"
	"github.com/RyanBlaney/pulso/algorithms/temporal"
	"github.com/RyanBlaney/pulso/internal/clock"
	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/ppg/config"
)

// ErrInvalidSample is returned by AddSample for negative, NaN or infinite
// brightness values. The sample is not buffered.
var ErrInvalidSample = errors.New("invalid sample")

// Option customizes an Estimator
type Option func(*Estimator)

// WithLogger replaces the component logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp samples
func WithClock(c clock.Clock) Option {
	return func(e *Estimator) {
		if c != nil {
			e.clock = c
		}
	}
}

// Estimator turns a stream of fingertip brightness samples into heart-rate
// estimates. One goroutine may call AddSample while another calls Estimate:
// the buffer is guarded by a mutex and every estimate works on its own copy.
type Estimator struct {
	cfg      config.Config
	gate     *QualityGate
	detector *temporal.PeakDetector
	clock    clock.Clock
	logger   logging.Logger

	mu     sync.Mutex
	buffer *common.SampleBuffer
}

// New validates cfg and creates an estimator with an empty buffer
func New(cfg config.Config, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Estimator{
		cfg:      cfg,
		gate:     NewQualityGate(cfg),
		detector: temporal.NewPeakDetector(cfg.PeakThresholdFactor, cfg.MinPeakDistanceSamples()),
		clock:    clock.System{},
		logger: logging.WithFields(logging.Fields{
			"component": "bpm_estimator",
		}),
		buffer: common.NewSampleBuffer(cfg.BufferCapacity(), cfg.SampleRate),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// AddSample buffers a brightness value stamped with the estimator's clock
func (e *Estimator) AddSample(value float64) error {
	return e.AddSampleAt(value, e.clock.Now())
}

// AddSampleAt buffers a brightness value taken at ts
func (e *Estimator) AddSampleAt(value float64, ts time.Time) error {
	if !common.IsFinite(value) || value < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSample, value)
	}

	e.mu.Lock()
	e.buffer.Add(value, ts)
	e.mu.Unlock()
	return nil
}

// Estimate runs the pipeline over the current buffer:
// quality gate, low-pass filter, peak detection, interval averaging and
// range check. Every call returns a fresh Result; rejections are outcomes,
// not errors.
func (e *Estimator) Estimate() Result {
	e.mu.Lock()
	values := e.buffer.Values()
	e.mu.Unlock()

	result := e.estimate(values)

	e.logger.Debug("Estimate completed", logging.Fields{
		"outcome":  result.Outcome().String(),
		"buffered": len(values),
		"samples":  result.Diagnostics().Samples,
		"peaks":    result.Diagnostics().Peaks,
		"raw_bpm":  result.Diagnostics().RawBPM,
	})

	return result
}

func (e *Estimator) estimate(values []float64) Result {
	if outcome := e.gate.Check(values); outcome != OutcomeValid {
		return rejectedResult(outcome, Diagnostics{Samples: len(values)})
	}

	windowSize := min(e.cfg.EstimationWindowSamples(), len(values))
	window := values[len(values)-windowSize:]

	filtered := filters.Smooth(window, e.cfg.LowPassAlpha)

	low, high := e.cfg.CardiacBandHz()
	diag := Diagnostics{
		Samples:           len(window),
		CardiacPowerRatio: spectral.BandPowerRatio(filtered, e.cfg.SampleRate, low, high),
	}

	peaks := e.detector.Detect(filtered)
	diag.Peaks = len(peaks)

	avgInterval, ok := temporal.AverageInterval(peaks)
	if !ok {
		return rejectedResult(OutcomeInsufficientPeaks, diag)
	}

	bpm := temporal.IntervalToBPM(avgInterval, e.cfg.SampleRate)
	diag.RawBPM = bpm

	if bpm < e.cfg.MinValidBPM || bpm > e.cfg.MaxValidBPM {
		return rejectedResult(OutcomeOutOfRange, diag)
	}

	return validResult(int(math.Round(bpm)), diag)
}

// Len returns the number of buffered samples
func (e *Estimator) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.Len()
}

// Samples returns a copy of the buffered samples, oldest first
func (e *Estimator) Samples() []common.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.Last(e.buffer.Len())
}

// Ready reports whether enough history is buffered for the quality gate to
// consider the signal
func (e *Estimator) Ready() bool {
	return e.Len() >= e.cfg.MinWindowSamples()
}

// Reset discards all buffered samples
func (e *Estimator) Reset() {
	e.mu.Lock()
	e.buffer.Reset()
	e.mu.Unlock()
}

// Config returns the configuration the estimator was built with
func (e *Estimator) Config() config.Config {
	return e.cfg
}
