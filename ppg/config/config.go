package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/pulso/algorithms/common"
)

// ErrInvalidConfig is wrapped by every error returned from Validate
var ErrInvalidConfig = errors.New("invalid estimator configuration")

// Config holds the tuning parameters of the heart-rate pipeline. A Config is
// read-only once handed to an estimator.
type Config struct {
	// Sampling
	SampleRate    float64 `json:"sample_rate" yaml:"sample_rate"`       // frames per second
	BufferSeconds float64 `json:"buffer_seconds" yaml:"buffer_seconds"` // history retained by the rolling buffer

	// Physiological bounds, inclusive
	MinValidBPM float64 `json:"min_valid_bpm" yaml:"min_valid_bpm"`
	MaxValidBPM float64 `json:"max_valid_bpm" yaml:"max_valid_bpm"`

	// Quality gate
	MinVariationThreshold float64 `json:"min_variation_threshold" yaml:"min_variation_threshold"` // required max-min of the buffer
	MinWindowSeconds      float64 `json:"min_window_seconds" yaml:"min_window_seconds"`           // history needed before any estimate

	// Filtering and peak picking
	LowPassAlpha            float64 `json:"low_pass_alpha" yaml:"low_pass_alpha"`
	PeakThresholdFactor     float64 `json:"peak_threshold_factor" yaml:"peak_threshold_factor"` // peaks must exceed mean + factor*stddev
	MinPeakIntervalSeconds  float64 `json:"min_peak_interval_seconds" yaml:"min_peak_interval_seconds"`
	EstimationWindowSeconds float64 `json:"estimation_window_seconds" yaml:"estimation_window_seconds"`
}

// Default returns the parameters tuned for a 30 fps phone camera
func Default() Config {
	return Config{
		SampleRate:              30,
		BufferSeconds:           20,
		MinValidBPM:             30,
		MaxValidBPM:             220,
		MinVariationThreshold:   0.5,
		MinWindowSeconds:        5,
		LowPassAlpha:            0.5,
		PeakThresholdFactor:     0.1,
		MinPeakIntervalSeconds:  0, // refractory check off
		EstimationWindowSeconds: 10,
	}
}

// Validate reports the first parameter that makes the pipeline meaningless
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"sample_rate", c.SampleRate},
		{"buffer_seconds", c.BufferSeconds},
		{"min_valid_bpm", c.MinValidBPM},
		{"max_valid_bpm", c.MaxValidBPM},
		{"min_variation_threshold", c.MinVariationThreshold},
		{"min_window_seconds", c.MinWindowSeconds},
		{"low_pass_alpha", c.LowPassAlpha},
		{"peak_threshold_factor", c.PeakThresholdFactor},
		{"min_peak_interval_seconds", c.MinPeakIntervalSeconds},
		{"estimation_window_seconds", c.EstimationWindowSeconds},
	}
	for _, f := range fields {
		if !common.IsFinite(f.value) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}

	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be > 0, got %v", ErrInvalidConfig, c.SampleRate)
	case c.BufferSeconds <= 0:
		return fmt.Errorf("%w: buffer_seconds must be > 0, got %v", ErrInvalidConfig, c.BufferSeconds)
	case c.BufferCapacity() < 3:
		return fmt.Errorf("%w: buffer must hold at least 3 samples, holds %d", ErrInvalidConfig, c.BufferCapacity())
	case c.MinValidBPM <= 0:
		return fmt.Errorf("%w: min_valid_bpm must be > 0, got %v", ErrInvalidConfig, c.MinValidBPM)
	case c.MinValidBPM >= c.MaxValidBPM:
		return fmt.Errorf("%w: min_valid_bpm (%v) must be below max_valid_bpm (%v)",
			ErrInvalidConfig, c.MinValidBPM, c.MaxValidBPM)
	case c.MinVariationThreshold < 0:
		return fmt.Errorf("%w: min_variation_threshold must be >= 0, got %v", ErrInvalidConfig, c.MinVariationThreshold)
	case c.MinWindowSeconds <= 0:
		return fmt.Errorf("%w: min_window_seconds must be > 0, got %v", ErrInvalidConfig, c.MinWindowSeconds)
	case c.MinWindowSamples() < 1:
		return fmt.Errorf("%w: min_window_seconds (%v) spans no whole sample at %v Hz",
			ErrInvalidConfig, c.MinWindowSeconds, c.SampleRate)
	case c.MinWindowSeconds > c.BufferSeconds:
		return fmt.Errorf("%w: min_window_seconds (%v) exceeds buffer_seconds (%v)",
			ErrInvalidConfig, c.MinWindowSeconds, c.BufferSeconds)
	case c.LowPassAlpha <= 0 || c.LowPassAlpha > 1:
		return fmt.Errorf("%w: low_pass_alpha must be in (0, 1], got %v", ErrInvalidConfig, c.LowPassAlpha)
	case c.MinPeakIntervalSeconds < 0:
		return fmt.Errorf("%w: min_peak_interval_seconds must be >= 0, got %v", ErrInvalidConfig, c.MinPeakIntervalSeconds)
	case c.EstimationWindowSeconds <= 0:
		return fmt.Errorf("%w: estimation_window_seconds must be > 0, got %v", ErrInvalidConfig, c.EstimationWindowSeconds)
	case c.EstimationWindowSamples() < 3:
		return fmt.Errorf("%w: estimation_window_seconds (%v) spans %d samples, peak detection needs 3",
			ErrInvalidConfig, c.EstimationWindowSeconds, c.EstimationWindowSamples())
	}

	return nil
}

// BufferCapacity is the number of samples the rolling buffer keeps
func (c Config) BufferCapacity() int {
	return common.SecondsToSamples(c.BufferSeconds, c.SampleRate)
}

// MinWindowSamples is the history the quality gate requires
func (c Config) MinWindowSamples() int {
	return common.SecondsToSamples(c.MinWindowSeconds, c.SampleRate)
}

// EstimationWindowSamples is the trailing window analysed per estimate,
// before capping to what is buffered
func (c Config) EstimationWindowSamples() int {
	return common.SecondsToSamples(c.EstimationWindowSeconds, c.SampleRate)
}

// MinPeakDistanceSamples is the refractory period in samples, 0 when off
func (c Config) MinPeakDistanceSamples() int {
	return common.SecondsToSamples(c.MinPeakIntervalSeconds, c.SampleRate)
}

// CardiacBandHz returns the frequency band spanned by the valid BPM range
func (c Config) CardiacBandHz() (low, high float64) {
	return c.MinValidBPM / 60.0, c.MaxValidBPM / 60.0
}
