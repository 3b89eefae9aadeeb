package config

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 600, cfg.BufferCapacity())
	assert.Equal(t, 150, cfg.MinWindowSamples())
	assert.Equal(t, 300, cfg.EstimationWindowSamples())
	assert.Equal(t, 0, cfg.MinPeakDistanceSamples())

	low, high := cfg.CardiacBandHz()
	assert.InDelta(t, 0.5, low, 1e-12)
	assert.InDelta(t, 220.0/60.0, high, 1e-12)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, "sample_rate"},
		{"negative sample rate", func(c *Config) { c.SampleRate = -30 }, "sample_rate"},
		{"nan sample rate", func(c *Config) { c.SampleRate = math.NaN() }, "sample_rate"},
		{"tiny buffer", func(c *Config) { c.BufferSeconds = 0.05 }, "buffer"},
		{"inverted bpm range", func(c *Config) { c.MinValidBPM = 200; c.MaxValidBPM = 100 }, "min_valid_bpm"},
		{"zero min bpm", func(c *Config) { c.MinValidBPM = 0 }, "min_valid_bpm"},
		{"negative variation", func(c *Config) { c.MinVariationThreshold = -1 }, "min_variation_threshold"},
		{"zero min window", func(c *Config) { c.MinWindowSeconds = 0 }, "min_window_seconds"},
		{"sub-sample min window", func(c *Config) { c.MinWindowSeconds = 0.001 }, "min_window_seconds"},
		{"min window beyond buffer", func(c *Config) { c.MinWindowSeconds = 30 }, "min_window_seconds"},
		{"zero alpha", func(c *Config) { c.LowPassAlpha = 0 }, "low_pass_alpha"},
		{"alpha above one", func(c *Config) { c.LowPassAlpha = 1.5 }, "low_pass_alpha"},
		{"negative refractory", func(c *Config) { c.MinPeakIntervalSeconds = -0.1 }, "min_peak_interval_seconds"},
		{"zero estimation window", func(c *Config) { c.EstimationWindowSeconds = 0 }, "estimation_window_seconds"},
		{"sub-sample estimation window", func(c *Config) { c.EstimationWindowSeconds = 0.01 }, "estimation_window_seconds"},
		{"two-sample estimation window", func(c *Config) { c.EstimationWindowSeconds = 0.07 }, "estimation_window_seconds"},
		{"infinite factor", func(c *Config) { c.PeakThresholdFactor = math.Inf(1) }, "peak_threshold_factor"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidateAcceptsEdgeValues(t *testing.T) {
	cfg := Default()
	cfg.LowPassAlpha = 1
	cfg.PeakThresholdFactor = -0.5
	cfg.MinVariationThreshold = 0
	cfg.EstimationWindowSeconds = 60 // capped to the buffer at estimate time
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.MinWindowSeconds = 1.0 / 30
	cfg.EstimationWindowSeconds = 0.1
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.MinWindowSamples())
	assert.Equal(t, 3, cfg.EstimationWindowSamples())
}
