package ppg

import (
	"github.com/RyanBlaney/pulso/algorithms/common"
	"github.com/RyanBlaney/pulso/ppg/config"
)

// QualityGate decides whether buffered brightness values can hold a pulse
// at all. A finger that does not cover the lens gives a short or flat trace,
// and filtering and peak picking on that would only report noise.
type QualityGate struct {
	minSamples   int
	minVariation float64
}

// NewQualityGate creates a gate from the estimator configuration
func NewQualityGate(cfg config.Config) *QualityGate {
	return &QualityGate{
		minSamples:   cfg.MinWindowSamples(),
		minVariation: cfg.MinVariationThreshold,
	}
}

// Check returns OutcomeValid when values pass, otherwise the rejection.
// History length is checked before variation.
func (g *QualityGate) Check(values []float64) Outcome {
	if len(values) < g.minSamples {
		return OutcomeInsufficientHistory
	}
	if common.Range(values) <= g.minVariation {
		return OutcomeLowVariation
	}
	return OutcomeValid
}

// IsAcceptable reports whether Check passes
func (g *QualityGate) IsAcceptable(values []float64) bool {
	return g.Check(values) == OutcomeValid
}
