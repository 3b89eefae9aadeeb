package ppg

import (
	"encoding/json"
	"fmt"
)

// NoBPM is the bpm reported for a rejected estimate in the flat
// {bpm, isValid, message} form.
const NoBPM = -1

// Messages shown to the user for each outcome
const (
	MessageValid            = "Valid measurement."
	MessageInvalidSignal    = "Invalid signal. Please try again."
	MessageInsufficientData = "Insufficient data. Keep finger steady."
	MessageOutOfRange       = "BPM out of valid range. Please try again."
)

// Outcome tags an estimate as a measurement or one of the expected rejections
type Outcome int

const (
	// OutcomeValid carries a heart rate within the configured bounds.
	OutcomeValid Outcome = iota
	// OutcomeInsufficientHistory means the buffer is shorter than the minimum window.
	OutcomeInsufficientHistory
	// OutcomeLowVariation means the buffer is too flat to hold a pulse.
	OutcomeLowVariation
	// OutcomeInsufficientPeaks means fewer than two beats were found.
	OutcomeInsufficientPeaks
	// OutcomeOutOfRange means the beat spacing implies an implausible rate.
	OutcomeOutOfRange
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeInsufficientHistory:
		return "insufficient_history"
	case OutcomeLowVariation:
		return "low_variation"
	case OutcomeInsufficientPeaks:
		return "insufficient_peaks"
	case OutcomeOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Message returns the user-facing text for the outcome. Both gate
// rejections share one message.
func (o Outcome) Message() string {
	switch o {
	case OutcomeValid:
		return MessageValid
	case OutcomeInsufficientHistory, OutcomeLowVariation:
		return MessageInvalidSignal
	case OutcomeInsufficientPeaks:
		return MessageInsufficientData
	case OutcomeOutOfRange:
		return MessageOutOfRange
	default:
		return MessageInvalidSignal
	}
}

// Diagnostics describes what one estimate looked at. It never affects the outcome.
type Diagnostics struct {
	Samples           int     `json:"samples"`             // length of the analysed window, or of the buffer on gate rejection
	Peaks             int     `json:"peaks"`               // peaks detected, 0 if detection did not run
	RawBPM            float64 `json:"raw_bpm"`             // unrounded rate, 0 if not computed
	CardiacPowerRatio float64 `json:"cardiac_power_ratio"` // share of filtered power in the valid BPM band
}

// Result is the outcome of one Estimate call. The bpm is only reachable for
// OutcomeValid. Results are values and never change after construction.
type Result struct {
	outcome     Outcome
	bpm         int
	diagnostics Diagnostics
}

func validResult(bpm int, d Diagnostics) Result {
	return Result{outcome: OutcomeValid, bpm: bpm, diagnostics: d}
}

func rejectedResult(o Outcome, d Diagnostics) Result {
	return Result{outcome: o, bpm: NoBPM, diagnostics: d}
}

// Outcome returns the result tag
func (r Result) Outcome() Outcome {
	return r.outcome
}

// BPM returns the rounded heart rate and true for a valid result
func (r Result) BPM() (int, bool) {
	if r.outcome != OutcomeValid {
		return 0, false
	}
	return r.bpm, true
}

// IsValid reports whether the result carries a measurement
func (r Result) IsValid() bool {
	return r.outcome == OutcomeValid
}

// Message returns text intended for direct display
func (r Result) Message() string {
	return r.outcome.Message()
}

// Diagnostics returns details about the analysed window
func (r Result) Diagnostics() Diagnostics {
	return r.diagnostics
}

// Report is the flat form of a Result consumed by displays and the wire
// format. BPM is NoBPM unless IsValid.
type Report struct {
	BPM     int    `json:"bpm"`
	IsValid bool   `json:"is_valid"`
	Message string `json:"message"`
	Outcome string `json:"outcome"`
}

// Report flattens the result
func (r Result) Report() Report {
	bpm := NoBPM
	if v, ok := r.BPM(); ok {
		bpm = v
	}
	return Report{
		BPM:     bpm,
		IsValid: r.IsValid(),
		Message: r.Message(),
		Outcome: r.outcome.String(),
	}
}

// MarshalJSON encodes the flat report
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Report())
}

func (r Result) String() string {
	if bpm, ok := r.BPM(); ok {
		return fmt.Sprintf("%d BPM", bpm)
	}
	return fmt.Sprintf("%s (%s)", r.outcome, r.Message())
}
