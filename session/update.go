package session

import (
	"context"
	"errors"
	"time"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/ppg"
)

// Zone is the tempo category of a measured heart rate. Players use it to
// pick background audio; rejected estimates have ZoneUnknown.
type Zone string

const (
	ZoneUnknown Zone = "unknown"
	ZoneSlow    Zone = "slow"   // below 60 BPM
	ZoneMedium  Zone = "medium" // 60 to 99 BPM
	ZoneFast    Zone = "fast"   // 100 BPM and above
)

// ZoneFor classifies a result
func ZoneFor(r ppg.Result) Zone {
	bpm, ok := r.BPM()
	if !ok {
		return ZoneUnknown
	}
	switch {
	case bpm < 60:
		return ZoneSlow
	case bpm < 100:
		return ZoneMedium
	default:
		return ZoneFast
	}
}

// Update is one estimate emitted by a session
type Update struct {
	SessionID string
	Seq       int     // 1-based, increasing within a session
	Final     bool    // last update of the session
	Progress  float64 // elapsed fraction of the session duration, [0, 1]
	Result    ppg.Result
	Zone      Zone
	At        time.Time
}

// Message is the JSON wire form of an Update
type Message struct {
	SessionID string  `json:"session_id"`
	Seq       int     `json:"seq"`
	Final     bool    `json:"final"`
	Progress  float64 `json:"progress"`
	BPM       int     `json:"bpm"`
	IsValid   bool    `json:"is_valid"`
	Message   string  `json:"message"`
	Outcome   string  `json:"outcome"`
	Zone      Zone    `json:"zone"`
	Timestamp int64   `json:"ts"` // unix milliseconds
}

// Message flattens the update for publishing
func (u Update) Message() Message {
	report := u.Result.Report()
	return Message{
		SessionID: u.SessionID,
		Seq:       u.Seq,
		Final:     u.Final,
		Progress:  u.Progress,
		BPM:       report.BPM,
		IsValid:   report.IsValid,
		Message:   report.Message,
		Outcome:   report.Outcome,
		Zone:      u.Zone,
		Timestamp: u.At.UnixMilli(),
	}
}

// Sink receives session updates
type Sink interface {
	Publish(ctx context.Context, u Update) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, u Update) error

// Publish calls f
func (f SinkFunc) Publish(ctx context.Context, u Update) error {
	return f(ctx, u)
}

// MultiSink delivers every update to each sink in order. A failing sink is
// logged and does not stop delivery to the others; the joined error is
// returned.
type MultiSink struct {
	sinks  []Sink
	logger logging.Logger
}

// NewMultiSink creates a fan-out sink, skipping nil entries
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{
		logger: logging.WithFields(logging.Fields{
			"component": "multi_sink",
		}),
	}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Publish fans u out. Failures are logged with the fields carried by ctx.
func (m *MultiSink) Publish(ctx context.Context, u Update) error {
	logger := m.logger.WithContext(ctx)

	var errs []error
	for i, s := range m.sinks {
		if err := s.Publish(ctx, u); err != nil {
			logger.Error(err, "Sink publish failed", logging.Fields{"sink": i})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}
