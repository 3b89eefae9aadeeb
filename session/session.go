// Package session runs one timed heart-rate measurement: samples stream in,
// progress estimates are emitted at a fixed cadence, and a final estimate
// closes the session when its duration has elapsed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/pulso/algorithms/common"
	"github.com/RyanBlaney/pulso/internal/clock"
	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/ppg"
	"github.com/RyanBlaney/pulso/ppg/config"
)

// ErrSessionFinished is returned by Push after the final estimate
var ErrSessionFinished = errors.New("session finished")

// Config times a session
type Config struct {
	Duration         time.Duration `json:"duration" yaml:"duration"`                   // measurement length
	EstimateInterval time.Duration `json:"estimate_interval" yaml:"estimate_interval"` // cadence of progress estimates, 0 disables them
}

// DefaultConfig is a 20 second measurement with one progress estimate per second
func DefaultConfig() Config {
	return Config{
		Duration:         20 * time.Second,
		EstimateInterval: time.Second,
	}
}

// Validate checks the session timing
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("session duration must be > 0, got %s", c.Duration)
	}
	if c.EstimateInterval < 0 {
		return fmt.Errorf("session estimate_interval must be >= 0, got %s", c.EstimateInterval)
	}
	return nil
}

// Option customizes a Session
type Option func(*Session)

// WithClock sets the clock used for sample timestamps and elapsed time
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger replaces the session logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated session ID
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session owns the estimator of one measurement. Push and Finish may be
// called from different goroutines.
type Session struct {
	id     string
	cfg    Config
	est    *ppg.Estimator
	sink   Sink
	clock  clock.Clock
	logger logging.Logger
	start  time.Time

	estimateEvery int // samples between progress estimates
	minSamples    int

	mu       sync.Mutex
	pushed   int
	seq      int
	finished bool
	last     *Update
}

// New starts a session. sink may be nil when the caller only polls Last.
func New(cfg Config, estCfg config.Config, sink Sink, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		sink:  sink,
		clock: clock.System{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.WithFields(logging.Fields{
			"component":  "session",
			"session_id": s.id,
		})
	}

	est, err := ppg.New(estCfg, ppg.WithClock(s.clock), ppg.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create estimator: %w", err)
	}
	s.est = est
	s.start = s.clock.Now()
	s.estimateEvery = common.SecondsToSamples(cfg.EstimateInterval.Seconds(), estCfg.SampleRate)
	s.minSamples = estCfg.MinWindowSamples()

	s.logger.Info("Session started", logging.Fields{
		"duration":    cfg.Duration.String(),
		"sample_rate": estCfg.SampleRate,
	})

	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Push adds one brightness sample. It emits a progress estimate every
// EstimateInterval once the minimum history is buffered, and the final
// estimate when the duration has elapsed. Invalid samples are rejected with
// ppg.ErrInvalidSample and do not count towards the cadence.
func (s *Session) Push(ctx context.Context, value float64) error {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return ErrSessionFinished
	}
	if err := s.est.AddSample(value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pushed++

	var update *Update
	switch {
	case s.elapsed() >= s.cfg.Duration:
		update = s.finishLocked()
	case s.estimateEvery > 0 && s.pushed > s.minSamples && s.pushed%s.estimateEvery == 0:
		update = s.estimateLocked(false)
	}
	s.mu.Unlock()

	if update != nil {
		s.publish(ctx, *update)
	}
	return nil
}

// Finish runs the final estimate now. Calling it on a finished session
// returns the final update again with ErrSessionFinished.
func (s *Session) Finish(ctx context.Context) (Update, error) {
	s.mu.Lock()
	if s.finished {
		last := *s.last
		s.mu.Unlock()
		return last, ErrSessionFinished
	}
	update := s.finishLocked()
	s.mu.Unlock()

	s.publish(ctx, *update)
	return *update, nil
}

// Run feeds samples into the session until it finishes, the channel is
// closed (which finishes it early), or ctx is cancelled. Cancellation
// abandons the session without a final estimate. Invalid samples are
// dropped and logged.
func (s *Session) Run(ctx context.Context, samples <-chan float64) (Update, error) {
	dropped := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session cancelled", logging.Fields{"samples": s.Pushed()})
			return Update{}, ctx.Err()

		case v, ok := <-samples:
			if !ok {
				return s.Finish(ctx)
			}

			err := s.Push(ctx, v)
			switch {
			case err == nil:
			case errors.Is(err, ErrSessionFinished):
				last, _ := s.Last()
				return last, nil
			case errors.Is(err, ppg.ErrInvalidSample):
				dropped++
				s.logger.Warn("Dropped invalid sample", logging.Fields{
					"value":   v,
					"dropped": dropped,
				})
				continue
			default:
				return Update{}, err
			}

			if s.Finished() {
				last, _ := s.Last()
				return last, nil
			}
		}
	}
}

// Progress returns the elapsed fraction of the session duration
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return 1
	}
	return s.progressLocked()
}

// Finished reports whether the final estimate has been taken
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Last returns the most recent update, if any
func (s *Session) Last() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Update{}, false
	}
	return *s.last, true
}

// Pushed returns how many samples were accepted
func (s *Session) Pushed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushed
}

func (s *Session) elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}

func (s *Session) progressLocked() float64 {
	p := float64(s.elapsed()) / float64(s.cfg.Duration)
	return min(max(p, 0), 1)
}

func (s *Session) estimateLocked(final bool) *Update {
	result := s.est.Estimate()
	s.seq++

	progress := s.progressLocked()
	if final {
		progress = 1
	}

	u := &Update{
		SessionID: s.id,
		Seq:       s.seq,
		Final:     final,
		Progress:  progress,
		Result:    result,
		Zone:      ZoneFor(result),
		At:        s.clock.Now(),
	}
	s.last = u
	return u
}

func (s *Session) finishLocked() *Update {
	u := s.estimateLocked(true)
	s.finished = true
	s.est.Reset()

	s.logger.Info("Session finished", logging.Fields{
		"samples": s.pushed,
		"result":  u.Result.String(),
		"zone":    string(u.Zone),
	})
	return u
}

// publish tags ctx with the update identity so sinks can log with it
func (s *Session) publish(ctx context.Context, u Update) {
	if s.sink == nil {
		return
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{
		"session_id": u.SessionID,
		"seq":        u.Seq,
		"final":      u.Final,
	})
	if err := s.sink.Publish(ctx, u); err != nil {
		s.logger.WithContext(ctx).Error(err, "Failed to publish update")
	}
}
