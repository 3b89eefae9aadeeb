// Package service runs measurement sessions back to back over a sample
// stream and reports their progress over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/RyanBlaney/pulso/internal/clock"
	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/session"
)

// Option customizes a Service
type Option func(*Service)

// WithClock sets the clock handed to every session
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger replaces the service logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service starts a new session on the first sample after the previous one
// finished, so a steady stream yields consecutive measurements
type Service struct {
	cfg    Config
	sink   session.Sink
	clock  clock.Clock
	logger logging.Logger

	mu        sync.Mutex
	current   *session.Session
	completed int
	last      *session.Update
}

// New creates a service publishing to sink, which may be nil
func New(cfg Config, sink session.Sink, opts ...Option) *Service {
	s := &Service{
		cfg:   cfg,
		sink:  sink,
		clock: clock.System{},
		logger: logging.WithFields(logging.Fields{
			"component": "service",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes samples until the channel is closed or ctx is cancelled.
// Closing the channel finishes the running session; cancelling abandons it.
func (s *Service) Run(ctx context.Context, samples <-chan float64) error {
	for {
		var (
			first float64
			ok    bool
		)
		select {
		case <-ctx.Done():
			return nil
		case first, ok = <-samples:
			if !ok {
				s.logger.Info("Sample stream closed", logging.Fields{"sessions": s.Completed()})
				return nil
			}
		}

		sess, err := s.startSession()
		if err != nil {
			return err
		}

		if err := sess.Push(ctx, first); err != nil {
			s.logger.Warn("Dropped invalid sample", logging.Fields{"value": first})
		}

		u, err := sess.Run(ctx, samples)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.clear()
			return nil
		}
		if err != nil {
			return err
		}
		s.complete(u)
	}
}

// Status is the health snapshot served on /healthz
type Status struct {
	Status         string           `json:"status"`
	Sessions       int              `json:"sessions_completed"`
	CurrentSession string           `json:"current_session,omitempty"`
	Progress       float64          `json:"progress"`
	Last           *session.Message `json:"last,omitempty"`
}

// Status reports the running session and the last completed result
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Status: "ok", Sessions: s.completed}
	if s.current != nil {
		st.CurrentSession = s.current.ID()
		st.Progress = s.current.Progress()
	}
	if s.last != nil {
		m := s.last.Message()
		st.Last = &m
	}
	return st
}

// Completed returns the number of finished sessions
func (s *Service) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Handler serves /healthz and, when hub is non-nil, the WebSocket feed on /ws
func (s *Service) Handler(hub http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			s.logger.Error(err, "Failed to write health status")
		}
	})
	if hub != nil {
		mux.Handle("/ws", hub)
	}
	return mux
}

func (s *Service) startSession() (*session.Session, error) {
	id := uuid.NewString()
	sess, err := session.New(s.cfg.Session, s.cfg.Estimator, s.sink,
		session.WithID(id),
		session.WithClock(s.clock),
		session.WithLogger(s.logger.WithFields(logging.Fields{"session_id": id})),
	)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *Service) complete(u session.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.completed++
	s.last = &u
}

func (s *Service) clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
