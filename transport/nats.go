// Package transport moves brightness samples and heart-rate updates between
// processes: NATS for sample frames and updates, MQTT for downstream
// consumers and WebSocket for browsers.
package transport

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/session"
)

// ErrMalformedFrame is returned by DecodeSamples when the payload is not a
// whole number of float32 values
var ErrMalformedFrame = errors.New("malformed sample frame")

// Connect dials a NATS server and keeps reconnecting forever
func Connect(url, name string) (*nats.Conn, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "nats",
		"url":       url,
	})

	nc, err := nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logging.Fields{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logging.Fields{"server": c.ConnectedUrl()})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	logger.Info("NATS connected", logging.Fields{"name": name})
	return nc, nil
}

// EncodeSamples packs values as little-endian float32
func EncodeSamples(values []float64) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// DecodeSamples unpacks a frame written by EncodeSamples
func DecodeSamples(data []byte) ([]float64, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(data))
	}

	values := make([]float64, len(data)/4)
	for i := range values {
		values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return values, nil
}

// Publisher is the part of *nats.Conn used to publish
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes session updates as JSON on a fixed subject
type NATSSink struct {
	pub     Publisher
	subject string
}

// NewNATSSink creates a sink on subject
func NewNATSSink(pub Publisher, subject string) *NATSSink {
	return &NATSSink{pub: pub, subject: subject}
}

// Publish implements session.Sink
func (s *NATSSink) Publish(_ context.Context, u session.Update) error {
	payload, err := json.Marshal(u.Message())
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	if err := s.pub.Publish(s.subject, payload); err != nil {
		return fmt.Errorf("failed to publish update on %s: %w", s.subject, err)
	}
	return nil
}

// NATSSource turns sample frames received on a subject into a stream of
// brightness values
type NATSSource struct {
	nc      *nats.Conn
	subject string
	logger  logging.Logger

	frames    atomic.Uint64
	malformed atomic.Uint64
}

// NewNATSSource creates a source for subject
func NewNATSSource(nc *nats.Conn, subject string) *NATSSource {
	return &NATSSource{
		nc:      nc,
		subject: subject,
		logger: logging.WithFields(logging.Fields{
			"component": "nats_source",
			"subject":   subject,
		}),
	}
}

// Samples subscribes and returns the decoded values in arrival order. The
// channel is closed and the subscription removed when ctx is done.
func (s *NATSSource) Samples(ctx context.Context, buffer int) (<-chan float64, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := s.nc.ChanSubscribe(s.subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
	}

	out := make(chan float64, buffer)
	go func() {
		defer func() {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				s.logger.Error(err, "Failed to unsubscribe")
			}
		}()
		s.pump(ctx, msgs, out)
	}()

	s.logger.Info("Subscribed to samples")
	return out, nil
}

// Stats returns the number of frames received and how many were dropped as
// malformed
func (s *NATSSource) Stats() (frames, malformed uint64) {
	return s.frames.Load(), s.malformed.Load()
}

func (s *NATSSource) pump(ctx context.Context, msgs <-chan *nats.Msg, out chan<- float64) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-msgs:
			s.frames.Add(1)
			values, err := DecodeSamples(msg.Data)
			if err != nil {
				s.malformed.Add(1)
				s.logger.Warn("Dropped frame", logging.Fields{"error": err.Error()})
				continue
			}
			for _, v := range values {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
