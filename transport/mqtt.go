package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/session"
)

// ErrNotConnected is returned when publishing while the broker is unreachable
var ErrNotConnected = errors.New("mqtt not connected")

// MQTTConfig configures the MQTT sink
type MQTTConfig struct {
	Broker      string `json:"broker" yaml:"broker"` // host:port
	ClientID    string `json:"client_id" yaml:"client_id"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
	ProgressQoS byte   `json:"progress_qos" yaml:"progress_qos"`
	FinalQoS    byte   `json:"final_qos" yaml:"final_qos"`

	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	PublishTimeout time.Duration `json:"publish_timeout" yaml:"publish_timeout"`
}

// DefaultMQTTConfig publishes progress at most once and final results at
// least once
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		ClientID:       "pulso",
		TopicPrefix:    "pulso/sessions",
		ProgressQoS:    0,
		FinalQoS:       1,
		ConnectTimeout: 5 * time.Second,
		PublishTimeout: 2 * time.Second,
	}
}

// Validate checks the broker settings
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.TopicPrefix == "" {
		return fmt.Errorf("mqtt.topic_prefix is required")
	}
	if c.ProgressQoS > 2 || c.FinalQoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// Topic returns the topic a session's updates are published on
func Topic(prefix, sessionID string) string {
	return fmt.Sprintf("%s/%s/bpm", prefix, sessionID)
}

// MQTTSink publishes session updates to an MQTT broker
type MQTTSink struct {
	cfg    MQTTConfig
	client mqtt.Client
	logger logging.Logger

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTSink creates an unconnected sink
func NewMQTTSink(cfg MQTTConfig) *MQTTSink {
	return &MQTTSink{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "mqtt_sink",
			"broker":    cfg.Broker,
		}),
	}
}

// Connect establishes the broker connection. Lost connections are
// re-established in the background.
func (m *MQTTSink) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", m.cfg.Broker))
	opts.SetClientID(m.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		m.setConnected(true)
		m.logger.Info("MQTT connection established", logging.Fields{"client_id": m.cfg.ClientID})
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		m.setConnected(false)
		m.logger.Warn("MQTT connection lost, will auto-reconnect", logging.Fields{"error": err.Error()})
	}

	m.client = mqtt.NewClient(opts)

	token := m.client.Connect()
	if err := m.wait(ctx, token, m.cfg.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	m.setConnected(true)
	return nil
}

// Publish implements session.Sink
func (m *MQTTSink) Publish(ctx context.Context, u session.Update) error {
	if m.client == nil || !m.isConnected() {
		m.countError()
		return ErrNotConnected
	}

	payload, err := json.Marshal(u.Message())
	if err != nil {
		m.countError()
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	topic := Topic(m.cfg.TopicPrefix, u.SessionID)
	qos := m.cfg.ProgressQoS
	if u.Final {
		qos = m.cfg.FinalQoS
	}

	token := m.client.Publish(topic, qos, false, payload)
	if err := m.wait(ctx, token, m.cfg.PublishTimeout); err != nil {
		m.countError()
		return fmt.Errorf("publish to %s failed: %w", topic, err)
	}

	m.mu.Lock()
	m.published++
	m.mu.Unlock()

	m.logger.Debug("Update published", logging.Fields{
		"topic": topic,
		"qos":   qos,
		"size":  len(payload),
	})
	return nil
}

// Disconnect closes the broker connection
func (m *MQTTSink) Disconnect() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
		m.logger.Info("MQTT disconnected")
	}
	m.setConnected(false)
}

// Stats returns the number of published updates and failed publishes
func (m *MQTTSink) Stats() (published, failed uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.published, m.errors
}

// wait blocks until the token completes, the timeout passes or ctx is done
func (m *MQTTSink) wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timeout after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MQTTSink) setConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

func (m *MQTTSink) isConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *MQTTSink) countError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}
