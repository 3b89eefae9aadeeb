package service

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/pulso/logging"
	"github.com/RyanBlaney/pulso/ppg/config"
	"github.com/RyanBlaney/pulso/session"
	"github.com/RyanBlaney/pulso/transport"
)

// Config is the complete service configuration
type Config struct {
	LogLevel  string         `yaml:"log_level"`
	Estimator config.Config  `yaml:"estimator"`
	Session   session.Config `yaml:"session"`
	NATS      NATSConfig     `yaml:"nats"`
	MQTT      MQTTConfig     `yaml:"mqtt"`
	HTTP      HTTPConfig     `yaml:"http"`
}

// NATSConfig names the sample input and update output subjects
type NATSConfig struct {
	URL            string `yaml:"url"`
	Name           string `yaml:"name"`
	SamplesSubject string `yaml:"samples_subject"`
	UpdatesSubject string `yaml:"updates_subject"` // empty disables NATS output
}

// MQTTConfig enables the optional MQTT sink
type MQTTConfig struct {
	transport.MQTTConfig `yaml:",inline"`

	Enabled bool `yaml:"enabled"`
}

// HTTPConfig configures the WebSocket and health endpoint
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the HTTP server
}

// Default returns a configuration that runs against a local NATS server
func Default() Config {
	return Config{
		LogLevel:  "info",
		Estimator: config.Default(),
		Session:   session.DefaultConfig(),
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			Name:           "pulso",
			SamplesSubject: "pulso.samples",
			UpdatesSubject: "pulso.bpm",
		},
		MQTT: MQTTConfig{
			MQTTConfig: transport.DefaultMQTTConfig(),
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Keys that
// are absent keep their default values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := c.Estimator.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}

	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.NATS.SamplesSubject == "" {
		return fmt.Errorf("nats.samples_subject is required")
	}
	if c.NATS.Name == "" {
		c.NATS.Name = "pulso"
	}

	if c.MQTT.Enabled {
		if err := c.MQTT.MQTTConfig.Validate(); err != nil {
			return err
		}
	}

	return nil
}
