package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/soliswatch/solis-agent/pkg/file"
)

const (
	// MaxInverters is the fixed per-account limit enforced by the agent.
	MaxInverters = 5

	// DefaultPollIntervalSeconds applies when the config omits an interval.
	DefaultPollIntervalSeconds = 60

	// MinPollIntervalSeconds and MaxPollIntervalSeconds bound the
	// configurable polling band.
	MinPollIntervalSeconds = 30
	MaxPollIntervalSeconds = 300
)

// Config represents the structure of the configuration file.
type Config struct {
	API struct {
		Key     string `yaml:"key"`      // SolisCloud API key ID
		Secret  string `yaml:"secret"`   // SolisCloud API secret
		BaseURL string `yaml:"base_url"` // Override for the API endpoint, empty for production
	} `yaml:"api"`

	Inverters struct {
		Serials []string `yaml:"serials"` // Serial numbers to poll, resolved once at setup
	} `yaml:"inverters"`

	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		Username      string `yaml:"username"`       // Broker username, optional
		Password      string `yaml:"password"`       // Broker password, optional
		TopicPrefix   string `yaml:"topic_prefix"`   // Prefix for all published topics
		QOS           int    `yaml:"qos"`            // MQTT QoS level for published messages
		CACertificate string `yaml:"ca_certificate"` // Path to a CA certificate, optional
	} `yaml:"mqtt"`

	Services struct {
		Polling struct {
			Interval int `yaml:"interval"` // Interval between polling cycles (in seconds)
		} `yaml:"polling"`

		Publisher struct {
			Enabled  bool `yaml:"enabled"`  // Enable/disable the MQTT readings publisher
			Interval int  `yaml:"interval"` // Interval between publishes (in seconds)
		} `yaml:"publisher"`

		Heartbeat struct {
			Enabled  bool `yaml:"enabled"`  // Enable/disable the agent heartbeat
			Interval int  `yaml:"interval"` // Interval between heartbeats (in seconds)
		} `yaml:"heartbeat"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file, applies
// defaults and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadSetupConfig loads the configuration for the one-shot credential check,
// which runs before any inverters are configured and therefore skips the
// steady-state validation.
func LoadSetupConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if config.API.Key == "" || config.API.Secret == "" {
		return nil, errors.New("api key and secret are required")
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Services.Polling.Interval == 0 {
		c.Services.Polling.Interval = DefaultPollIntervalSeconds
	}
	if c.Services.Publisher.Interval == 0 {
		c.Services.Publisher.Interval = c.Services.Polling.Interval
	}
	if c.Services.Heartbeat.Interval == 0 {
		c.Services.Heartbeat.Interval = DefaultPollIntervalSeconds
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "solis"
	}
}

// Validate rejects configurations the coordinator must never start with: an
// empty device list degenerates into a permanently failing cycle, and the
// account limit caps the list size.
func (c *Config) Validate() error {
	if c.API.Key == "" || c.API.Secret == "" {
		return errors.New("api key and secret are required")
	}

	if len(c.Inverters.Serials) == 0 {
		return errors.New("at least one inverter serial must be configured")
	}

	if len(c.Inverters.Serials) > MaxInverters {
		return fmt.Errorf("too many inverters configured (%d), maximum supported: %d",
			len(c.Inverters.Serials), MaxInverters)
	}

	interval := c.Services.Polling.Interval
	if interval < MinPollIntervalSeconds || interval > MaxPollIntervalSeconds {
		return fmt.Errorf("polling interval %ds outside the supported band [%ds, %ds]",
			interval, MinPollIntervalSeconds, MaxPollIntervalSeconds)
	}

	if (c.Services.Publisher.Enabled || c.Services.Heartbeat.Enabled) && c.MQTT.Broker == "" {
		return errors.New("mqtt broker is required when a publishing service is enabled")
	}

	return nil
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Services.Polling.Interval) * time.Second
}

// PublishInterval returns the publisher interval as a duration.
func (c *Config) PublishInterval() time.Duration {
	return time.Duration(c.Services.Publisher.Interval) * time.Second
}

// HeartbeatInterval returns the heartbeat interval as a duration.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Services.Heartbeat.Interval) * time.Second
}
