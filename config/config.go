package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	VeSync VeSyncConfig `yaml:"vesync"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Log    LogConfig    `yaml:"log"`
}

type VeSyncConfig struct {
	Account    string      `yaml:"account"`
	Password   string      `yaml:"password"`
	BaseURL    string      `yaml:"base_url"`
	SwitchType string      `yaml:"switch_type"`
	Timeout    string      `yaml:"timeout"`
	Retry      RetryConfig `yaml:"retry"`
}

// RetryConfig is off (one attempt) unless max_attempts is above 1.
type RetryConfig struct {
	MaxAttempts  int     `yaml:"max_attempts"`
	InitialDelay string  `yaml:"initial_delay"`
	MaxDelay     string  `yaml:"max_delay"`
	Multiplier   float64 `yaml:"multiplier"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.VeSync.Account == "" {
		errs = append(errs, errors.New("vesync.account is required"))
	}
	if c.VeSync.Password == "" {
		errs = append(errs, errors.New("vesync.password is required"))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.VeSync.BaseURL == "" {
		c.VeSync.BaseURL = "https://smartapi.vesync.com"
	}
	if c.VeSync.SwitchType == "" {
		c.VeSync.SwitchType = "wifi-switch-1.3"
	}
	if c.VeSync.Timeout == "" {
		c.VeSync.Timeout = "15s"
	}
	if c.VeSync.Retry.MaxAttempts == 0 {
		c.VeSync.Retry.MaxAttempts = 1
	}
	if c.VeSync.Retry.InitialDelay == "" {
		c.VeSync.Retry.InitialDelay = "100ms"
	}
	if c.VeSync.Retry.MaxDelay == "" {
		c.VeSync.Retry.MaxDelay = "5s"
	}
	if c.VeSync.Retry.Multiplier == 0 {
		c.VeSync.Retry.Multiplier = 2.0
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "vesync"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "vesync"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
