package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for fusionsolar2mqtt.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	System      SystemConfig      `yaml:"system"`
	FusionSolar FusionSolarConfig `yaml:"fusionsolar"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	History     HistoryConfig     `yaml:"history"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Poll        PollConfig        `yaml:"poll"`
}

// SystemConfig contains logging settings.
type SystemConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogOutput string `yaml:"log_output"`
}

// FusionSolarConfig contains FusionSolar northbound API credentials and options.
type FusionSolarConfig struct {
	// Username is the northbound API account (not the portal login).
	Username string `yaml:"username"`

	// Password is the systemCode issued for the northbound account.
	Password string `yaml:"password"`

	// BaseURL is the regional FusionSolar endpoint.
	// Default: https://eu5.fusionsolar.huawei.com
	BaseURL string `yaml:"base_url"`

	// DeviceFile caches the discovered plant/device inventory.
	// Delete the file to force re-discovery on the next run.
	DeviceFile string `yaml:"device_file"`

	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Topic     string              `yaml:"topic"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains optional InfluxDB history sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// HistoryConfig contains optional local SQLite snapshot archive settings.
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// Keep is the number of snapshots to retain. 0 means unlimited.
	Keep int `yaml:"keep"`
}

// KafkaConfig contains optional Kafka sink settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// PollConfig contains polling loop settings.
type PollConfig struct {
	// Interval between polling cycles in seconds. 0 means run once and exit.
	Interval int `yaml:"interval"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Only credential and endpoint values are overridable from the
// environment (see applyEnvOverrides for the supported variables);
// everything else is file-only.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			LogLevel:  "info",
			LogFormat: "text",
			LogOutput: "stderr",
		},
		FusionSolar: FusionSolarConfig{
			BaseURL:    "https://eu5.fusionsolar.huawei.com",
			DeviceFile: "devices.json",
			Timeout:    30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:   1,
			Topic: "fusionsolar",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		History: HistoryConfig{
			Path:        "./data/fusionsolar.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Only secrets and endpoints are overridable, so they can be
// kept out of the settings file: FUSIONSOLAR_USERNAME, FUSIONSOLAR_PASSWORD,
// FUSIONSOLAR_BASE_URL, FUSIONSOLAR_MQTT_HOST, FUSIONSOLAR_MQTT_USERNAME,
// FUSIONSOLAR_MQTT_PASSWORD and FUSIONSOLAR_INFLUXDB_TOKEN.
func applyEnvOverrides(cfg *Config) {
	// FusionSolar credentials (preferred over storing them in the file)
	if v := os.Getenv("FUSIONSOLAR_USERNAME"); v != "" {
		cfg.FusionSolar.Username = v
	}
	if v := os.Getenv("FUSIONSOLAR_PASSWORD"); v != "" {
		cfg.FusionSolar.Password = v
	}
	if v := os.Getenv("FUSIONSOLAR_BASE_URL"); v != "" {
		cfg.FusionSolar.BaseURL = v
	}

	// MQTT
	if v := os.Getenv("FUSIONSOLAR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FUSIONSOLAR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FUSIONSOLAR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("FUSIONSOLAR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// FusionSolar validation
	if c.FusionSolar.Username == "" {
		errs = append(errs, "fusionsolar.username is required (set FUSIONSOLAR_USERNAME environment variable)")
	}
	if c.FusionSolar.Password == "" {
		errs = append(errs, "fusionsolar.password is required (set FUSIONSOLAR_PASSWORD environment variable)")
	}
	if c.FusionSolar.BaseURL == "" {
		errs = append(errs, "fusionsolar.base_url is required")
	}

	// MQTT validation
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required")
	}

	// InfluxDB validation (only when enabled)
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set FUSIONSOLAR_INFLUXDB_TOKEN environment variable)")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	// History validation (only when enabled)
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}
	if c.History.Keep < 0 {
		errs = append(errs, "history.keep must not be negative")
	}

	// Kafka validation (only when enabled)
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka.topic is required when kafka is enabled")
		}
	}

	// Poll validation
	if c.Poll.Interval < 0 {
		errs = append(errs, "poll.interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the per-request HTTP timeout as a Duration.
func (c FusionSolarConfig) GetRequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetInterval returns the polling interval as a Duration.
func (c PollConfig) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}
