package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Verdant analytics
// daemon. All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Sampling  SamplingConfig  `yaml:"sampling"`
	Habitat   HabitatConfig   `yaml:"habitat"`
	Inference InferenceConfig `yaml:"inference"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies this unit and the plant it watches.
type DeviceConfig struct {
	// Serial is the device serial number. It keys all persisted state
	// and appears in every MQTT topic this device publishes.
	Serial string `yaml:"serial"`

	// PlantName and PlantVariety identify the monitored plant for
	// habitat lookups and telemetry documents.
	PlantName    string `yaml:"plant_name"`
	PlantVariety string `yaml:"plant_variety"`

	// MoistureThreshold is the soil moisture percentage at which
	// watering is due. Default: 30.
	MoistureThreshold float64 `yaml:"moisture_threshold"`

	// PredictionMinConfidence gates watering forecast uploads (0-100).
	// Default: 30.
	PredictionMinConfidence float64 `yaml:"prediction_min_confidence"`
}

// SamplingConfig controls the periodic pipeline.
type SamplingConfig struct {
	// Interval is the tick period in seconds. Default: 60.
	Interval int `yaml:"interval"`

	// Source selects where readings come from: "mqtt" (frames from the
	// measurement head) or "sim" (synthetic readings for development).
	Source string `yaml:"source"`

	// FrameMaxAge is how old an MQTT frame may be, in seconds, before
	// the tick treats it as stale. 0 disables the check. Default: 300.
	FrameMaxAge int `yaml:"frame_max_age"`

	// SimSeed seeds the simulator when source is "sim".
	SimSeed int64 `yaml:"sim_seed"`
}

// HabitatConfig points at the plant habitat catalogue.
type HabitatConfig struct {
	// CatalogueURL is the habitat catalogue base URL. Empty disables
	// remote fetching; the cached copy and built-in defaults are used.
	CatalogueURL string `yaml:"catalogue_url"`
}

// InferenceConfig selects the health classifier backend.
type InferenceConfig struct {
	// ServiceURL is the model service base URL. Empty selects the
	// built-in heuristic baseline scorer.
	ServiceURL string `yaml:"service_url"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
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
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains settings for the optional local time-series
// mirror of readings and forecasts.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig contains Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: VERDANT_SECTION_KEY
// For example: VERDANT_DATABASE_PATH, VERDANT_MQTT_HOST
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
		Device: DeviceConfig{
			PlantName:               "monstera",
			PlantVariety:            "deliciosa",
			MoistureThreshold:       30,
			PredictionMinConfidence: 30,
		},
		Sampling: SamplingConfig{
			Interval:    60,
			Source:      "mqtt",
			FrameMaxAge: 300,
			SimSeed:     1,
		},
		Database: DatabaseConfig{
			Path:        "./data/verdant.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "verdant-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9109",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// VERDANT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("VERDANT_DEVICE_SERIAL"); v != "" {
		cfg.Device.Serial = v
	}
	if v := os.Getenv("VERDANT_DEVICE_PLANT_NAME"); v != "" {
		cfg.Device.PlantName = v
	}
	if v := os.Getenv("VERDANT_DEVICE_PLANT_VARIETY"); v != "" {
		cfg.Device.PlantVariety = v
	}

	// Sampling
	if v := os.Getenv("VERDANT_SAMPLING_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampling.Interval = n
		}
	}
	if v := os.Getenv("VERDANT_SAMPLING_SOURCE"); v != "" {
		cfg.Sampling.Source = v
	}

	// Habitat / inference endpoints
	if v := os.Getenv("VERDANT_HABITAT_CATALOGUE_URL"); v != "" {
		cfg.Habitat.CatalogueURL = v
	}
	if v := os.Getenv("VERDANT_INFERENCE_SERVICE_URL"); v != "" {
		cfg.Inference.ServiceURL = v
	}

	// Database
	if v := os.Getenv("VERDANT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("VERDANT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VERDANT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VERDANT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VERDANT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation. The serial keys every persisted snapshot and
	// every publish topic; nothing works without it.
	if c.Device.Serial == "" {
		errs = append(errs, "device.serial is required (set VERDANT_DEVICE_SERIAL environment variable)")
	}
	if c.Device.MoistureThreshold < 0 || c.Device.MoistureThreshold > 100 {
		errs = append(errs, "device.moisture_threshold must be between 0 and 100")
	}
	if c.Device.PredictionMinConfidence < 0 || c.Device.PredictionMinConfidence > 100 {
		errs = append(errs, "device.prediction_min_confidence must be between 0 and 100")
	}

	// Sampling validation
	if c.Sampling.Interval < 1 {
		errs = append(errs, "sampling.interval must be at least 1 second")
	}
	switch c.Sampling.Source {
	case "mqtt", "sim":
	default:
		errs = append(errs, "sampling.source must be \"mqtt\" or \"sim\"")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Metrics validation
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, "metrics.addr is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetSamplingInterval returns the tick period as a Duration.
func (c *Config) GetSamplingInterval() time.Duration {
	return time.Duration(c.Sampling.Interval) * time.Second
}

// GetFrameMaxAge returns the frame staleness limit as a Duration.
func (c *Config) GetFrameMaxAge() time.Duration {
	return time.Duration(c.Sampling.FrameMaxAge) * time.Second
}
