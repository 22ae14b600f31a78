package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Endpoint roles.
const (
	RoleSensor   = "sensor"
	RoleActuator = "actuator"
)

// GPIO drivers.
const (
	DriverPeriph = "periph"
	DriverSim    = "sim"
)

// Config is the root configuration structure for a pico-link endpoint.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Network  NetworkConfig  `yaml:"network"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Loop     LoopConfig     `yaml:"loop"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Logging  LoggingConfig  `yaml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Journal  JournalConfig  `yaml:"journal"`
}

// DeviceConfig identifies the endpoint.
type DeviceConfig struct {
	// Role selects the endpoint loop: "sensor" (buttons) or "actuator" (LED).
	Role string `yaml:"role"`

	// ID names the device in its status topic (stm/{id}/status).
	// Defaults to "devA" for the sensor and "devB" for the actuator.
	ID string `yaml:"id"`
}

// NetworkConfig controls how the endpoint waits for network association.
// Credentials (SSID, passphrase) are owned by the host OS, not by pico-link.
type NetworkConfig struct {
	// Interface is the interface to watch. Empty means any non-loopback interface.
	Interface string `yaml:"interface"`

	// PollInterval is the association check interval in milliseconds.
	PollInterval int `yaml:"poll_interval_ms"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig `yaml:"broker"`
	Auth      MQTTAuthConfig   `yaml:"auth"`
	KeepAlive int              `yaml:"keepalive"`
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

// LoopConfig contains endpoint loop pacing.
type LoopConfig struct {
	// PollInterval is the sleep between loop iterations in milliseconds.
	PollInterval int `yaml:"poll_interval_ms"`

	// RetryDelay is the actuator's pause before reopening a failed session, in milliseconds.
	RetryDelay int `yaml:"retry_delay_ms"`
}

// GPIOConfig contains pin assignments.
type GPIOConfig struct {
	// Driver is "periph" for real hardware or "sim" for in-memory pins.
	Driver  string         `yaml:"driver"`
	Buttons []ButtonConfig `yaml:"buttons"`
	LEDPin  string         `yaml:"led_pin"`
}

// ButtonConfig binds a pull-up input pin to the message it publishes when pressed.
type ButtonConfig struct {
	Name    string `yaml:"name"`
	Pin     string `yaml:"pin"`
	Topic   string `yaml:"topic"`
	Payload string `yaml:"payload"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// JournalConfig contains settings for the local SQLite event journal.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//  4. Role defaults for identifiers left empty
//
// Environment variables follow the pattern: PICOLINK_SECTION_KEY
// For example: PICOLINK_DEVICE_ROLE, PICOLINK_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyRoleDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config matching the reference two-board deployment.
func defaultConfig() *Config {
	return &Config{
		Network: NetworkConfig{
			PollInterval: 200,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "10.122.12.25",
				Port: 1883,
			},
			KeepAlive: 30,
		},
		Loop: LoopConfig{
			PollInterval: 20,
			RetryDelay:   1000,
		},
		GPIO: GPIOConfig{
			Driver: DriverPeriph,
			Buttons: []ButtonConfig{
				{Name: "button-21", Pin: "GPIO21", Topic: "stm/led/cmd", Payload: "TOGGLE"},
				{Name: "button-22", Pin: "GPIO22", Topic: "stm/led/hello", Payload: "HELLO"},
			},
			LEDPin: "GPIO20",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Journal: JournalConfig{
			Path:        "./data/picolink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PICOLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("PICOLINK_DEVICE_ROLE"); v != "" {
		cfg.Device.Role = v
	}
	if v := os.Getenv("PICOLINK_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// Network
	if v := os.Getenv("PICOLINK_NETWORK_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}

	// MQTT
	if v := os.Getenv("PICOLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PICOLINK_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("PICOLINK_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("PICOLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PICOLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// GPIO
	if v := os.Getenv("PICOLINK_GPIO_DRIVER"); v != "" {
		cfg.GPIO.Driver = v
	}

	// InfluxDB
	if v := os.Getenv("PICOLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Journal
	if v := os.Getenv("PICOLINK_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

// applyRoleDefaults fills the client and device identifiers of the
// reference deployment (PicoA/devA sensor, PicoB/devB actuator).
func applyRoleDefaults(cfg *Config) {
	cfg.Device.Role = strings.ToLower(strings.TrimSpace(cfg.Device.Role))

	switch cfg.Device.Role {
	case RoleSensor:
		if cfg.MQTT.Broker.ClientID == "" {
			cfg.MQTT.Broker.ClientID = "PicoA"
		}
		if cfg.Device.ID == "" {
			cfg.Device.ID = "devA"
		}
	case RoleActuator:
		if cfg.MQTT.Broker.ClientID == "" {
			cfg.MQTT.Broker.ClientID = "PicoB"
		}
		if cfg.Device.ID == "" {
			cfg.Device.ID = "devB"
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation
	role := strings.ToLower(c.Device.Role)
	if role != RoleSensor && role != RoleActuator {
		errs = append(errs, `device.role must be "sensor" or "actuator"`)
	}
	if c.Device.ID == "" || strings.ContainsAny(c.Device.ID, "/+#") {
		errs = append(errs, "device.id is required and must not contain '/', '+' or '#'")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.KeepAlive < 1 {
		errs = append(errs, "mqtt.keepalive must be at least 1 second")
	}

	// Loop validation
	if c.Loop.PollInterval < 1 {
		errs = append(errs, "loop.poll_interval_ms must be positive")
	}
	if c.Loop.RetryDelay < 0 {
		errs = append(errs, "loop.retry_delay_ms must not be negative")
	}
	if c.Network.PollInterval < 1 {
		errs = append(errs, "network.poll_interval_ms must be positive")
	}

	// GPIO validation
	if c.GPIO.Driver != DriverPeriph && c.GPIO.Driver != DriverSim {
		errs = append(errs, `gpio.driver must be "periph" or "sim"`)
	}
	switch role {
	case RoleSensor:
		if len(c.GPIO.Buttons) == 0 {
			errs = append(errs, "gpio.buttons must list at least one button for the sensor role")
		}
		for i, b := range c.GPIO.Buttons {
			if b.Pin == "" || b.Topic == "" || b.Payload == "" {
				errs = append(errs, fmt.Sprintf("gpio.buttons[%d] requires pin, topic and payload", i))
			}
		}
	case RoleActuator:
		if c.GPIO.LEDPin == "" {
			errs = append(errs, "gpio.led_pin is required for the actuator role")
		}
	}

	// Optional sinks
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetKeepAlive returns the broker keepalive as a Duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.MQTT.KeepAlive) * time.Second
}

// GetPollInterval returns the endpoint loop interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Loop.PollInterval) * time.Millisecond
}

// GetRetryDelay returns the actuator reconnect pause as a Duration.
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.Loop.RetryDelay) * time.Millisecond
}

// GetNetworkPollInterval returns the association check interval as a Duration.
func (c *Config) GetNetworkPollInterval() time.Duration {
	return time.Duration(c.Network.PollInterval) * time.Millisecond
}
