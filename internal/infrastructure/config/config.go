package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Operating modes.
const (
	// ModeContinuous loops forever without restarting the process.
	ModeContinuous = "continuous"

	// ModeRestart restarts the device after every telemetry cycle.
	ModeRestart = "restart"
)

// maxLinkPollAttempts caps link status polls so a cycle never waits on the
// link for more than ten intervals.
const maxLinkPollAttempts = 10

// Config is the root configuration structure for sensornode.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	// Location selects the entry in Locations when no location is given on the command line.
	Location  string                    `yaml:"location"`
	Mode      string                    `yaml:"mode"`
	DataDir   string                    `yaml:"data_dir"`
	Locations map[string]LocationConfig `yaml:"locations"`
	Device    DeviceConfig              `yaml:"device"`
	MQTT      MQTTConfig                `yaml:"mqtt"`
	Discovery DiscoveryConfig           `yaml:"discovery"`
	Cycle     CycleConfig               `yaml:"cycle"`
	Link      LinkConfig                `yaml:"link"`
	Sensor    SensorConfig              `yaml:"sensor"`
	Indicator IndicatorConfig           `yaml:"indicator"`
	Power     PowerConfig               `yaml:"power"`
	InfluxDB  InfluxDBConfig            `yaml:"influxdb"`
	Journal   JournalConfig             `yaml:"journal"`
	Logging   LoggingConfig             `yaml:"logging"`
}

// LocationConfig holds the per-deployment credentials and timing.
type LocationConfig struct {
	WiFi         WiFiConfig       `yaml:"wifi"`
	Broker       MQTTBrokerConfig `yaml:"broker"`
	Auth         MQTTAuthConfig   `yaml:"auth"`
	SleepSeconds int              `yaml:"sleep_seconds"`
}

// WiFiConfig contains access point credentials.
type WiFiConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// DeviceConfig contains the identity announced to Home Assistant.
type DeviceConfig struct {
	ClientID     string `yaml:"client_id"`
	UniqueID     string `yaml:"unique_id"`
	Name         string `yaml:"name"`
	Model        string `yaml:"model"`
	Manufacturer string `yaml:"manufacturer"`
}

// MQTTConfig contains MQTT settings shared by every location.
type MQTTConfig struct {
	Topic string `yaml:"topic"`
	QoS   int    `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
//
// An empty Host with MDNS enabled resolves the broker via _mqtt._tcp.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
	MDNS bool   `yaml:"mdns"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DiscoveryConfig controls Home Assistant MQTT discovery.
type DiscoveryConfig struct {
	Prefix string `yaml:"prefix"`

	// PerSession re-announces on every new broker session instead of once
	// per process lifetime.
	PerSession bool `yaml:"per_session"`
}

// CycleConfig contains the fixed timings of the supervisory loop.
type CycleConfig struct {
	// ContinuousSleepSeconds replaces the location sleep in continuous mode.
	// Zero keeps the location value.
	ContinuousSleepSeconds int `yaml:"continuous_sleep_seconds"`
	LinkPollAttempts       int `yaml:"link_poll_attempts"`
	LinkPollIntervalMS     int `yaml:"link_poll_interval_ms"`
	FailureCooldownSeconds int `yaml:"failure_cooldown_seconds"`
	DiscoveryGapMS         int `yaml:"discovery_gap_ms"`
}

// LinkConfig selects the network link backend.
type LinkConfig struct {
	// Driver is "nmcli" (Wi-Fi via NetworkManager) or "static" (pre-configured interface).
	Driver    string `yaml:"driver"`
	Interface string `yaml:"interface"`
	NMCLIPath string `yaml:"nmcli_path"`
}

// SensorConfig locates the DHT22 IIO device.
type SensorConfig struct {
	// Device is the IIO device directory, e.g. /sys/bus/iio/devices/iio:device0.
	Device string `yaml:"device"`
}

// IndicatorConfig contains the status LED line.
type IndicatorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip"`
	Line    int    `yaml:"line"`
}

// PowerConfig selects how a hard restart is performed.
type PowerConfig struct {
	// Restart is "reboot" (whole machine) or "exit" (process exit for systemd to restart).
	Restart  string `yaml:"restart"`
	ExitCode int    `yaml:"exit_code"`
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

// JournalConfig contains the SQLite cycle journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// KeepCycles bounds the number of cycle rows retained.
	KeepCycles int `yaml:"keep_cycles"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SENSORNODE_SECTION_KEY
// For example: SENSORNODE_WIFI_PASSWORD, SENSORNODE_MQTT_PASSWORD
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the factory defaults of the node.
func defaultConfig() *Config {
	return &Config{
		Location: "HOME",
		Mode:     ModeContinuous,
		DataDir:  "./data",
		Device: DeviceConfig{
			ClientID:     "pico_client",
			UniqueID:     "pico_dht22_001",
			Name:         "Pico DHT22",
			Model:        "Raspberry Pi Pico WH",
			Manufacturer: "Custom",
		},
		MQTT: MQTTConfig{
			Topic: "szenzor/dht22",
			QoS:   0,
		},
		Discovery: DiscoveryConfig{
			Prefix: "homeassistant",
		},
		Cycle: CycleConfig{
			ContinuousSleepSeconds: 5,
			LinkPollAttempts:       10,
			LinkPollIntervalMS:     1000,
			FailureCooldownSeconds: 5,
			DiscoveryGapMS:         2000,
		},
		Link: LinkConfig{
			Driver:    "nmcli",
			Interface: "wlan0",
			NMCLIPath: "nmcli",
		},
		Sensor: SensorConfig{
			Device: "/sys/bus/iio/devices/iio:device0",
		},
		Indicator: IndicatorConfig{
			Chip: "gpiochip0",
			Line: 2,
		},
		Power: PowerConfig{
			Restart:  "exit",
			ExitCode: 75,
		},
		Journal: JournalConfig{
			Path:        "./data/journal.db",
			WALMode:     true,
			BusyTimeout: 5,
			KeepCycles:  500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Credential overrides apply to every location so secrets never have to live in the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENSORNODE_LOCATION"); v != "" {
		cfg.Location = v
	}
	if v := os.Getenv("SENSORNODE_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("SENSORNODE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	for name, loc := range cfg.Locations {
		if v := os.Getenv("SENSORNODE_WIFI_PASSWORD"); v != "" {
			loc.WiFi.Password = v
		}
		if v := os.Getenv("SENSORNODE_MQTT_HOST"); v != "" {
			loc.Broker.Host = v
		}
		if v := os.Getenv("SENSORNODE_MQTT_PORT"); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				loc.Broker.Port = port
			}
		}
		if v := os.Getenv("SENSORNODE_MQTT_USERNAME"); v != "" {
			loc.Auth.Username = v
		}
		if v := os.Getenv("SENSORNODE_MQTT_PASSWORD"); v != "" {
			loc.Auth.Password = v
		}
		cfg.Locations[name] = loc
	}

	if v := os.Getenv("SENSORNODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Mode != ModeContinuous && c.Mode != ModeRestart {
		errs = append(errs, fmt.Sprintf("mode must be %q or %q", ModeContinuous, ModeRestart))
	}

	if len(c.Locations) == 0 {
		errs = append(errs, "at least one entry under locations is required")
	}
	for _, name := range c.LocationNames() {
		loc := c.Locations[name]
		if loc.Broker.Host == "" && !loc.Broker.MDNS {
			errs = append(errs, fmt.Sprintf("locations.%s.broker.host is required unless broker.mdns is set", name))
		}
		if loc.Broker.Port < 0 || loc.Broker.Port > 65535 {
			errs = append(errs, fmt.Sprintf("locations.%s.broker.port must be between 0 and 65535", name))
		}
		if loc.SleepSeconds < 0 {
			errs = append(errs, fmt.Sprintf("locations.%s.sleep_seconds must not be negative", name))
		}
		if c.Link.Driver == "nmcli" && loc.WiFi.SSID == "" {
			errs = append(errs, fmt.Sprintf("locations.%s.wifi.ssid is required for the nmcli link driver", name))
		}
	}

	if c.Device.ClientID == "" {
		errs = append(errs, "device.client_id is required")
	}

	if c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Discovery.Prefix == "" {
		errs = append(errs, "discovery.prefix is required")
	}

	if c.Cycle.LinkPollAttempts < 1 || c.Cycle.LinkPollAttempts > maxLinkPollAttempts {
		errs = append(errs, fmt.Sprintf("cycle.link_poll_attempts must be between 1 and %d", maxLinkPollAttempts))
	}
	if c.Cycle.LinkPollIntervalMS <= 0 {
		errs = append(errs, "cycle.link_poll_interval_ms must be positive")
	}
	if c.Cycle.FailureCooldownSeconds <= 0 {
		errs = append(errs, "cycle.failure_cooldown_seconds must be positive")
	}
	if c.Cycle.DiscoveryGapMS <= 0 {
		errs = append(errs, "cycle.discovery_gap_ms must be positive")
	}

	switch c.Link.Driver {
	case "nmcli", "static":
	default:
		errs = append(errs, "link.driver must be nmcli or static")
	}

	switch c.Power.Restart {
	case "reboot", "exit":
	default:
		errs = append(errs, "power.restart must be reboot or exit")
	}

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

// LocationNames returns the configured location keys in sorted order.
func (c *Config) LocationNames() []string {
	names := make([]string, 0, len(c.Locations))
	for name := range c.Locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the RuntimeConfig for the named location.
// An empty name falls back to the Location field.
func (c *Config) Resolve(location string) (RuntimeConfig, error) {
	if location == "" {
		location = c.Location
	}

	loc, ok := c.Locations[location]
	if !ok {
		return RuntimeConfig{}, fmt.Errorf("unknown location %q (configured: %s)",
			location, strings.Join(c.LocationNames(), ", "))
	}

	port := loc.Broker.Port
	if port == 0 {
		port = defaultBrokerPort
	}

	sleep := time.Duration(loc.SleepSeconds) * time.Second
	if c.Mode == ModeContinuous && c.Cycle.ContinuousSleepSeconds > 0 {
		sleep = time.Duration(c.Cycle.ContinuousSleepSeconds) * time.Second
	}

	username := loc.Auth.Username
	if username == "" {
		username = defaultBrokerUsername
	}

	return RuntimeConfig{
		Location:            location,
		Mode:                c.Mode,
		SSID:                loc.WiFi.SSID,
		WiFiPassword:        loc.WiFi.Password,
		BrokerHost:          loc.Broker.Host,
		BrokerPort:          port,
		BrokerTLS:           loc.Broker.TLS,
		BrokerMDNS:          loc.Broker.MDNS,
		Username:            username,
		Password:            loc.Auth.Password,
		ClientID:            c.Device.ClientID,
		Topic:               c.MQTT.Topic,
		QoS:                 byte(c.MQTT.QoS), // #nosec G115 -- validated to 0..2
		DiscoveryPrefix:     c.Discovery.Prefix,
		DiscoveryPerSession: c.Discovery.PerSession,
		Sleep:               sleep,
		LinkPollAttempts:    c.Cycle.LinkPollAttempts,
		LinkPollInterval:    time.Duration(c.Cycle.LinkPollIntervalMS) * time.Millisecond,
		FailureCooldown:     time.Duration(c.Cycle.FailureCooldownSeconds) * time.Second,
		DiscoveryGap:        time.Duration(c.Cycle.DiscoveryGapMS) * time.Millisecond,
	}, nil
}
