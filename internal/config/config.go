// Package config loads the bridge's runtime configuration: compiled-in
// defaults, an optional YAML file, environment variable overrides, and
// finally CLI flags (highest precedence), mirroring the teacher's layered
// defaults/YAML/env-override idiom.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the nx584 MQTT bridge.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Panel   PanelConfig   `yaml:"panel"`
	Logging LoggingConfig `yaml:"logging"`
	Health  HealthConfig  `yaml:"health"`
}

// SerialConfig describes the physical connection to the panel's serial
// interface module.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// MQTTConfig contains MQTT broker connection and discovery settings.
type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
	// TopicRoot is the Home Assistant MQTT Discovery prefix (default
	// "homeassistant").
	TopicRoot string `yaml:"topic_root"`
}

// String returns a representation with the password masked, for safe
// logging.
func (m MQTTConfig) String() string {
	password := ""
	if m.Password != "" {
		password = "[REDACTED]"
	}
	return fmt.Sprintf("MQTTConfig{Host:%q, Port:%d, Username:%q, Password:%s, QoS:%d, TopicRoot:%q}",
		m.Host, m.Port, m.Username, password, m.QoS, m.TopicRoot)
}

// MarshalJSON redacts the password when MQTTConfig is serialised.
func (m MQTTConfig) MarshalJSON() ([]byte, error) {
	type redacted MQTTConfig
	safe := redacted(m)
	if safe.Password != "" {
		safe.Password = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// PanelConfig describes the panel identity and access credential.
type PanelConfig struct {
	UniqueID string `yaml:"unique_id"`
	Name     string `yaml:"name"`
	MaxZones int    `yaml:"max_zones"`
	// IgnoredZones holds 1-based zone indices to skip during sync.
	IgnoredZones []int `yaml:"ignored_zones"`

	// Exactly one of Code or User must be set.
	Code string `yaml:"code"`
	User int    `yaml:"user"`

	ZoneDiscoveryInterval time.Duration `yaml:"zone_discovery_interval"`
	RepublishInterval     time.Duration `yaml:"republish_interval"`
}

// String masks Code, the panel access PIN.
func (p PanelConfig) String() string {
	code := ""
	if p.Code != "" {
		code = "[REDACTED]"
	}
	return fmt.Sprintf("PanelConfig{UniqueID:%q, Name:%q, MaxZones:%d, User:%d, Code:%s}",
		p.UniqueID, p.Name, p.MaxZones, p.User, code)
}

// MarshalJSON redacts Code when PanelConfig is serialised.
func (p PanelConfig) MarshalJSON() ([]byte, error) {
	type redacted PanelConfig
	safe := redacted(p)
	if safe.Code != "" {
		safe.Code = "[REDACTED]"
	}
	return json.Marshal(safe)
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File, if set, is a path the logger rotates at 10MB x 5 backups in
	// addition to writing to stdout.
	File string `yaml:"file"`
}

// HealthConfig contains the optional observability HTTP surface.
type HealthConfig struct {
	// Addr, if non-empty, is the listen address for /healthz and
	// /metrics (e.g. ":8099"). Empty disables the surface.
	Addr string `yaml:"addr"`
}

// Load builds a Config from defaults, an optional YAML file at
// yamlPath (skipped if empty), environment variables, and finally args
// (parsed as CLI flags, which win over everything else), then validates
// the result.
func Load(yamlPath string, args []string) (*Config, error) {
	cfg := defaultConfig()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := applyFlagOverrides(cfg, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{Baud: 38400},
		MQTT: MQTTConfig{
			Port:      1883,
			QoS:       1,
			TopicRoot: "homeassistant",
		},
		Panel: PanelConfig{
			UniqueID:              "caddx_panel",
			Name:                  "Caddx Alarm Panel",
			MaxZones:              8,
			ZoneDiscoveryInterval: time.Second,
			RepublishInterval:     60 * time.Minute,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// applyEnvOverrides applies the spec's environment variable table (§6),
// plus the ambient additions (HEALTH_ADDR, ZONE_DISCOVERY_INTERVAL_MS,
// REPUBLISH_INTERVAL_MINUTES).
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERIAL"); v != "" {
		cfg.Serial.Device = v
	}
	if v := os.Getenv("BAUD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Serial.Baud = n
		}
	}
	if v := os.Getenv("MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("MQTT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Port = n
		}
	}
	if v := os.Getenv("MQTT_USER"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("QOS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.QoS = n
		}
	}
	if v := os.Getenv("TOPIC_ROOT"); v != "" {
		cfg.MQTT.TopicRoot = v
	}
	if v := os.Getenv("PANEL_UNIQUE_ID"); v != "" {
		cfg.Panel.UniqueID = v
	}
	if v := os.Getenv("PANEL_NAME"); v != "" {
		cfg.Panel.Name = v
	}
	if v := os.Getenv("MAX_ZONES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Panel.MaxZones = n
		}
	}
	if v := os.Getenv("IGNORED_ZONES"); v != "" {
		cfg.Panel.IgnoredZones = parseIntList(v)
	}
	if v := os.Getenv("CODE"); v != "" {
		cfg.Panel.Code = v
	}
	if v := os.Getenv("USER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Panel.User = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("HEALTH_ADDR"); v != "" {
		cfg.Health.Addr = v
	}
	if v := os.Getenv("ZONE_DISCOVERY_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Panel.ZoneDiscoveryInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("REPUBLISH_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Panel.RepublishInterval = time.Duration(n) * time.Minute
		}
	}
}

// applyFlagOverrides parses args as CLI flags, mirroring the env vars
// above, and applies any that were explicitly set (CLI wins, spec §6).
func applyFlagOverrides(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("nxbridge", flag.ContinueOnError)

	serial := fs.String("serial", cfg.Serial.Device, "serial device path")
	baud := fs.Int("baud", cfg.Serial.Baud, "serial baud rate")
	mqttHost := fs.String("mqtt-host", cfg.MQTT.Host, "MQTT broker host")
	mqttPort := fs.Int("mqtt-port", cfg.MQTT.Port, "MQTT broker port")
	mqttUser := fs.String("mqtt-user", cfg.MQTT.Username, "MQTT username")
	mqttPassword := fs.String("mqtt-password", cfg.MQTT.Password, "MQTT password")
	qos := fs.Int("qos", cfg.MQTT.QoS, "MQTT QoS (0/1/2)")
	topicRoot := fs.String("topic-root", cfg.MQTT.TopicRoot, "discovery topic prefix")
	panelID := fs.String("panel-unique-id", cfg.Panel.UniqueID, "panel identifier stem")
	panelName := fs.String("panel-name", cfg.Panel.Name, "panel display name")
	maxZones := fs.Int("max-zones", cfg.Panel.MaxZones, "highest zone index polled")
	ignoredZones := fs.String("ignored-zones", "", "comma-list of zone indices to skip")
	code := fs.String("code", cfg.Panel.Code, "panel access PIN")
	user := fs.Int("user", cfg.Panel.User, "panel access user number")
	logLevel := fs.String("log-level", cfg.Logging.Level, "log level (DEBUG/INFO/WARN/ERROR)")
	logFile := fs.String("log-file", cfg.Logging.File, "optional log file path (rotated)")
	healthAddr := fs.String("health-addr", cfg.Health.Addr, "optional /healthz+/metrics listen address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "serial":
			cfg.Serial.Device = *serial
		case "baud":
			cfg.Serial.Baud = *baud
		case "mqtt-host":
			cfg.MQTT.Host = *mqttHost
		case "mqtt-port":
			cfg.MQTT.Port = *mqttPort
		case "mqtt-user":
			cfg.MQTT.Username = *mqttUser
		case "mqtt-password":
			cfg.MQTT.Password = *mqttPassword
		case "qos":
			cfg.MQTT.QoS = *qos
		case "topic-root":
			cfg.MQTT.TopicRoot = *topicRoot
		case "panel-unique-id":
			cfg.Panel.UniqueID = *panelID
		case "panel-name":
			cfg.Panel.Name = *panelName
		case "max-zones":
			cfg.Panel.MaxZones = *maxZones
		case "ignored-zones":
			cfg.Panel.IgnoredZones = parseIntList(*ignoredZones)
		case "code":
			cfg.Panel.Code = *code
		case "user":
			cfg.Panel.User = *user
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-file":
			cfg.Logging.File = *logFile
		case "health-addr":
			cfg.Health.Addr = *healthAddr
		}
	})
	return nil
}

func parseIntList(v string) []int {
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string
	errs = append(errs, c.validateSerial()...)
	errs = append(errs, c.validateMQTT()...)
	errs = append(errs, c.validatePanel()...)
	errs = append(errs, c.validateLogging()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSerial() []string {
	var errs []string
	if c.Serial.Device == "" {
		errs = append(errs, "serial device path is required (SERIAL)")
	}
	if c.Serial.Baud < 1 {
		errs = append(errs, "baud must be positive")
	}
	return errs
}

func (c *Config) validateMQTT() []string {
	var errs []string
	if c.MQTT.Host == "" {
		errs = append(errs, "mqtt host is required (MQTT_HOST)")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicRoot == "" {
		errs = append(errs, "mqtt topic root must not be empty")
	}
	return errs
}

func (c *Config) validatePanel() []string {
	var errs []string
	if c.Panel.UniqueID == "" {
		errs = append(errs, "panel unique id must not be empty")
	}
	if c.Panel.MaxZones < 1 {
		errs = append(errs, "panel max zones must be at least 1")
	}
	hasCode := c.Panel.Code != ""
	hasUser := c.Panel.User != 0
	switch {
	case hasCode && hasUser:
		errs = append(errs, "exactly one of CODE or USER must be set, not both")
	case !hasCode && !hasUser:
		errs = append(errs, "one of CODE or USER is required")
	case hasUser && (c.Panel.User < 1 || c.Panel.User > 99):
		errs = append(errs, "user number must be between 1 and 99")
	case hasCode && len(c.Panel.Code) < 4:
		errs = append(errs, "code must be at least 4 digits")
	}
	return errs
}

func (c *Config) validateLogging() []string {
	var errs []string
	level := strings.ToUpper(c.Logging.Level)
	valid := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if !valid[level] {
		errs = append(errs, fmt.Sprintf("log level %q is invalid (use DEBUG, INFO, WARN, or ERROR)", c.Logging.Level))
	}
	return errs
}

// IgnoredZoneSet converts IgnoredZones into a lookup set for the
// controller.
func (c *Config) IgnoredZoneSet() map[int]bool {
	set := make(map[int]bool, len(c.Panel.IgnoredZones))
	for _, idx := range c.Panel.IgnoredZones {
		set[idx] = true
	}
	return set
}
