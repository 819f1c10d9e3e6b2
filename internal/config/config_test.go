package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"SERIAL":    "/dev/ttyUSB0",
		"MQTT_HOST": "localhost",
		"CODE":      "1234",
	}
}

func TestLoadFromEnvOnly(t *testing.T) {
	withEnv(t, baseEnv())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" {
		t.Errorf("Serial.Device = %q, want /dev/ttyUSB0", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 38400 {
		t.Errorf("Serial.Baud = %d, want default 38400", cfg.Serial.Baud)
	}
	if cfg.MQTT.TopicRoot != "homeassistant" {
		t.Errorf("MQTT.TopicRoot = %q, want default homeassistant", cfg.MQTT.TopicRoot)
	}
	if cfg.Panel.Code != "1234" {
		t.Errorf("Panel.Code = %q, want 1234", cfg.Panel.Code)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	content := `
serial:
  device: /dev/ttyS0
  baud: 9600
mqtt:
  host: broker.local
  port: 8883
panel:
  code: "4321"
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyS0" {
		t.Errorf("Serial.Device = %q, want /dev/ttyS0", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 9600 {
		t.Errorf("Serial.Baud = %d, want 9600", cfg.Serial.Baud)
	}
	if cfg.MQTT.Port != 8883 {
		t.Errorf("MQTT.Port = %d, want 8883", cfg.MQTT.Port)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	content := `
serial:
  device: /dev/ttyS0
mqtt:
  host: broker.local
panel:
  code: "4321"
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SERIAL", "/dev/ttyUSB1")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB1" {
		t.Errorf("Serial.Device = %q, want env override /dev/ttyUSB1", cfg.Serial.Device)
	}
}

func TestCLIOverridesEnv(t *testing.T) {
	withEnv(t, baseEnv())

	cfg, err := Load("", []string{"-serial=/dev/ttyCLI", "-baud=19200"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyCLI" {
		t.Errorf("Serial.Device = %q, want CLI override /dev/ttyCLI", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 19200 {
		t.Errorf("Serial.Baud = %d, want CLI override 19200", cfg.Serial.Baud)
	}
}

func TestAmbientEnvVars(t *testing.T) {
	env := baseEnv()
	env["HEALTH_ADDR"] = ":8099"
	env["ZONE_DISCOVERY_INTERVAL_MS"] = "250"
	env["REPUBLISH_INTERVAL_MINUTES"] = "15"
	withEnv(t, env)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Health.Addr != ":8099" {
		t.Errorf("Health.Addr = %q, want :8099", cfg.Health.Addr)
	}
	if cfg.Panel.ZoneDiscoveryInterval != 250*time.Millisecond {
		t.Errorf("ZoneDiscoveryInterval = %v, want 250ms", cfg.Panel.ZoneDiscoveryInterval)
	}
	if cfg.Panel.RepublishInterval != 15*time.Minute {
		t.Errorf("RepublishInterval = %v, want 15m", cfg.Panel.RepublishInterval)
	}
}

func TestIgnoredZonesParsing(t *testing.T) {
	env := baseEnv()
	env["IGNORED_ZONES"] = "3, 7,12"
	withEnv(t, env)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	set := cfg.IgnoredZoneSet()
	for _, idx := range []int{3, 7, 12} {
		if !set[idx] {
			t.Errorf("zone %d should be ignored", idx)
		}
	}
	if len(set) != 3 {
		t.Errorf("IgnoredZoneSet has %d entries, want 3", len(set))
	}
}

func TestValidateRequiresSerial(t *testing.T) {
	withEnv(t, map[string]string{"MQTT_HOST": "localhost", "CODE": "1234"})

	_, err := Load("", nil)
	if err == nil {
		t.Fatal("expected validation error for missing SERIAL")
	}
}

func TestValidateRejectsCodeAndUserTogether(t *testing.T) {
	env := baseEnv()
	env["USER"] = "5"
	withEnv(t, env)

	_, err := Load("", nil)
	if err == nil {
		t.Fatal("expected validation error when both CODE and USER are set")
	}
}

func TestValidateRejectsNeitherCodeNorUser(t *testing.T) {
	withEnv(t, map[string]string{"SERIAL": "/dev/ttyUSB0", "MQTT_HOST": "localhost"})

	_, err := Load("", nil)
	if err == nil {
		t.Fatal("expected validation error when neither CODE nor USER is set")
	}
}

func TestMQTTConfigStringRedactsPassword(t *testing.T) {
	cfg := MQTTConfig{Host: "broker", Password: "secret"}
	s := cfg.String()
	if s == "" {
		t.Fatal("String() returned empty")
	}
	if strings.Contains(s, "secret") {
		t.Errorf("String() leaked password: %s", s)
	}
}
