package main

import (
	"context"
	"testing"
	"time"
)

func clearNxbridgeEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "SERIAL", "BAUD", "MQTT_HOST", "MQTT_PORT",
		"MQTT_USER", "MQTT_PASSWORD", "QOS", "TOPIC_ROOT",
		"PANEL_UNIQUE_ID", "PANEL_NAME", "MAX_ZONES", "IGNORED_ZONES",
		"CODE", "USER", "LOG_LEVEL", "LOG_FILE", "HEALTH_ADDR",
	} {
		t.Setenv(k, "")
	}
}

// TestRunFailsOnInvalidConfig verifies run() surfaces config validation
// errors (missing SERIAL/MQTT_HOST/CODE) without attempting to open any
// hardware or network connection.
func TestRunFailsOnInvalidConfig(t *testing.T) {
	clearNxbridgeEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() error = nil, want a config validation error")
	}
}

// TestRunFailsOnSerialOpenError sets an otherwise valid environment with a
// nonexistent serial device and checks only that run() returns an error.
// run() also parses os.Args, which under go test carries the test binary's
// own -test.* flags, so the error can come from config loading before the
// serial-open stage is reached.
func TestRunFailsOnSerialOpenError(t *testing.T) {
	clearNxbridgeEnv(t)
	t.Setenv("SERIAL", "/nonexistent/nxbridge-test-device")
	t.Setenv("BAUD", "9600")
	t.Setenv("MQTT_HOST", "127.0.0.1")
	t.Setenv("MQTT_PORT", "19999")
	t.Setenv("CODE", "1234")
	t.Setenv("PANEL_UNIQUE_ID", "test_panel")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() error = nil, want serial open failure")
	}
}
