package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/nx584bridge/nx584-mqtt-bridge/internal/config"
)

func TestNewProducesUsableLogger(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "INFO"})
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerWithReturnsDistinctChild(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "INFO"})
	child := logger.With("component", "controller")
	if child == logger {
		t.Error("expected With to return a distinct logger")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("expected non-nil default logger")
	}
}

func TestLoggerOutputIncludesServiceField(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	handler2 := handler.WithAttrs([]slog.Attr{slog.String("service", "nx584-mqtt-bridge")})
	logger := &Logger{Logger: slog.New(handler2)}

	logger.Info("zone faulted", "zone", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["service"] != "nx584-mqtt-bridge" {
		t.Errorf("service field = %v, want nx584-mqtt-bridge", entry["service"])
	}
	if entry["msg"] != "zone faulted" {
		t.Errorf("msg field = %v, want %q", entry["msg"], "zone faulted")
	}
}

func TestNewWithFileRotationDoesNotPanic(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bridge.log")
	logger := New(config.LoggingConfig{Level: "INFO", File: logFile})
	logger.Info("startup")
}
