package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
		ok       bool
	}{
		{name: "Debug", input: "debug", expected: LevelDebug, ok: true},
		{name: "Info", input: "info", expected: LevelInfo, ok: true},
		{name: "Warn", input: "warn", expected: LevelWarn, ok: true},
		{name: "Warning alias", input: "warning", expected: LevelWarn, ok: true},
		{name: "Error", input: "error", expected: LevelError, ok: true},
		{name: "Case insensitive", input: "DEBUG", expected: LevelDebug, ok: true},
		{name: "Surrounding whitespace", input: "  error ", expected: LevelError, ok: true},
		{name: "Empty falls back to info", input: "", expected: LevelInfo, ok: false},
		{name: "Garbage falls back to info", input: "verbose", expected: LevelInfo, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), expected (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	if LevelDebug >= LevelInfo {
		t.Error("LevelDebug should be less than LevelInfo")
	}
	if LevelInfo >= LevelWarn {
		t.Error("LevelInfo should be less than LevelWarn")
	}
	if LevelWarn >= LevelError {
		t.Error("LevelWarn should be less than LevelError")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	original := GetLevel()
	defer func() {
		log.SetOutput(os.Stderr)
		SetLevel(original)
	}()

	SetLevel(LevelWarn)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Expected debug/info to be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "[WARN] warn message") {
		t.Errorf("Expected warn message in output, got: %s", out)
	}
	if !strings.Contains(out, "[ERROR] error message") {
		t.Errorf("Expected error message in output, got: %s", out)
	}
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() should be false at warn level")
	}
}
