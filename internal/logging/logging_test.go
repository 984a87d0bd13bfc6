package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected LogLevel
	}{
		{name: "Debug", value: "debug", expected: LevelDebug},
		{name: "Info", value: "info", expected: LevelInfo},
		{name: "Warn", value: "warn", expected: LevelWarn},
		{name: "Warning alias", value: "warning", expected: LevelWarn},
		{name: "Error", value: "error", expected: LevelError},
		{name: "Case insensitive", value: "DEBUG", expected: LevelDebug},
		{name: "Surrounding spaces", value: "  error ", expected: LevelError},
		{name: "Empty defaults to info", value: "", expected: LevelInfo},
		{name: "Unknown defaults to info", value: "verbose", expected: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.value); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.value, got, tt.expected)
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
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLoggerPrefix(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	With("IMG_0001.jpg").Error("upload failed: %s", "boom")

	out := buf.String()
	if !strings.Contains(out, "[ERROR] IMG_0001.jpg: upload failed: boom") {
		t.Errorf("unexpected log line: %q", out)
	}
}

func TestLoggerPrefixEscapesPercent(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	With("100%_done.png").Error("n=%d", 3)

	if !strings.Contains(buf.String(), "100%_done.png: n=3") {
		t.Errorf("prefix with %% not preserved: %q", buf.String())
	}
}

func TestZeroLoggerHasNoPrefix(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)

	var l Logger
	l.Error("plain")

	if !strings.Contains(buf.String(), "[ERROR] plain") {
		t.Errorf("unexpected log line: %q", buf.String())
	}
}
