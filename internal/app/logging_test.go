package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	l := NewLogger(LoggerConfig{Level: level, Output: buf, Prefix: "inkwell"})
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 45, 123e6, time.UTC) }
	return l
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, expected %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"Info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"verbose", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LogLevelInfo)

	logger.Info("opened %s in %v", "a.txt", 5*time.Millisecond)

	want := "2024-03-01T12:30:45.123 [INFO] inkwell: opened a.txt in 5ms\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestLogger_NoArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LogLevelInfo)

	logger.Info("100% done")
	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("message without args must be written verbatim, got %q", buf.String())
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LogLevelWarn)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	output := buf.String()
	if strings.Contains(output, "[DEBUG]") || strings.Contains(output, "[INFO]") {
		t.Errorf("expected debug and info to be filtered out, got %q", output)
	}
	if !strings.Contains(output, "[WARN]") || !strings.Contains(output, "[ERROR]") {
		t.Errorf("expected warn and error in output, got %q", output)
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LogLevelInfo).
		WithFields(map[string]any{"zeta": 1, "alpha": "a"}).
		WithComponent("finder")

	logger.Info("x")
	if !strings.HasSuffix(buf.String(), "x {alpha=a, component=finder, zeta=1}\n") {
		t.Errorf("unexpected field rendering %q", buf.String())
	}
}

func TestLogger_DerivedIsIndependent(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	parent := newTestLogger(&buf1, LogLevelInfo)
	child := parent.WithField("k", "v")

	parent.SetOutput(&buf2)
	child.Info("to parent output")
	if buf2.Len() != 0 {
		t.Error("derived logger keeps the output it was created with")
	}
	if buf1.Len() == 0 {
		t.Error("expected output on the original writer")
	}

	parent.Info("plain")
	if strings.Contains(buf2.String(), "k=v") {
		t.Error("parent must not inherit child fields")
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LogLevelError)

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Error("expected no output at error level")
	}

	logger.SetLevel(LogLevelDebug)
	if logger.Level() != LogLevelDebug {
		t.Errorf("expected level DEBUG, got %v", logger.Level())
	}
	logger.Debug("should appear")
	if buf.Len() == 0 {
		t.Error("expected output after SetLevel")
	}
}

func TestLogger_DisableEnable(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, LogLevelInfo)

	logger.Disable()
	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Error("expected no output when disabled")
	}

	logger.Enable()
	logger.Info("should appear")
	if buf.Len() == 0 {
		t.Error("expected output when enabled")
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger.Debug("test")
	NullLogger.Info("test")
	NullLogger.WithComponent("x").Warn("test")
	NullLogger.Error("test")
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig()

	if cfg.Level != LogLevelInfo {
		t.Errorf("expected default level INFO, got %v", cfg.Level)
	}
	if cfg.Output == nil {
		t.Error("expected default output to be set")
	}
	if cfg.Prefix != "inkwell" {
		t.Errorf("expected prefix 'inkwell', got %q", cfg.Prefix)
	}
}
