package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected string
	}{
		{"DEBUG level", DEBUG, "DEBUG"},
		{"INFO level", INFO, "INFO"},
		{"WARN level", WARN, "WARN"},
		{"ERROR level", ERROR, "ERROR"},
		{"Unknown level", LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.level.String()
			if result != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  LogLevel
		wantError bool
	}{
		{"Parse DEBUG", "DEBUG", DEBUG, false},
		{"Parse lowercase info", "info", INFO, false},
		{"Parse WARNING alias", "WARNING", WARN, false},
		{"Parse ERROR", "ERROR", ERROR, false},
		{"Unknown level", "VERBOSE", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: WARN, Output: &buf})

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("DEBUG message logged at WARN level")
	}
	if strings.Contains(output, "info message") {
		t.Error("INFO message logged at WARN level")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("WARN message missing")
	}
	if !strings.Contains(output, "error message") {
		t.Error("ERROR message missing")
	}
}

func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: DEBUG, Output: &buf})

	log.WithField("component", "supervisor").Info("started")

	output := buf.String()
	if !strings.Contains(output, "component=supervisor") {
		t.Errorf("expected field in output, got %q", output)
	}
	if !strings.Contains(output, "started") {
		t.Errorf("expected message in output, got %q", output)
	}
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: DEBUG, Output: &buf})

	child := log.WithField("launchID", "abc")
	_ = child

	log.Info("from parent")
	if strings.Contains(buf.String(), "launchID") {
		t.Error("parent logger inherited the child's field")
	}
}

func TestLogger_CallSiteFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: DEBUG, Output: &buf})

	log.Info("workload exited", "pid", 4242, "code", 0)

	output := buf.String()
	if !strings.Contains(output, "pid=4242") {
		t.Errorf("expected pid field, got %q", output)
	}
	if !strings.Contains(output, "code=0") {
		t.Errorf("expected code field, got %q", output)
	}
}

func TestLogger_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithConfig(Config{Level: DEBUG, Output: &buf})

	log.Info("msg", "command", "python3 train.py")

	if !strings.Contains(buf.String(), `command="python3 train.py"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestLogger_SetLevel(t *testing.T) {
	log := New()

	log.SetLevel(DEBUG)
	if log.GetLevel() != DEBUG {
		t.Errorf("GetLevel() = %v, want DEBUG", log.GetLevel())
	}
	if !log.IsDebugEnabled() {
		t.Error("IsDebugEnabled() = false at DEBUG level")
	}

	log.SetLevel(ERROR)
	if log.IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true at ERROR level")
	}
}
