package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, tc.level.String())
	}
}

func TestInfoIncludesSubsystem(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Info("Reconcile", "registering %s", "web-app")

	out := buf.String()
	assert.Contains(t, out, "registering web-app")
	assert.Contains(t, out, "subsystem=Reconcile")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelWarn, &buf)

	Debug("Config", "not shown")
	Info("Config", "not shown either")
	Warn("Config", "shown")

	out := buf.String()
	assert.NotContains(t, out, "not shown")
	assert.Equal(t, 1, strings.Count(out, "shown"))
}

func TestErrorAttachesError(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	Error("AWS", errors.New("throttled"), "DescribeServices failed")

	out := buf.String()
	assert.Contains(t, out, "DescribeServices failed")
	assert.Contains(t, out, "error=throttled")
}
