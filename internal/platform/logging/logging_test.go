package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesLogFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(Config{Level: "debug", Dir: dir, Filename: "test.log"})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("plain message")
	logger.InfoTag("BOOT", "tagged message")
	logger.Warn("formatted %s %d", "message", 42)

	assert.FileExists(t, filepath.Join(dir, "test.log"))
}

func TestFormatLog(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		message string
		want    string
	}{
		{name: "tagged", tag: "MONITOR", message: "cycle done", want: "[MONITOR] cycle done"},
		{name: "empty tag", tag: "", message: "cycle done", want: "cycle done"},
		{name: "already tagged", tag: "MONITOR", message: "[FETCH] hit", want: "[FETCH] hit"},
		{name: "trims spaces", tag: " HTTP ", message: " listening ", want: "[HTTP] listening"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLog(tt.tag, tt.message))
		})
	}
}

func TestLevelFromConfig(t *testing.T) {
	assert.Equal(t, levelFromConfig("debug").String(), "DEBUG")
	assert.Equal(t, levelFromConfig("WARN").String(), "WARN")
	assert.Equal(t, levelFromConfig("error").String(), "ERROR")
	assert.Equal(t, levelFromConfig("bogus").String(), "INFO")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	logger.ErrorTag("BOOT", "no panic either")
}
