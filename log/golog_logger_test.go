package log

import (
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestNewGologLogger(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	assert.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_LevelControl(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	logger.SetLevel(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, logger.GetLevel())

	logger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, logger.GetLevel())

	logger.SetLevel(LogLevelNone)
	assert.Equal(t, LogLevelNone, logger.GetLevel())
}

func TestGologLogger_Logging(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	logger.SetLevel(LogLevelDebug)

	logger.Debug("Debug: %s", "test")
	logger.Info("Info: %d", 42)
	logger.Warn("Warn: %v", map[string]string{"key": "value"})
	logger.Error("Error: %f", 3.14)
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	glogger := golog.New()
	logger := NewGologLogger(glogger)

	logger.SetLevel(LogLevelError)

	logger.Debug("filtered")
	logger.Info("filtered")
	logger.Warn("filtered")
	logger.Error("logged")
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
}
