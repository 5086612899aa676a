package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the component-keyed structured logger used across the application.
type Logger interface {
	Debug(component string, message string, fields map[string]interface{})
	Info(component string, message string, fields map[string]interface{})
	Warning(component string, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ParseLevel maps a configuration string onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NoOpLogger discards everything. Used by tests and by callers that pass no logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(component string, message string, fields map[string]interface{})   {}
func (NoOpLogger) Info(component string, message string, fields map[string]interface{})    {}
func (NoOpLogger) Warning(component string, message string, fields map[string]interface{}) {}
func (NoOpLogger) Error(component string, err error, fields map[string]interface{})        {}
