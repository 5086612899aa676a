package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options select the level and the output encoding of a zerolog-backed Logger.
type Options struct {
	// Level is a configuration string understood by ParseLevel.
	Level string
	// JSON writes one JSON object per entry instead of the console format.
	JSON bool
}

type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerolog writes entries to w. Every entry carries a timestamp and its component.
func NewZerolog(w io.Writer, opts Options) *ZerologAdapter {
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return &ZerologAdapter{
		logger: zerolog.New(w).
			Level(ParseLevel(opts.Level)).
			With().
			Timestamp().
			Logger(),
	}
}

// New logs to stderr.
func New(level string, jsonOutput bool) *ZerologAdapter {
	return NewZerolog(os.Stderr, Options{Level: level, JSON: jsonOutput})
}

func (z *ZerologAdapter) Debug(component, message string, fields map[string]interface{}) {
	withFields(z.logger.Debug(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Info(component, message string, fields map[string]interface{}) {
	withFields(z.logger.Info(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Warning(component, message string, fields map[string]interface{}) {
	withFields(z.logger.Warn(), component, fields).Msg(message)
}

func (z *ZerologAdapter) Error(component string, err error, fields map[string]interface{}) {
	withFields(z.logger.Error(), component, fields).Err(err).Msg("operation failed")
}

// withFields is safe on the nil event zerolog returns for a disabled level.
func withFields(event *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	event = event.Str("component", component)
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	return event
}
