// Package logger defines the structured logging contract used by every
// pagebricks component and a zerolog-backed implementation of it.
//
// Components receive a Logger at construction and never reach for a global
// one, so tests can hand in Nop() or a buffer-backed logger and assert on the
// JSON lines written.
package logger

import "time"

// Logger opens log events at a given severity. Cache drivers, the content
// pipeline, the scheduler and the HTTP surface all log through it.
//
// WithFields returns a child logger whose every line carries the fields.
// Values under sensitive keys (passwords, tokens) are masked.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	Fatal() LogEvent
	WithFields(fields map[string]any) Logger
}

// LogEvent is one log line under construction. Field methods chain, and Msg
// or Msgf writes the line. An event below the logger's level is discarded
// without formatting its fields.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Float64(key string, value float64) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Time(key string, t time.Time) LogEvent
	Interface(key string, i any) LogEvent
}
