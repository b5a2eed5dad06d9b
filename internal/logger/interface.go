package logger

import "codeberg.org/mutker/powerlog/internal/errors"

// Logger defines the interface for logging operations. Components receive a
// Logger at construction so tests can pass Nop().
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	With(component string) Logger
}
