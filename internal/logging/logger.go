package logging

import (
	"fmt"
	"os"
)

// Logger provides leveled CLI logging to stderr with redaction support.
// Secret values must never be passed to it directly; wrap them in Secret.
type Logger struct {
	debug   bool
	noColor bool
}

// New creates a new logger instance.
func New(debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m", "✗", format, args...)
}

// Debug logs a debug message if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(color, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", prefix, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s%s\033[0m %s\n", color, prefix, msg)
}

// Secret is a value that is always redacted when formatted.
type Secret string

// String implements fmt.Stringer, always returning a redacted value.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}
