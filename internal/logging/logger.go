// Package logging provides a small leveled key-value logger used by the
// pipeline to report which processing path each stage took.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level controls which messages a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. Unknown strings fall back
// to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes prefixed, leveled messages with key-value pairs.
type Logger struct {
	prefix string
	level  Level
	logger *log.Logger
}

// New creates a logger writing to stderr with the given prefix and level.
func New(prefix string, level Level) *Logger {
	return NewWithWriter(os.Stderr, prefix, level)
}

// NewWithWriter creates a logger writing to w. Used by tests to capture
// output.
func NewWithWriter(w io.Writer, prefix string, level Level) *Logger {
	return &Logger{
		prefix: prefix,
		level:  level,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// WithPrefix returns a logger sharing the level and output of l but with
// a sub-prefix, e.g. "pipeline/ocr".
func (l *Logger) WithPrefix(sub string) *Logger {
	return &Logger{
		prefix: l.prefix + "/" + sub,
		level:  l.level,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s/%s] ", l.prefix, sub), log.LstdFlags),
	}
}

// Debug logs a debug message with key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.logWithKV(LevelDebug, "DEBUG", msg, keysAndValues...)
}

// Info logs an informational message with key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.logWithKV(LevelInfo, "INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.logWithKV(LevelWarn, "WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.logWithKV(LevelError, "ERROR", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level Level, tag, msg string, keysAndValues ...any) {
	if l == nil || level < l.level {
		return
	}
	var sb strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.logger.Printf("[%s] %s%s", tag, msg, sb.String())
}
