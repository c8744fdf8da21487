package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel represents the severity of a log message
type LogLevel int32

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	std          = log.New(os.Stderr, "", log.LstdFlags)
	currentLevel atomic.Int32
	levelOnce    sync.Once
)

// ParseLevel converts a level name to a LogLevel. Unknown names map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// initLevel reads DEBUG and LOG_LEVEL once
func initLevel() {
	levelOnce.Do(func() {
		switch strings.ToLower(os.Getenv("DEBUG")) {
		case "1", "true", "yes", "on":
			currentLevel.Store(int32(LevelDebug))
			return
		}
		currentLevel.Store(int32(ParseLevel(os.Getenv("LOG_LEVEL"))))
	})
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return LogLevel(currentLevel.Load())
}

// SetLevel overrides the level picked up from the environment.
func SetLevel(level LogLevel) {
	initLevel()
	currentLevel.Store(int32(level))
}

// SetOutput redirects all log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func logf(level LogLevel, tag, format string, args ...interface{}) {
	if GetLevel() <= level {
		_ = std.Output(3, tag+" "+fmt.Sprintf(format, args...))
	}
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	logf(LevelDebug, "[DEBUG]", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logf(LevelInfo, "[INFO]", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logf(LevelWarn, "[WARN]", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logf(LevelError, "[ERROR]", format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	_ = std.Output(2, "[FATAL] "+fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Printf writes a message regardless of level
func Printf(format string, args ...interface{}) {
	_ = std.Output(2, fmt.Sprintf(format, args...))
}

// Writer returns the destination of log output, for code that hands a
// writer to another logger (the HTTP server's ErrorLog).
func Writer() io.Writer {
	return std.Writer()
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
