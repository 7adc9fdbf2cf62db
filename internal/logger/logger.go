// Package logger provides leveled logging for the simulation service.
// It wraps the standard log package with level-based filtering so that
// per-tick debug output can be silenced in normal operation.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs per-tick detail and is usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs degraded-but-recovered conditions (fallbacks, skipped persistence).
	WarnLevel
	// ErrorLevel logs high-priority failures that still leave the run alive.
	ErrorLevel
)

type leveledLogger struct {
	level Level
	out   *log.Logger
}

var defaultLogger *leveledLogger

// Init initializes the default logger with the specified level and format.
// Format "text" adds source file locations; anything else keeps timestamps only.
func Init(level, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	defaultLogger = &leveledLogger{
		level: parseLevel(level),
		out:   log.New(os.Stderr, "", flags),
	}
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.out.SetOutput(w)
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func emit(at Level, tag, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > at {
		return
	}
	_ = defaultLogger.out.Output(3, fmt.Sprintf(tag+" "+format, args...))
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	emit(DebugLevel, "[DEBUG]", format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	emit(InfoLevel, "[INFO]", format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	emit(WarnLevel, "[WARN]", format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	emit(ErrorLevel, "[ERROR]", format, args...)
}

// Fatal logs a message and exits the process.
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.out.Output(2, msg)
	} else {
		log.Print(msg)
	}
	os.Exit(1)
}
