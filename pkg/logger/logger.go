package logger

import (
	"log"
	"os"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	std      = log.New(os.Stdout, "", log.LstdFlags)
	minLevel = LevelInfo
)

// SetLevel sets the minimum level that gets written.
func SetLevel(l Level) {
	minLevel = l
}

func Debug(format string, args ...interface{}) {
	logf(LevelDebug, "DEBUG", format, args...)
}

func Info(format string, args ...interface{}) {
	logf(LevelInfo, "INFO", format, args...)
}

func Warn(format string, args ...interface{}) {
	logf(LevelWarn, "WARN", format, args...)
}

func Error(format string, args ...interface{}) {
	logf(LevelError, "ERROR", format, args...)
}

func Fatal(format string, args ...interface{}) {
	std.Printf("[FATAL] "+format, args...)
	os.Exit(1)
}

func logf(l Level, tag string, format string, args ...interface{}) {
	if l < minLevel {
		return
	}
	std.Printf("["+tag+"] "+format, args...)
}
