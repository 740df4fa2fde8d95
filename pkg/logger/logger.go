package logger

import (
	"fmt"
	"log"
)

// Init routes the standard library logger through zerolog so that
// third-party packages writing to log.Printf end up in the same stream.
func Init() {
	log.SetFlags(0)
	log.SetOutput(zlog)
}

// Info logs a formatted bootstrap message
func Info(format string, args ...interface{}) {
	zlog.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a formatted warning
func Warn(format string, args ...interface{}) {
	zlog.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs a formatted error
func Error(format string, args ...interface{}) {
	zlog.Error().Msg(fmt.Sprintf(format, args...))
}
