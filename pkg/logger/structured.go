package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every structured log line
const ServiceName = "blackbox-backend"

var zlog = zerolog.New(os.Stdout).With().Timestamp().Str("service", ServiceName).Logger()

// InitStructured initializes the structured zerolog logger
func InitStructured(env string) {
	InitStructuredWriter(env, nil)
}

// InitStructuredWriter is InitStructured with an explicit sink (tests, CLI)
func InitStructuredWriter(env string, out io.Writer) {
	var w io.Writer

	switch {
	case out != nil:
		w = out
	case env == "development" || env == "dev" || env == "local":
		// Pretty console output for development
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	default:
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// WithComponent returns a logger tagged with a subsystem name (hub, broker, poller)
func WithComponent(name string) zerolog.Logger {
	return zlog.With().Str("component", name).Logger()
}
