package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// fallback serves code that runs before the configured logger exists or has
// none injected: the resty middleware, the HTTP error writer and main.
var fallback atomic.Pointer[zerolog.Logger]

// GetLogger returns the configured service logger, or an info-level console
// logger on stderr until New has run.
func GetLogger() zerolog.Logger {
	if log := fallback.Load(); log != nil {
		return *log
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
	fallback.CompareAndSwap(nil, &log)
	return *fallback.Load()
}

// New builds the service logger from LOG_LEVEL and LOG_FORMAT (console | json)
// and installs it as the fallback.
func New(level, format, service string) (zerolog.Logger, error) {
	return build(os.Stdout, level, format, service)
}

func build(out io.Writer, level, format, service string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("LOG_LEVEL %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
	case "console", "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Logger{}, fmt.Errorf("LOG_FORMAT %q: want console or json", format)
	}

	log := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", service).Logger()
	fallback.Store(&log)
	return log, nil
}
