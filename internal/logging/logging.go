// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Options configures the logger
type Options struct {
	Level   string
	Graylog string    // GELF UDP address, empty disables
	Out     io.Writer // console output, defaults to stdout
	NoColor bool
}

// Logger wraps the zerolog logger with the resources it owns
type Logger struct {
	zerolog.Logger
	graylog *gelf.Writer
}

// ParseLevel maps a config string to a level, defaulting to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New builds a console logger, teeing JSON records to Graylog when an
// address is configured
func New(opts Options) (*Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		},
	}

	var gw *gelf.Writer
	if opts.Graylog != "" {
		var err error
		gw, err = gelf.NewWriter(opts.Graylog)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to graylog at %s: %w", opts.Graylog, err)
		}
		gw.Facility = "roadrush"
		writers = append(writers, gw)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()

	return &Logger{Logger: zl, graylog: gw}, nil
}

// Close releases the Graylog connection, if any
func (l *Logger) Close() error {
	if l.graylog == nil {
		return nil
	}
	return l.graylog.Close()
}
