// ABOUTME: Structured logging for contactsync built on zerolog
// ABOUTME: Console output on a terminal, JSON otherwise; level from LOG_LEVEL
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var defaultLogger zerolog.Logger

// Nop discards everything.
var Nop = zerolog.Nop()

func init() {
	defaultLogger = New(Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	}, os.Stderr)
}

// Config selects level and output format. Format is "auto", "console" or "json".
type Config struct {
	Level   string
	Format  string
	NoColor bool
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	level := ParseLevel(cfg.Level)

	if useConsole(cfg.Format, w) {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func useConsole(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case "json":
		return false
	case "console", "pretty", "text":
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ParseLevel reads a level name, falling back to info. DEBUG=1 selects debug
// when no level is given.
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		if os.Getenv("DEBUG") != "" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
}
