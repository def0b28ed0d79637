package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config for the process logger
type Config struct {
	// Level is one of debug, info, warn or error
	Level string

	// Format is console or json
	Format string

	// Out defaults to stdout
	Out io.Writer
}

// New builds the logger handed to every service
func New(cfg *Config) (zerolog.Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil || parsed == zerolog.NoLevel {
			return zerolog.Nop(), fmt.Errorf("unknown log level %q", cfg.Level)
		}
		level = parsed
	}

	zerolog.TimeFieldFormat = time.RFC3339

	switch cfg.Format {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stdout}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
