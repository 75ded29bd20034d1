package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global zerolog logger. Format is "console" for human
// readable output on stderr or "json" for one object per line.
func Setup(level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	log.Logger = New(os.Stderr, lvl, format)
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// New builds a logger writing to w.
func New(w io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
