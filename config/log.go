package config

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global logger and returns it. Console output
// is coloured only when out is a terminal.
func SetupLogging(cfg LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = out
	if cfg.Format != "json" {
		w = ConsoleWriter(out)
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// ConsoleWriter returns a human-readable zerolog writer.
func ConsoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, NoColor: !isTerminal(out), TimeFormat: time.TimeOnly}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
