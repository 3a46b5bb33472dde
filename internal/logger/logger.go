package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. component names the binary (api, orchestrator, setup)
// and is attached to every entry.
func New(component string) zerolog.Logger {
	return build(os.Stderr, component, os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
}

func build(out io.Writer, component, env, level string) zerolog.Logger {
	// Cloud Logging reads the level from "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	logger := zerolog.New(out).With().Timestamp().Str("component", component).Logger()

	lvl := zerolog.InfoLevel
	if env == "development" {
		lvl = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(level); err == nil && parsed != zerolog.NoLevel {
		lvl = parsed
	}
	return logger.Level(lvl)
}
