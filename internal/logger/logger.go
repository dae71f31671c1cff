package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func New(environment string) zerolog.Logger {
	return newLogger(os.Stdout, environment)
}

func newLogger(out io.Writer, environment string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().
			Timestamp().
			Str("service", "dossiers").
			Logger()
	}

	return zerolog.New(out).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Str("service", "dossiers").
		Logger()
}
