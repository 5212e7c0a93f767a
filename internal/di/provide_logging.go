package di

import (
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime
// environment. With SHIPWAY_LOG_FORMAT=json it emits JSON (for CI logs);
// otherwise it uses console format with pretty printing.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("SHIPWAY_LOG_FORMAT") == "json" {
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
