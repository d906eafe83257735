package di

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime environment.
// When LOG_FORMAT=json is set (CI, scheduled jobs), it uses JSON format.
// In terminal/CLI use, it uses console format with pretty printing.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("LOG_FORMAT") == "json" {
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

// ProvideContext returns a base context carrying the logger, so providers
// and invoked functions can use zerolog.Ctx
func ProvideContext(logger zerolog.Logger) context.Context {
	return logger.WithContext(context.Background())
}
