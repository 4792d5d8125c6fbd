package logger

import (
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger.Level(zerolog.InfoLevel)
}

// WithLevel re-levels a logger from a config string, falling back to the
// logger's current level when the string does not parse.
func WithLevel(logger zerolog.Logger, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		logger.Warn().Str("level", level).Msg("unknown log level, keeping current")
		return logger
	}
	return logger.Level(parsed)
}

var Module = fx.Provide(New)
