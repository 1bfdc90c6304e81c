package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the process-wide logger. Console output in dev,
// plain JSON otherwise.
func Init() zerolog.Logger {
	if os.Getenv("GIN_MODE") == "release" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
