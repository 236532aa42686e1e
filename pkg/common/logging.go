package common

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger. Logs go to stderr so
// that command output on stdout stays machine readable.
func SetupLogging(pretty, debug bool) {
	setupLogging(os.Stderr, pretty, debug)
}

func setupLogging(w io.Writer, pretty, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w}).Level(level)
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger().Level(level)
}
