package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init points the global logger at path, or at a console writer on stderr
// when path is empty.
func Init(level zerolog.Level, path string) {
	var logger zerolog.Logger
	if path != "" {
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		logger = zerolog.New(zerolog.MultiLevelWriter(logFile))
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	log.Logger = logger.Level(level).With().Timestamp().Logger()

	if level == zerolog.DebugLevel {
		log.Debug().Msg("Log level set to DEBUG")
	}
}
