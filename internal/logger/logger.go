// Package logger is the leveled logger shared by the isort runner binaries.
//
// Output goes to stderr so it never mixes with the relayed isort output on
// stdout. The level comes from ISORT_RUNNER_LOG_LEVEL and defaults to "warn",
// which keeps a passing build action silent.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LevelEnvVar selects the log level.
const LevelEnvVar = "ISORT_RUNNER_LOG_LEVEL"

var (
	mu  sync.Mutex
	log = newLogger(os.Stderr, os.Getenv(LevelEnvVar))
)

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	return zerolog.New(out).Level(lvl)
}

// Configure replaces the output and level of the package logger.
func Configure(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, level)
}

func get() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return &log
}

func Tracef(format string, args ...interface{}) {
	get().Trace().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	get().Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	get().Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	get().Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	get().Error().Msgf(format, args...)
}
