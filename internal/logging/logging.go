// Package logging configures the zerolog loggers used by the evaluator and CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv names the environment variable that overrides the log level
const LevelEnv = "GEODES_LOG_LEVEL"

// Init builds the console logger for app, writing to w, and installs it as
// the global zerolog logger. quiet raises the floor to warn.
func Init(app string, w io.Writer, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}
	if env, ok := ParseLevel(os.Getenv(LevelEnv)); ok {
		level = env
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    noColor(w),
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// noColor disables escape codes unless w is a terminal stream
func noColor(w io.Writer) bool {
	if f, ok := w.(*os.File); ok && (f == os.Stdout || f == os.Stderr) {
		return color.NoColor
	}
	return true
}

// ParseLevel maps the names accepted in GEODES_LOG_LEVEL to zerolog levels.
// The bool is false for empty or unknown names.
func ParseLevel(name string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	}
	return zerolog.NoLevel, false
}

// ForTest returns a debug logger that writes through t.Log without timestamps
func ForTest(t zerolog.TestingLog) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:          zerolog.NewTestWriter(t),
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return zerolog.New(output).Level(zerolog.DebugLevel)
}
