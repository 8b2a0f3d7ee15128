// package logger wraps the charmbracelet structured logger behind a small
// package-level API so every subsystem logs through the same configured
// instance.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "engine",
				})
				l.SetLevel(log.InfoLevel)
				singleton = &logger{l}
			})
	}
	return singleton
}

// SetLevel sets the global log level by name. Unrecognized names fall back
// to the info level.
//
// Parameters:
//   - level: one of "debug", "info", "warn", "error"
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		getLogger().Logger.SetLevel(log.DebugLevel)
	case "warn":
		getLogger().Logger.SetLevel(log.WarnLevel)
	case "error":
		getLogger().Logger.SetLevel(log.ErrorLevel)
	default:
		getLogger().Logger.SetLevel(log.InfoLevel)
	}
}

// Debug logs a formatted message at debug level.
func Debug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

// Info logs a formatted message at info level.
func Info(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

// Warn logs a formatted message at warn level.
func Warn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

// Error logs a formatted message at error level.
func Error(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

// Fatal logs a formatted message at fatal level and exits.
func Fatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
