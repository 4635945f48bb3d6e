// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

const defaultLevel = logrus.InfoLevel

// NewLogger creates a logger configured for the given level and runtime
// environment. Production emits JSON for log aggregation; everything else
// gets a colored text formatter.
func NewLogger(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = defaultLevel
		logger.Warnf("Invalid log level '%s', defaulting to %s", logLevel, defaultLevel)
	}
	logger.SetLevel(level)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}
