package util

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetLogLevel applies a LOG_LEVEL environment value to the logger, defaulting
// to error level for unrecognized values
func SetLogLevel(logger *logrus.Logger, level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.ErrorLevel)
	}
}
