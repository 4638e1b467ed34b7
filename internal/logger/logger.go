// Package logger configures the process-wide logrus logger.
package logger

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pranjalchakraborty/RMS-filler/pkg/config"
)

// Init applies level and formatter from configuration to the standard
// logrus logger, which every package in this module logs through.
func Init(cfg *config.Config) {
	log := logrus.StandardLogger()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.ToLower(cfg.Environment) == "production" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
