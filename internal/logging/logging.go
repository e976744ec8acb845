package logging

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a logger with the given level (debug, info, warn, error) and
// formatter (text, json)
func New(level, format string) (*logrus.Logger, error) {
	log := logrus.New()

	// Setup the formatter
	switch strings.ToLower(format) {
	case "", "text":
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		log.Formatter = new(logrus.JSONFormatter)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	// Setup the level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.Level = lvl

	return log, nil
}
