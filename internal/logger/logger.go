// Package logger holds the process-wide structured logger.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once sync.Once
	log  *logrus.Logger
)

// GetLogger returns the shared logger, configured from LOG_LEVEL and
// LOG_FORMAT on first use.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		log = New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	})
	return log
}

// New builds a logger writing to stderr. level is any logrus level name and
// defaults to info; format is "json" or "text".
func New(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
