// Package log configures loggers for prep runs.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("PREP_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. With PREP_DEBUG set,
// per-item progress is logged at debug level.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
