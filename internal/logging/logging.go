// Package logging holds the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log logrus.FieldLogger = newDefault()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL"), logrus.InfoLevel))
	return l
}

// levelFromEnv parses lvl, falling back to def when it is empty or invalid.
func levelFromEnv(lvl string, def logrus.Level) logrus.Level {
	if lvl == "" {
		return def
	}
	ll, err := logrus.ParseLevel(lvl)
	if err != nil {
		return def
	}
	return ll
}

// SetLogger replaces the logger. Passing nil keeps the current one.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		return
	}
	mu.Lock()
	log = l
	mu.Unlock()
}

// L returns the current logger.
func L() logrus.FieldLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// New builds a text logger writing to w. verbose enables debug output;
// otherwise LOG_LEVEL (default info) applies.
func New(w io.Writer, verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL"), logrus.InfoLevel))
	}
	return l
}
