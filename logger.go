package remap

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with mapping specific context helpers.
type Logger struct {
	*logrus.Logger
}

// NewLogger returns the logger used when none is configured: text output,
// warnings and above.
func NewLogger() *Logger {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &Logger{Logger: log}
}

// WithPair adds the type pair being mapped to log entries
func (l *Logger) WithPair(pair TypePair) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"source": typeName(pair.Source),
		"dest":   typeName(pair.Dest),
	})
}

// WithFieldName adds a field name to log entries
func (l *Logger) WithFieldName(pair TypePair, field string) *logrus.Entry {
	return l.WithPair(pair).WithField("field", field)
}

// WithConverter adds a field name and the converter resolved for it to
// log entries
func (l *Logger) WithConverter(pair TypePair, field, name string) *logrus.Entry {
	return l.WithFieldName(pair, field).WithField("converter", name)
}

// withValue renders v on debug entries only; spew output is expensive.
func withValue(entry *logrus.Entry, v any) *logrus.Entry {
	if !entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return entry
	}
	return entry.WithField("value", spew.Sdump(v))
}
