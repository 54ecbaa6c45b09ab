// ABOUTME: Logger implementation backed by logrus with structured fields
// ABOUTME: Adapts logrus entries to the core Logger interface

package logrus

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements the Logger interface using logrus.
type LogrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger creates a logger writing text-formatted entries at
// info level.
func NewLogrusLogger() *LogrusLogger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	return &LogrusLogger{log: log}
}

// NewLogrusLoggerWithOutput creates a logger writing to the given
// destination at the given level.
func NewLogrusLoggerWithOutput(out io.Writer, level logrus.Level) *LogrusLogger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
	return &LogrusLogger{log: log}
}

// Debug logs a debug message
func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry(fields).Debug(msg)
}

// Info logs an info message
func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.entry(fields).Info(msg)
}

// Warn logs a warning message
func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry(fields).Warn(msg)
}

// Error logs an error message
func (l *LogrusLogger) Error(msg string, fields map[string]interface{}) {
	l.entry(fields).Error(msg)
}

func (l *LogrusLogger) entry(fields map[string]interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(l.log)
	}
	return l.log.WithFields(logrus.Fields(fields))
}
