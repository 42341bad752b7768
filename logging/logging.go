// Package logging provides the structured logger interface used across the
// storage core. It mirrors the teacher's pkgs/logger design so callers can
// swap the backend without touching call sites.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logging interface used throughout the core.
// Key-value pairs passed to Debug/Info/Warn/Error/Fatal are alternating
// (key, value, key, value, ...) pairs, logrus.Fields style.
type Logger interface {
	SetToDebug()
	SetToInfo()
	Module(ns string) Logger
	Debug(msg string, keyValues ...interface{})
	Info(msg string, keyValues ...interface{})
	Warn(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
	Fatal(msg string, keyValues ...interface{})
}

// logrusLogger adapts a logrus.Entry to Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

// New creates a Logger that writes structured output to stderr via logrus.
func New(module string) Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{entry: l.WithField("module", module)}
}

// Noop returns a Logger that discards everything. Useful as a safe default
// for zero-value structs that embed a Logger field.
func Noop() Logger {
	l := logrus.New()
	l.Out = nil
	l.SetOutput(discard{})
	return &logrusLogger{entry: l.WithField("module", "noop")}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func (l *logrusLogger) SetToDebug() { l.entry.Logger.SetLevel(logrus.DebugLevel) }
func (l *logrusLogger) SetToInfo()  { l.entry.Logger.SetLevel(logrus.InfoLevel) }

func (l *logrusLogger) Module(ns string) Logger {
	return &logrusLogger{entry: l.entry.WithField("module", ns)}
}

func toFields(keyValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keyValues[i+1]
	}
	return f
}

func (l *logrusLogger) Debug(msg string, kv ...interface{}) {
	l.entry.WithFields(toFields(kv)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, kv ...interface{}) {
	l.entry.WithFields(toFields(kv)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, kv ...interface{}) {
	l.entry.WithFields(toFields(kv)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, kv ...interface{}) {
	l.entry.WithFields(toFields(kv)).Error(msg)
}

func (l *logrusLogger) Fatal(msg string, kv ...interface{}) {
	l.entry.WithFields(toFields(kv)).Fatal(msg)
}
