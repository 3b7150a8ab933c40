package rtos

import "github.com/sirupsen/logrus"

// NewComponentLogger returns a *logrus.Entry tagged with a "component"
// field, the same wrapping bgp59-victoriametrics-importer's vmi package
// uses (vmi.NewCompLogger) to give every subsystem's log lines a
// consistent, greppable origin without each subsystem constructing its
// own logger. The demo (cmd/boarddemo) passes the result into
// Config.Logger and also uses it standalone for its own log lines.
func NewComponentLogger(base *logrus.Logger, component string) *logrus.Entry {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return base.WithField("component", component)
}

// NewTextLogger builds a *logrus.Logger configured for human-readable
// console output, the default a standalone demo or CLI wants. Library
// callers embedding this kernel in a larger program should build and
// pass their own *logrus.Entry via Config.Logger instead.
func NewTextLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(level)
	return l
}
