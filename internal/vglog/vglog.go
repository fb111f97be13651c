// Copyright 2016 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vglog provides the logging indirection used throughout vgcore.
//
// Call sites never import logrus directly; they log through this package so
// tests can install a recording or no-op Logger the same way the teacher's
// clog package decouples callers from the concrete backend.
package vglog

import "github.com/sirupsen/logrus"

// Logger is the vglog logging interface. Fields attaches structured
// key/value pairs (reasoningId, command, graphName, ...) to a log line.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields Fields) Logger
}

// Fields is a set of structured key/value pairs attached to a log line.
type Fields map[string]interface{}

var logger Logger = newLogrusLogger()

// SetLogger installs l as the package-level logger.
func SetLogger(l Logger) { logger = l }

var verbosity int

// V reports whether the current verbosity is at or above level.
func V(level int) bool { return verbosity >= level }

// SetV sets the package verbosity level.
func SetV(level int) { verbosity = level }

// L returns the current package-level logger.
func L() Logger { return logger }

func Infof(format string, args ...interface{})    { logger.Infof(format, args...) }
func Warningf(format string, args ...interface{}) { logger.Warningf(format, args...) }
func Errorf(format string, args ...interface{})   { logger.Errorf(format, args...) }
func Fatalf(format string, args ...interface{})   { logger.Fatalf(format, args...) }

// WithFields returns a Logger that attaches fields to every subsequent line.
func WithFields(fields Fields) Logger { return logger.WithFields(fields) }

// SetLevel parses a logrus level name ("debug", "info", "warning", "error")
// and applies it to the default logrus backend; unrecognized names are
// ignored (the default level is kept).
func SetLevel(name string) {
	l, ok := logger.(logrusLogger)
	if !ok {
		return
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return
	}
	l.entry.Logger.SetLevel(lvl)
}

// logrusLogger is the default backend, wrapping a *logrus.Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

func newLogrusLogger() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logrusLogger{entry: logrus.NewEntry(l)}
}

func (l logrusLogger) Infof(format string, args ...interface{})    { l.entry.Infof(format, args...) }
func (l logrusLogger) Warningf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }
func (l logrusLogger) Errorf(format string, args ...interface{})   { l.entry.Errorf(format, args...) }
func (l logrusLogger) Fatalf(format string, args ...interface{})   { l.entry.Fatalf(format, args...) }

func (l logrusLogger) WithFields(fields Fields) Logger {
	return logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// NopLogger discards everything; useful for tests that assert on store
// state rather than log output.
type NopLogger struct{}

func (NopLogger) Infof(string, ...interface{})    {}
func (NopLogger) Warningf(string, ...interface{}) {}
func (NopLogger) Errorf(string, ...interface{})   {}
func (NopLogger) Fatalf(string, ...interface{})   {}
func (n NopLogger) WithFields(Fields) Logger      { return n }
