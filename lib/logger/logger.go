// Copyright 2024 The Depgraph Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger provides a leveled, context-carried logger. It exists
// so that no part of this repository needs a package-level logging
// singleton: a *Logger is created once by the CLI entry point and
// threaded through context.Context from there.
package logger

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"

	"go.depgraph.dev/depgraph/lib/color"
)

const (
	Ldate         = log.Ldate
	Lmicroseconds = log.Lmicroseconds
	Lshortfile    = log.Lshortfile

	callDepth = 3
)

// stringer is satisfied by any type with a String() method; NewLogger
// wraps a plain string prefix in stringPrefix, so the logger accepts
// either a fixed prefix or a dynamic one (e.g. a counter) the way
// tools/lib/logger's tests do.
type stringer interface {
	String() string
}

type stringPrefix string

func (s stringPrefix) String() string { return string(s) }

// Logger writes level-filtered, optionally colorized log lines to two
// io.Writers: one for Info/Debug/Trace, one for Warning/Error/Fatal.
type Logger struct {
	level         LogLevel
	color         color.Color
	goLogger      *log.Logger
	goErrorLogger *log.Logger
	prefix        stringer
}

// NewLogger constructs a Logger. prefix may be a string or any value
// implementing String(), evaluated fresh on every call so a counter-like
// prefix can vary line to line. A nil out/err writer discards output.
func NewLogger(level LogLevel, c color.Color, out, err io.Writer, prefix interface{}) *Logger {
	if out == nil {
		out = ioutil.Discard
	}
	if err == nil {
		err = ioutil.Discard
	}
	var p stringer
	switch v := prefix.(type) {
	case nil:
		p = stringPrefix("")
	case string:
		p = stringPrefix(v)
	case stringer:
		p = v
	default:
		p = stringPrefix(fmt.Sprintf("%v", v))
	}
	return &Logger{
		level:         level,
		color:         c,
		goLogger:      log.New(out, "", Ldate|Lmicroseconds),
		goErrorLogger: log.New(err, "", Ldate|Lmicroseconds),
		prefix:        p,
	}
}

// SetFlags sets the flags (as in the standard log package) on both the
// info and error writers.
func (l *Logger) SetFlags(flags int) {
	l.goLogger.SetFlags(flags)
	l.goErrorLogger.SetFlags(flags)
}

func (l *Logger) logf(level LogLevel, w *log.Logger, colored func(string, ...interface{}) string, format string, a ...interface{}) {
	if level > l.level {
		return
	}
	msg := fmt.Sprintf(format, a...)
	if colored != nil {
		msg = colored(msg)
	}
	w.Output(callDepth, l.prefix.String()+msg)
}

func (l *Logger) Fatalf(format string, a ...interface{}) {
	l.logf(FatalLevel, l.goErrorLogger, func(s string, _ ...interface{}) string {
		return l.color.Red("FATAL: ") + s
	}, format, a...)
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	l.logf(ErrorLevel, l.goErrorLogger, func(s string, _ ...interface{}) string {
		return l.color.Red("ERROR: ") + s
	}, format, a...)
}

func (l *Logger) Warningf(format string, a ...interface{}) {
	l.logf(WarningLevel, l.goErrorLogger, func(s string, _ ...interface{}) string {
		return l.color.Yellow("WARNING: ") + s
	}, format, a...)
}

func (l *Logger) Infof(format string, a ...interface{}) {
	l.logf(InfoLevel, l.goLogger, nil, format, a...)
}

func (l *Logger) Debugf(format string, a ...interface{}) {
	l.logf(DebugLevel, l.goLogger, nil, format, a...)
}

func (l *Logger) Tracef(format string, a ...interface{}) {
	l.logf(TraceLevel, l.goLogger, nil, format, a...)
}

type globalLoggerKeyType struct{}

// WithLogger attaches a Logger to ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, globalLoggerKeyType{}, l)
}

// FromContext returns the Logger attached to ctx, or a Logger that
// discards everything if none was attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(globalLoggerKeyType{}).(*Logger); ok && l != nil {
		return l
	}
	return NewLogger(InfoLevel, color.NewColor(color.ColorNever), nil, nil, "")
}
