// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package log implements leveled logging for the compiler, the
// evaluator, and the locality services. Loggers form a tree: a child
// logger created by Tee publishes to its own outputter and forwards
// every message, prefixed, to its parent. This lets a locality tag
// its messages with its id while still publishing them to the
// process-wide logger.
package log

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level defines the level of logging. Higher levels are more
// verbose.
type Level int

const (
	// OffLevel turns logging off.
	OffLevel Level = iota
	// ErrorLevel outputs only error messages.
	ErrorLevel
	// InfoLevel is the standard level.
	InfoLevel
	// DebugLevel outputs detailed debugging output: compiled
	// snippets, loop iterations, transport requests.
	DebugLevel
)

var levelNames = [...]string{
	OffLevel:   "off",
	ErrorLevel: "error",
	InfoLevel:  "info",
	DebugLevel: "debug",
}

// String returns the level's name as accepted by ParseLevel.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name ("off", "error", "info", "debug").
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(l), nil
		}
	}
	return OffLevel, fmt.Errorf("unrecognized log level %q", s)
}

// An Outputter receives published log messages. Go's
// *log.Logger implements Outputter.
type Outputter interface {
	Output(calldepth int, s string) error
}

type multiOutputter []Outputter

func (m multiOutputter) Output(calldepth int, s string) error {
	var err error
	for _, out := range m {
		if err1 := out.Output(calldepth, s); err1 != nil {
			err = err1
		}
	}
	return err
}

// MultiOutputter returns an Outputter that outputs each
// message to all the provided outputters.
func MultiOutputter(outputters ...Outputter) Outputter {
	return multiOutputter(outputters)
}

// A Logger publishes messages at or below its level. Nil Loggers
// ignore all messages, so a nil *Logger is a valid "no logging"
// configuration.
type Logger struct {
	// Outputter receives all log messages at or below the Logger's
	// current level.
	Outputter
	// Level defines the publishing level of this Logger.
	Level Level

	parent *Logger
	prefix string
}

// New creates a new Logger that publishes messsages at or below the
// provided level to the provided outputter.
func New(out Outputter, level Level) *Logger {
	if level == OffLevel {
		return nil
	}
	return &Logger{Outputter: out, Level: level}
}

// Print formats a message in the manner of fmt.Print and publishes
// it at InfoLevel.
func (l *Logger) Print(v ...interface{}) {
	l.publish(2, InfoLevel, "", fmt.Sprint(v...))
}

// Printf formats a message in the manner of fmt.Printf and publishes
// it at InfoLevel.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.publish(2, InfoLevel, "", fmt.Sprintf(format, args...))
}

// Error formats a message in the manner of fmt.Print and publishes
// it at ErrorLevel.
func (l *Logger) Error(v ...interface{}) {
	l.publish(2, ErrorLevel, "", fmt.Sprint(v...))
}

// Errorf formats a message in the manner of fmt.Printf and publishes
// it at ErrorLevel.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.publish(2, ErrorLevel, "", fmt.Sprintf(format, args...))
}

// Debug formats a message in the manner of fmt.Print and publishes
// it at DebugLevel.
func (l *Logger) Debug(v ...interface{}) {
	l.publish(2, DebugLevel, "", fmt.Sprint(v...))
}

// Debugf formats a message in the manner of fmt.Printf and publishes
// it at DebugLevel.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.publish(2, DebugLevel, "", fmt.Sprintf(format, args...))
}

// At tells whether the logger is at or below the provided level.
func (l *Logger) At(level Level) bool {
	return l != nil && level <= l.Level
}

// publish passes a rendered message up the logger tree; each level
// prepends its own prefix before handing it to its parent.
func (l *Logger) publish(calldepth int, level Level, prefix, msg string) {
	for ; l != nil; l = l.parent {
		if l.Outputter != nil && level <= l.Level {
			l.Output(calldepth+1, prefix+msg)
		}
		prefix = l.prefix + prefix
		calldepth++
	}
}

// Tee constructs a new logger that tees its output to the provided
// outputter and parent logger. Messages sent to the parent are
// prefixed with the provided prefix string. Out may be nil, in which
// cases messages are published to the parent only.
func (l *Logger) Tee(out Outputter, prefix string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Outputter: out,
		Level:     l.Level,
		parent:    l,
		prefix:    prefix,
	}
}

// Std is the standard logger.
var Std = New(log.New(os.Stderr, "", log.LstdFlags), InfoLevel)

// The following are convenience functions to call on
// common methods on the Std logger.
var (
	Print  = Std.Print
	Printf = Std.Printf
	Error  = Std.Error
	Errorf = Std.Errorf
	Debug  = Std.Debug
	Debugf = Std.Debugf
	At     = Std.At
)

// Fatal formats a message in the manner of fmt.Print, outputs it to
// the standard outputter (always), and then calls os.Exit(1).
func Fatal(v ...interface{}) {
	Std.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf formats a message in the manner of fmt.Printf, outputs it to
// the standard outputter (always), and then calls os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	Std.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
