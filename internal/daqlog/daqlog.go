/*
DESCRIPTION
  daqlog.go provides a small leveled logger that is injected explicitly into
  every pipeline stage, rather than looked up from a process-wide registry.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package daqlog provides a leveled Logger used throughout the miniscope
// acquisition pipeline. It mirrors the shape of github.com/ausocean/utils/logging's
// Logger interface so that the same dependency-injection style used by revid
// carries over here: each stage is constructed with a Logger, there is no
// global logger lookup.
package daqlog

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Severity levels, ordered least to most severe.
const (
	Debug int8 = iota
	Info
	Warning
	Error
	Fatal
)

func levelString(l int8) string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface every pipeline stage depends on. Implementations
// must be safe for concurrent use since stages run as independent goroutines.
type Logger interface {
	SetLevel(int8)
	Log(level int8, msg string, params ...interface{})
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// StdLogger writes leveled, timestamped lines to an io.Writer. It is
// typically constructed over a gopkg.in/natefinch/lumberjack.v2.Logger for
// rotating file output, or over os.Stderr for interactive use.
type StdLogger struct {
	mu    sync.Mutex
	w     io.Writer
	level int8
}

// New returns a StdLogger that writes to w, suppressing messages below level.
func New(level int8, w io.Writer) *StdLogger {
	return &StdLogger{w: w, level: level}
}

// SetLevel changes the minimum severity that will be written.
func (l *StdLogger) SetLevel(level int8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Log writes msg at the given level, appending params as key/value pairs.
func (l *StdLogger) Log(level int8, msg string, params ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	ts := time.Now().Format(time.RFC3339)
	fmt.Fprintf(l.w, "%s [%s] %s", ts, levelString(level), msg)
	for i := 0; i+1 < len(params); i += 2 {
		fmt.Fprintf(l.w, " %v=%v", params[i], params[i+1])
	}
	fmt.Fprintln(l.w)
}

func (l *StdLogger) Debug(msg string, params ...interface{})   { l.Log(Debug, msg, params...) }
func (l *StdLogger) Info(msg string, params ...interface{})    { l.Log(Info, msg, params...) }
func (l *StdLogger) Warning(msg string, params ...interface{}) { l.Log(Warning, msg, params...) }
func (l *StdLogger) Error(msg string, params ...interface{})   { l.Log(Error, msg, params...) }

// Discard is a Logger that drops everything; useful as a default in tests.
var Discard Logger = discard{}

type discard struct{}

func (discard) SetLevel(int8)                             {}
func (discard) Log(int8, string, ...interface{})          {}
func (discard) Debug(string, ...interface{})              {}
func (discard) Info(string, ...interface{})               {}
func (discard) Warning(string, ...interface{})            {}
func (discard) Error(string, ...interface{})              {}
