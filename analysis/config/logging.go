// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"io"
	"log"
	"os"
)

// LogLevel orders the log messages by verbosity: a log group at level l prints the messages of every level
// up to l.
type LogLevel int

const (
	// ErrLevel=1 - the minimum level of logging: files that do not parse, rules that fail.
	ErrLevel LogLevel = iota + 1

	// WarnLevel=2 - malformed policies, duplicate routines, watcher errors
	WarnLevel

	// InfoLevel=3 - one summary line per checked file
	InfoLevel

	// DebugLevel=4 - per-rule timings, detected dialects, call graph sizes
	DebugLevel

	// TraceLevel=5 - the taint state statement by statement. Only useful on small programs.
	TraceLevel
)

var levelNames = [...]string{
	ErrLevel:   "ERROR",
	WarnLevel:  "WARN",
	InfoLevel:  "INFO",
	DebugLevel: "DEBUG",
	TraceLevel: "TRACE",
}

func (l LogLevel) String() string {
	if l < ErrLevel || l > TraceLevel {
		return "NONE"
	}
	return levelNames[l]
}

// LogGroup is one leveled logger per level, all writing to standard error unless redirected with
// SetAllOutput. The methods of a nil log group discard everything.
type LogGroup struct {
	level   LogLevel
	loggers [TraceLevel + 1]*log.Logger
}

// NewLogGroup returns a log group at the log level of the config.
func NewLogGroup(config *Config) *LogGroup {
	l := &LogGroup{level: LogLevel(config.LogLevel)}
	for lvl := ErrLevel; lvl <= TraceLevel; lvl++ {
		l.loggers[lvl] = log.New(os.Stderr, "["+lvl.String()+"] ", log.LstdFlags)
	}
	return l
}

// SetAllOutput sets all the output writers to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	for _, lg := range l.loggers[ErrLevel:] {
		lg.SetOutput(w)
	}
}

// SetAllFlags sets the log.Logger flags of all levels, e.g. 0 to drop the timestamps
func (l *LogGroup) SetAllFlags(x int) {
	for _, lg := range l.loggers[ErrLevel:] {
		lg.SetFlags(x)
	}
}

func (l *LogGroup) logf(level LogLevel, format string, v []any) {
	if l != nil && l.level >= level {
		l.loggers[level].Printf(format, v...)
	}
}

// Tracef prints to the trace logger. Arguments are handled in the manner of Printf.
func (l *LogGroup) Tracef(format string, v ...any) { l.logf(TraceLevel, format, v) }

// Debugf prints to the debug logger
func (l *LogGroup) Debugf(format string, v ...any) { l.logf(DebugLevel, format, v) }

// Infof prints to the info logger
func (l *LogGroup) Infof(format string, v ...any) { l.logf(InfoLevel, format, v) }

// Warnf prints to the warning logger
func (l *LogGroup) Warnf(format string, v ...any) { l.logf(WarnLevel, format, v) }

// Errorf prints to the error logger
func (l *LogGroup) Errorf(format string, v ...any) { l.logf(ErrLevel, format, v) }

// Level returns the level of the log group. A nil log group is below every level.
func (l *LogGroup) Level() LogLevel {
	if l == nil {
		return 0
	}
	return l.level
}
