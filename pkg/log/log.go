// Copyright 2025 walteh LLC
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

// Package log prints the user facing console lines of the CLI.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 📦 PublishOperation describes a publish run for the header lines
type PublishOperation struct {
	Bucket   string // target bucket
	Region   string // bucket region
	Source   string // local directory
	Prefix   string // key prefix, may be empty
	Simulate bool   // nothing will be sent
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *PublishOperation
}

// 🏭 New creates a new logger. Structured events are written to events
// (stderr when nil) at level.
func New(console, events io.Writer, level zerolog.Level) *Logger {
	if events == nil {
		events = os.Stderr
	}
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = events
	})).With().Timestamp().Logger().Level(level)
	return NewWithLogger(console, zlog)
}

// NewWithLogger creates a logger that sends structured events to zlog.
func NewWithLogger(console io.Writer, zlog zerolog.Logger) *Logger {
	if console == nil {
		console = io.Discard
	}
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context. Without one, console lines are
// dropped and events go to the zerolog logger of ctx.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return NewWithLogger(nil, *zerolog.Ctx(ctx))
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Zerolog returns the structured logger, ready for WithContext.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// Console is the writer console lines go to.
func (l *Logger) Console() io.Writer {
	return l.console
}

// 📝 StartPublish prints the target of a publish run
func (l *Logger) StartPublish(ctx context.Context, op PublishOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op

	target := "s3://" + op.Bucket
	if op.Prefix != "" {
		target += "/" + op.Prefix
	}
	verb := "publishing"
	if op.Simulate {
		verb = "simulating"
	}

	fmt.Fprintf(l.console, "[%s %s]\n", verb, color.New(color.FgCyan).Sprint(target))
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Region))

	l.zlog.Info().
		Str("bucket", op.Bucket).
		Str("region", op.Region).
		Str("source", op.Source).
		Str("prefix", op.Prefix).
		Bool("simulate", op.Simulate).
		Msg("starting publish")
}

// 📝 EndPublish closes the current publish run
func (l *Logger) EndPublish(ctx context.Context, results int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("bucket", l.currentOp.Bucket).
		Int("results", results).
		Msg("publish complete")

	l.currentOp = nil
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("atomic-s3")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Details prints indented lines under the previous message
func (l *Logger) Details(lines []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintf(l.console, "  %s\n", line)
	}
}

// line prints one prefixed console line and mirrors msg as a structured event
func (l *Logger) line(prefix string, attr color.Attribute, event *zerolog.Event, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", prefix, color.New(attr).Sprint(msg))
	event.Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.line("✅", color.FgGreen, l.zlog.Info(), msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.line("⚠️ ", color.FgYellow, l.zlog.Warn(), msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.line("❌", color.FgRed, l.zlog.Error(), msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.line("ℹ️ ", color.FgCyan, l.zlog.Info(), msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
