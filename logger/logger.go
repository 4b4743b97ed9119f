// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger carries a [slog] logger in a context.
//
// Packages that process files log through [Debug], [Info] and [Warn] and never
// print on their own. The command decides where records go by attaching
// handlers to the [Logger] it puts into the context, and how much is shown by
// setting its level.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

type ctxKey struct{}

// fanout sends each record to every attached handler that accepts its level.
type fanout struct {
	mu       sync.RWMutex
	handlers []slog.Handler
}

func (f *fanout) snapshot() []slog.Handler {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.handlers
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.snapshot() {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f.snapshot() {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	hs := f.snapshot()
	derived := make([]slog.Handler, len(hs))
	for i, h := range hs {
		derived[i] = fn(h)
	}
	return &fanout{handlers: derived}
}

func (f *fanout) attach(h slog.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Copy so that snapshots taken earlier stay unchanged.
	f.handlers = append(f.handlers[:len(f.handlers):len(f.handlers)], h)
}

// Logger is an [slog.Logger] whose handlers are attached after it is created.
// Level is meant to be shared by those handlers, so that changing it changes
// what all of them let through.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
	out   *fanout
}

// New returns a Logger without handlers. If level is nil, a new
// [slog.LevelVar] at [slog.LevelInfo] is used.
func New(level *slog.LevelVar) *Logger {
	if level == nil {
		level = new(slog.LevelVar)
	}
	out := new(fanout)
	return &Logger{Logger: slog.New(out), Level: level, out: out}
}

// Attach adds a handler to l.
func (l *Logger) Attach(h slog.Handler) { l.out.attach(h) }

var discard = func() *Logger {
	l := New(nil)
	l.Attach(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: l.Level}))
	return l
}()

// Put returns a copy of ctx carrying l.
func Put(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// Get returns the [Logger] carried by ctx, or one that discards everything.
func Get(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return discard
}

// LevelVar returns the level of the [Logger] carried by ctx.
func LevelVar(ctx context.Context) *slog.LevelVar { return Get(ctx).Level }

// Debug logs msg at [slog.LevelDebug].
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// Info logs msg at [slog.LevelInfo].
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs msg at [slog.LevelWarn].
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Get(ctx).LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// Logf is a printf-style logging function.
type Logf func(format string, args ...any)

// Write implements [io.Writer] so a Logf can back a [log.Logger].
// Each call logs p as a single message with the trailing newline removed.
func (f Logf) Write(p []byte) (int, error) {
	f("%s", strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
