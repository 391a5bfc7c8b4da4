// Package logger wraps log/slog with component, file and function scoping.
//
// The error helpers log and hand back an error in one call so call sites can
// write `return log.Err("failed to x", err)`.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	name     string
	file     string
	function string
	attrs    []any
}

func New(name string) Logger {
	return Logger{name: name}
}

// Init replaces the process-wide slog handler.
func Init(level, format string) {
	InitWriter(os.Stdout, level, format)
}

func InitWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l Logger) File(file string) Logger {
	l.file = file
	return l
}

func (l Logger) Function(function string) Logger {
	l.function = function
	return l
}

func (l Logger) With(args ...any) Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	l.attrs = append(attrs, args...)
	return l
}

func (l Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Er logs err without returning it.
func (l Logger) Er(msg string, err error, args ...any) {
	l.log(slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

func (l Logger) ErMsg(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// Err logs and returns err wrapped with msg. The original error stays
// reachable through errors.Is and errors.As.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.Er(msg, err, args...)
	if err == nil {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Error logs msg and returns it as a new error.
func (l Logger) Error(msg string, args ...any) error {
	l.ErMsg(msg, args...)
	return errors.New(msg)
}

func (l Logger) ErrMsg(msg string) error {
	return l.Error(msg)
}

func (l Logger) log(level slog.Level, msg string, args ...any) {
	base := slog.Default()
	ctx := context.Background()
	if !base.Enabled(ctx, level) {
		return
	}

	attrs := make([]any, 0, 6+len(l.attrs)+len(args))
	if l.name != "" {
		attrs = append(attrs, "component", l.name)
	}
	if l.file != "" {
		attrs = append(attrs, "file", l.file)
	}
	if l.function != "" {
		attrs = append(attrs, "function", l.function)
	}
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)

	base.Log(ctx, level, msg, attrs...)
}
