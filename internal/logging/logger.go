// Package logging defines the structured logger used across robosim.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Logger interface {
	Debug(msg string, keyValues ...any)
	Info(msg string, keyValues ...any)
	Warn(msg string, keyValues ...any)
	Error(msg string, keyValues ...any)
}

type slogAdapter struct {
	logger *slog.Logger
}

// NewSlog wraps a *slog.Logger.
func NewSlog(logger *slog.Logger) Logger {
	return &slogAdapter{logger: logger}
}

func (a *slogAdapter) Debug(msg string, keyValues ...any) { a.logger.Debug(msg, keyValues...) }
func (a *slogAdapter) Info(msg string, keyValues ...any)  { a.logger.Info(msg, keyValues...) }
func (a *slogAdapter) Warn(msg string, keyValues ...any)  { a.logger.Warn(msg, keyValues...) }
func (a *slogAdapter) Error(msg string, keyValues ...any) { a.logger.Error(msg, keyValues...) }

// NewText builds a text logger writing to w at the named level.
func NewText(w io.Writer, level string) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return NewSlog(slog.New(h)), nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", level)
	}
}

type nop struct{}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}
