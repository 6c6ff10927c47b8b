// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the repository's standard slog loggers.
package logging

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates a structured logger writing to stderr. When
// stderr is a terminal, it uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (CI, scripts, service
// managers), it uses slog.JSONHandler so output stays
// machine-parseable.
//
// Callers scope the logger with component context via With():
//
//	logger := logging.NewLogger(slog.LevelInfo).With("component", "coordinator")
func NewLogger(level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// ParseLevel maps a --log-level flag value to a slog.Level. Unknown
// values fall back to Info rather than failing startup.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
