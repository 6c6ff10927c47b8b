// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package logbuffer captures recent slog records in a bounded
// in-memory ring so a controller can pull them from a running
// application. It backs the bridge's get_logs and get_recent_errors
// commands.
package logbuffer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultCapacity is the default number of retained records. Old
// records are evicted once the buffer is full.
const DefaultCapacity = 1000

// Entry is one captured log record, flattened for JSON transport.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Buffer is a fixed-capacity circular store of log entries. It
// implements slog.Handler, so it can be installed directly or behind
// a fan-out handler alongside the process's normal stderr handler.
//
// All methods are safe for concurrent use.
type Buffer struct {
	mutex    sync.Mutex
	entries  []Entry
	capacity int
	// next is the write position within the ring (0 to capacity-1).
	next int
	// total is the number of records ever written; the ring holds
	// min(total, capacity) of them.
	total int
}

// New creates a buffer retaining up to capacity records. Pass
// DefaultCapacity unless the host has a reason to size differently.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Append stores one entry, evicting the oldest if the ring is full.
func (buffer *Buffer) Append(entry Entry) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	buffer.entries[buffer.next] = entry
	buffer.next = (buffer.next + 1) % buffer.capacity
	buffer.total++
}

// Recent returns up to limit entries, oldest first, most recent last.
// limit <= 0 returns everything retained.
func (buffer *Buffer) Recent(limit int) []Entry {
	return buffer.collect(limit, func(Entry) bool { return true })
}

// RecentErrors returns up to limit entries at level error or above,
// oldest first.
func (buffer *Buffer) RecentErrors(limit int) []Entry {
	return buffer.collect(limit, func(entry Entry) bool {
		// Levels are stored rendered ("ERROR", "ERROR+4"); parse back
		// so levels above error still count as errors.
		var level slog.Level
		if err := level.UnmarshalText([]byte(entry.Level)); err != nil {
			return false
		}
		return level >= slog.LevelError
	})
}

func (buffer *Buffer) collect(limit int, keep func(Entry) bool) []Entry {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()

	stored := buffer.total
	if stored > buffer.capacity {
		stored = buffer.capacity
	}
	oldest := (buffer.next - stored + buffer.capacity*2) % buffer.capacity

	var result []Entry
	for i := 0; i < stored; i++ {
		entry := buffer.entries[(oldest+i)%buffer.capacity]
		if keep(entry) {
			result = append(result, entry)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}

// Handler returns a slog.Handler that records every record at or
// above level into the buffer.
func (buffer *Buffer) Handler(level slog.Level) slog.Handler {
	return &captureHandler{buffer: buffer, level: level}
}

// captureHandler adapts a Buffer to slog.Handler. WithAttrs context
// is folded into each captured entry's attribute map; groups are
// flattened with a dotted prefix.
type captureHandler struct {
	buffer *Buffer
	level  slog.Level
	attrs  []slog.Attr
	prefix string
}

func (h *captureHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		attrs[attr.Key] = attr.Value.Any()
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrs[h.prefix+attr.Key] = attr.Value.Any()
		return true
	})
	h.buffer.Append(Entry{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	// The prefix is snapshotted into each key now: attrs added before
	// a later WithGroup stay outside that group.
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix + attr.Key
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// Tee returns a handler that forwards every record to both primary
// and the buffer's capture handler. This is how a host application
// keeps its normal stderr logging while exposing recent records to
// the controller.
func Tee(primary slog.Handler, buffer *Buffer, level slog.Level) slog.Handler {
	return &teeHandler{primary: primary, capture: buffer.Handler(level)}
}

type teeHandler struct {
	primary slog.Handler
	capture slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.capture.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.capture.Enabled(ctx, record.Level) {
		_ = h.capture.Handle(ctx, record)
	}
	if h.primary.Enabled(ctx, record.Level) {
		return h.primary.Handle(ctx, record)
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{primary: h.primary.WithAttrs(attrs), capture: h.capture.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{primary: h.primary.WithGroup(name), capture: h.capture.WithGroup(name)}
}
