// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package logbuffer

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestRecentReturnsOldestFirst(t *testing.T) {
	buffer := New(10)
	for i := 0; i < 3; i++ {
		buffer.Append(Entry{Message: fmt.Sprintf("m%d", i), Level: "INFO"})
	}

	got := buffer.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent(0) returned %d entries, want 3", len(got))
	}
	for i, entry := range got {
		if want := fmt.Sprintf("m%d", i); entry.Message != want {
			t.Errorf("entry %d message = %q, want %q", i, entry.Message, want)
		}
	}
}

func TestEvictionKeepsMostRecent(t *testing.T) {
	buffer := New(3)
	for i := 0; i < 5; i++ {
		buffer.Append(Entry{Message: fmt.Sprintf("m%d", i), Level: "INFO"})
	}

	got := buffer.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent(0) returned %d entries, want 3", len(got))
	}
	if got[0].Message != "m2" || got[2].Message != "m4" {
		t.Fatalf("retained window = [%s..%s], want [m2..m4]", got[0].Message, got[2].Message)
	}
}

func TestRecentLimitKeepsMostRecentN(t *testing.T) {
	buffer := New(10)
	for i := 0; i < 5; i++ {
		buffer.Append(Entry{Message: fmt.Sprintf("m%d", i), Level: "INFO"})
	}

	got := buffer.Recent(2)
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(got))
	}
	if got[0].Message != "m3" || got[1].Message != "m4" {
		t.Fatalf("Recent(2) = [%s, %s], want [m3, m4]", got[0].Message, got[1].Message)
	}
}

func TestRecentErrorsFiltersLevel(t *testing.T) {
	buffer := New(10)
	logger := slog.New(buffer.Handler(slog.LevelDebug))

	logger.Info("checkout started")
	logger.Error("payment declined", "code", 402)
	logger.Warn("inventory low")

	errors := buffer.RecentErrors(0)
	if len(errors) != 1 {
		t.Fatalf("RecentErrors returned %d entries, want 1", len(errors))
	}
	if errors[0].Message != "payment declined" {
		t.Fatalf("error message = %q", errors[0].Message)
	}
	if errors[0].Attrs["code"] != int64(402) {
		t.Fatalf("error attrs = %v, want code=402", errors[0].Attrs)
	}
}

func TestRecentErrorsIncludesLevelsAboveError(t *testing.T) {
	buffer := New(10)
	logger := slog.New(buffer.Handler(slog.LevelDebug))

	logger.Error("payment declined")
	logger.Log(context.Background(), slog.LevelError+4, "store corrupted")
	logger.Warn("inventory low")

	errors := buffer.RecentErrors(0)
	if len(errors) != 2 {
		t.Fatalf("RecentErrors returned %d entries, want 2", len(errors))
	}
	if errors[1].Message != "store corrupted" {
		t.Fatalf("level above error filtered out: %+v", errors)
	}
}

func TestWithAttrsBeforeGroupStaysOutside(t *testing.T) {
	buffer := New(10)
	logger := slog.New(buffer.Handler(slog.LevelInfo)).
		With("session", "s1").
		WithGroup("cart").
		With("currency", "EUR")

	logger.Info("item added", "sku", "p1")

	got := buffer.Recent(0)
	if len(got) != 1 {
		t.Fatalf("captured %d entries, want 1", len(got))
	}
	attrs := got[0].Attrs
	if attrs["session"] != "s1" {
		t.Errorf("attr added before the group gained its prefix: %v", attrs)
	}
	if attrs["cart.currency"] != "EUR" {
		t.Errorf("attr added after the group lost its prefix: %v", attrs)
	}
	if attrs["cart.sku"] != "p1" {
		t.Errorf("record attr missing the group prefix: %v", attrs)
	}
}

func TestHandlerCarriesWithAttrsAndGroups(t *testing.T) {
	buffer := New(10)
	logger := slog.New(buffer.Handler(slog.LevelInfo)).
		With("session", "s1").
		WithGroup("cart")

	logger.Info("item added", "sku", "p1")

	got := buffer.Recent(0)
	if len(got) != 1 {
		t.Fatalf("captured %d entries, want 1", len(got))
	}
	if got[0].Attrs["session"] != "s1" {
		t.Errorf("With attr missing: %v", got[0].Attrs)
	}
	if got[0].Attrs["cart.sku"] != "p1" {
		t.Errorf("group-prefixed attr missing: %v", got[0].Attrs)
	}
}

func TestTeeForwardsToBothHandlers(t *testing.T) {
	buffer := New(10)
	sink := New(10)
	logger := slog.New(Tee(sink.Handler(slog.LevelInfo), buffer, slog.LevelInfo))

	logger.Info("hello", "at", time.Now())

	if len(buffer.Recent(0)) != 1 {
		t.Error("capture buffer missed the record")
	}
	if len(sink.Recent(0)) != 1 {
		t.Error("primary handler missed the record")
	}
}
