// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gantry-dev/gantry/lib/clock"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStartCompleteID(t *testing.T) {
	fake := clock.Fake(testEpoch)
	engine := NewEngine(fake, 0)

	id := engine.Start("CartService.addItem", map[string]any{"productId": "p1"})
	if len(engine.Active()) != 1 {
		t.Fatal("no active entry after Start")
	}

	fake.Advance(25 * time.Millisecond)
	if !engine.CompleteID(id, map[string]any{"added": "p1"}, "") {
		t.Fatal("CompleteID reported no matching entry")
	}

	if len(engine.Active()) != 0 {
		t.Fatal("entry still active after completion")
	}
	traces := engine.Traces(Filter{})
	if len(traces) != 1 {
		t.Fatalf("history has %d entries, want 1", len(traces))
	}
	entry := traces[0]
	if !entry.Completed || entry.Duration != 25*time.Millisecond {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Return.(map[string]any)["added"] != "p1" {
		t.Fatalf("return value lost: %+v", entry)
	}
}

func TestCompleteIDUnknownIsNoOp(t *testing.T) {
	engine := NewEngine(nil, 0)
	if engine.CompleteID(42, nil, "") {
		t.Fatal("CompleteID of unknown id reported success")
	}
	if engine.Complete("never.opened", nil, "") {
		t.Fatal("Complete of unknown name reported success")
	}
}

func TestCompleteByNameResolvesMostRecentlyOpened(t *testing.T) {
	fake := clock.Fake(testEpoch)
	engine := NewEngine(fake, 0)

	first := engine.Start("UserService.login", "first")
	second := engine.Start("UserService.login", "second")

	// Name-keyed completion closes the most recently opened entry —
	// the documented resolution of the concurrent-same-name ambiguity.
	if !engine.Complete("UserService.login", "ok", "") {
		t.Fatal("Complete found no open entry")
	}

	active := engine.Active()
	if len(active) != 1 || active[0].ID != first {
		t.Fatalf("active = %+v, want only the first entry (id %d)", active, first)
	}
	traces := engine.Traces(Filter{})
	if len(traces) != 1 || traces[0].ID != second {
		t.Fatalf("history = %+v, want the second entry (id %d)", traces, second)
	}
}

func TestConcurrentSameNameEntriesDoNotCorrupt(t *testing.T) {
	engine := NewEngine(nil, 0)

	a := engine.Start("Cart.add", "a")
	b := engine.Start("Cart.add", "b")
	if a == b {
		t.Fatal("two invocations share one id")
	}

	engine.CompleteID(a, "ra", "")
	engine.CompleteID(b, "rb", "")

	traces := engine.Traces(Filter{})
	if len(traces) != 2 {
		t.Fatalf("history = %+v", traces)
	}
	if traces[0].Input != "a" || traces[1].Input != "b" {
		t.Fatalf("entries crossed: %+v", traces)
	}
}

func TestSyncRecordsSuccess(t *testing.T) {
	engine := NewEngine(nil, 0)

	result, err := engine.Sync("CartService.addItem", nil, func() (any, error) {
		return "added", nil
	})
	if err != nil || result != "added" {
		t.Fatalf("Sync = %v, %v", result, err)
	}

	traces := engine.Traces(Filter{Name: "CartService.addItem"})
	if len(traces) != 1 || !traces[0].Completed || traces[0].Error != "" {
		t.Fatalf("traces = %+v", traces)
	}
}

func TestSyncRecordsErrorAndPropagates(t *testing.T) {
	engine := NewEngine(nil, 0)
	cause := errors.New("payment declined")

	_, err := engine.Sync("Checkout.pay", nil, func() (any, error) {
		return nil, cause
	})
	if !errors.Is(err, cause) {
		t.Fatalf("Sync swallowed the error: %v", err)
	}

	traces := engine.Traces(Filter{Name: "Checkout.pay"})
	if len(traces) != 1 {
		t.Fatalf("history has %d entries, want exactly 1", len(traces))
	}
	if !traces[0].Completed || traces[0].Error != "payment declined" {
		t.Fatalf("entry = %+v", traces[0])
	}
	if len(engine.Active()) != 0 {
		t.Fatal("active entry leaked on the error path")
	}
}

func TestSyncRecordsPanicAndRepanics(t *testing.T) {
	engine := NewEngine(nil, 0)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Sync swallowed the panic")
			}
		}()
		engine.Sync("Checkout.pay", nil, func() (any, error) {
			panic("nil dereference")
		})
	}()

	traces := engine.Traces(Filter{Name: "Checkout.pay"})
	if len(traces) != 1 || traces[0].Error == "" {
		t.Fatalf("panic not recorded: %+v", traces)
	}
	if len(engine.Active()) != 0 {
		t.Fatal("active entry leaked on the panic path")
	}
}

func TestAsyncCompletesOnEveryPath(t *testing.T) {
	engine := NewEngine(nil, 0)

	outcome := <-engine.Async("Sync.refresh", nil, func() (any, error) {
		return 7, nil
	})
	if outcome.Err != nil || outcome.Value != 7 {
		t.Fatalf("outcome = %+v", outcome)
	}

	outcome = <-engine.Async("Sync.refresh", nil, func() (any, error) {
		panic("worker died")
	})
	if outcome.Err == nil {
		t.Fatal("panic outcome has no error")
	}

	if len(engine.Active()) != 0 {
		t.Fatal("active entries leaked")
	}
	if got := len(engine.Traces(Filter{})); got != 2 {
		t.Fatalf("history has %d entries, want 2", got)
	}
}

func TestTracesFilter(t *testing.T) {
	fake := clock.Fake(testEpoch)
	engine := NewEngine(fake, 0)

	slow := engine.Start("UserService.login", nil)
	fake.Advance(100 * time.Millisecond)
	engine.CompleteID(slow, nil, "")

	fast := engine.Start("UserService.logout", nil)
	fake.Advance(5 * time.Millisecond)
	engine.CompleteID(fast, nil, "")

	other := engine.Start("CartService.addItem", nil)
	fake.Advance(50 * time.Millisecond)
	engine.CompleteID(other, nil, "")

	byName := engine.Traces(Filter{Name: "UserService"})
	if len(byName) != 2 {
		t.Fatalf("name filter matched %d, want 2", len(byName))
	}

	byDuration := engine.Traces(Filter{MinDuration: 50 * time.Millisecond})
	if len(byDuration) != 2 {
		t.Fatalf("duration filter matched %d, want 2", len(byDuration))
	}

	limited := engine.Traces(Filter{Name: "UserService", Limit: 1})
	if len(limited) != 1 || limited[0].Name != "UserService.logout" {
		t.Fatalf("limit kept %+v, want the most recent UserService entry", limited)
	}
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	engine := NewEngine(nil, 3)

	for i := 0; i < 5; i++ {
		id := engine.Start(fmt.Sprintf("call%d", i), nil)
		engine.CompleteID(id, nil, "")
	}

	traces := engine.Traces(Filter{})
	if len(traces) != 3 {
		t.Fatalf("history has %d entries, want capacity 3", len(traces))
	}
	if traces[0].Name != "call2" || traces[2].Name != "call4" {
		t.Fatalf("retained window = [%s..%s], want [call2..call4]", traces[0].Name, traces[2].Name)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	engine := NewEngine(nil, 0)
	engine.Start("open", nil)
	id := engine.Start("done", nil)
	engine.CompleteID(id, nil, "")

	engine.Clear()
	if len(engine.Traces(Filter{})) != 0 || len(engine.Active()) != 0 {
		t.Fatal("Clear left entries behind")
	}

	engine.Clear()
	if len(engine.Traces(Filter{})) != 0 {
		t.Fatal("second Clear misbehaved")
	}
}
