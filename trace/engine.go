// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gantry-dev/gantry/lib/clock"
)

// DefaultHistoryCapacity is the default size of the completed-trace
// ring. Oldest entries are evicted first once the ring is full.
const DefaultHistoryCapacity = 500

// Entry is one recorded function invocation.
type Entry struct {
	// ID is monotonic per engine instance.
	ID uint64 `json:"id"`

	Name  string    `json:"name"`
	Start time.Time `json:"start"`

	// Input is the argument snapshot captured at entry.
	Input any `json:"input,omitempty"`

	// Duration, Return, and Error are populated at completion.
	// Duration is serialized in nanoseconds.
	Duration time.Duration `json:"duration,omitempty"`
	Return   any           `json:"return,omitempty"`
	Error    string        `json:"error,omitempty"`

	Completed bool `json:"completed"`
}

// Filter selects completed traces. Zero fields match everything.
type Filter struct {
	// Name keeps entries whose name contains this substring.
	Name string `json:"name,omitempty"`

	// MinDuration keeps entries at least this slow.
	MinDuration time.Duration `json:"minDuration,omitempty"`

	// Limit keeps the most recent N matches (not the first N).
	Limit int `json:"limit,omitempty"`
}

// Engine holds in-flight and completed trace records plus the
// injection pattern collection. Safe for concurrent use from
// arbitrary application goroutines.
type Engine struct {
	mutex  sync.Mutex
	clk    clock.Clock
	nextID uint64

	// active is keyed by id; openByName tracks the ids currently open
	// under each name, in open order, for the name-keyed completion
	// convenience.
	active     map[uint64]*Entry
	openByName map[string][]uint64

	// history is a fixed-capacity ring of completed entries.
	history      []Entry
	historyNext  int
	historyTotal int

	injections []*Injection
}

// NewEngine creates an engine with the given history capacity.
// capacity <= 0 uses DefaultHistoryCapacity; a nil clk uses the real
// clock.
func NewEngine(clk clock.Clock, capacity int) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Engine{
		clk:        clk,
		active:     make(map[uint64]*Entry),
		openByName: make(map[string][]uint64),
		history:    make([]Entry, capacity),
	}
}

// Start opens an active entry for one invocation of name and returns
// its id. Concurrent calls under the same name each get their own
// entry; only the name-keyed Complete is ambiguous between them.
func (engine *Engine) Start(name string, input any) uint64 {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	engine.nextID++
	id := engine.nextID
	engine.active[id] = &Entry{
		ID:    id,
		Name:  name,
		Start: engine.clk.Now(),
		Input: input,
	}
	engine.openByName[name] = append(engine.openByName[name], id)
	return id
}

// CompleteID marks the active entry with the given id completed,
// computes its duration, and moves it into the history ring. Returns
// false (a no-op) when no such active entry exists.
func (engine *Engine) CompleteID(id uint64, returnValue any, errMessage string) bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return engine.completeLocked(id, returnValue, errMessage)
}

// Complete is the name-keyed completion convenience for
// instrumentation that cannot thread the id from entry to exit. When
// several entries are open under the same name it resolves to the
// MOST RECENTLY OPENED one.
//
// This ambiguity is a documented limitation of the name-keyed form,
// kept for single-flight instrumentation compatibility — it is not a
// bug to fix. Overlapping concurrent calls under one name must use
// Start/CompleteID.
func (engine *Engine) Complete(name string, returnValue any, errMessage string) bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	open := engine.openByName[name]
	if len(open) == 0 {
		return false
	}
	return engine.completeLocked(open[len(open)-1], returnValue, errMessage)
}

// Sync traces one synchronous call: it opens an entry, runs fn, and
// completes the entry on every exit path — normal return, error
// return, or panic. Errors and panics are recorded and then
// propagated to the caller unchanged.
func (engine *Engine) Sync(name string, input any, fn func() (any, error)) (any, error) {
	id := engine.Start(name, input)

	defer func() {
		if recovered := recover(); recovered != nil {
			engine.CompleteID(id, nil, fmt.Sprintf("panic: %v", recovered))
			panic(recovered)
		}
	}()

	result, err := fn()
	if err != nil {
		engine.CompleteID(id, nil, err.Error())
		return nil, err
	}
	engine.CompleteID(id, result, "")
	return result, nil
}

// Outcome is the result of an Async traced call.
type Outcome struct {
	Value any
	Err   error
}

// Async traces fn on its own goroutine and delivers the outcome on
// the returned channel (buffered, never blocks the traced call). The
// trace entry is completed on every exit path, including panics,
// which are converted into the outcome error rather than re-raised on
// the anonymous goroutine.
func (engine *Engine) Async(name string, input any, fn func() (any, error)) <-chan Outcome {
	outcome := make(chan Outcome, 1)
	go func() {
		id := engine.Start(name, input)
		defer func() {
			if recovered := recover(); recovered != nil {
				message := fmt.Sprintf("panic: %v", recovered)
				engine.CompleteID(id, nil, message)
				outcome <- Outcome{Err: fmt.Errorf("%s: %s", name, message)}
			}
		}()

		result, err := fn()
		if err != nil {
			engine.CompleteID(id, nil, err.Error())
			outcome <- Outcome{Err: err}
			return
		}
		engine.CompleteID(id, result, "")
		outcome <- Outcome{Value: result}
	}()
	return outcome
}

// Traces returns completed entries matching filter, oldest first.
// With a Limit, the most recent N matches are kept.
func (engine *Engine) Traces(filter Filter) []Entry {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	stored := engine.historyTotal
	if stored > len(engine.history) {
		stored = len(engine.history)
	}
	oldest := (engine.historyNext - stored + 2*len(engine.history)) % len(engine.history)

	var matches []Entry
	for i := 0; i < stored; i++ {
		entry := engine.history[(oldest+i)%len(engine.history)]
		if filter.Name != "" && !strings.Contains(entry.Name, filter.Name) {
			continue
		}
		if entry.Duration < filter.MinDuration {
			continue
		}
		matches = append(matches, entry)
	}
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[len(matches)-filter.Limit:]
	}
	return matches
}

// Active returns the currently open entries, ordered by id.
func (engine *Engine) Active() []Entry {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	entries := make([]Entry, 0, len(engine.active))
	for _, entry := range engine.active {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Clear drops both active and historical entries. Injection patterns
// are untouched; use ClearInjections for those. Idempotent.
func (engine *Engine) Clear() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.active = make(map[uint64]*Entry)
	engine.openByName = make(map[string][]uint64)
	engine.historyNext = 0
	engine.historyTotal = 0
}

// completeLocked finalizes an active entry and appends it to the
// history ring. Caller holds engine.mutex.
func (engine *Engine) completeLocked(id uint64, returnValue any, errMessage string) bool {
	entry, ok := engine.active[id]
	if !ok {
		return false
	}
	delete(engine.active, id)

	open := engine.openByName[entry.Name]
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == id {
			open = append(open[:i], open[i+1:]...)
			break
		}
	}
	if len(open) == 0 {
		delete(engine.openByName, entry.Name)
	} else {
		engine.openByName[entry.Name] = open
	}

	entry.Duration = engine.clk.Now().Sub(entry.Start)
	entry.Return = returnValue
	entry.Error = errMessage
	entry.Completed = true

	engine.history[engine.historyNext] = *entry
	engine.historyNext = (engine.historyNext + 1) % len(engine.history)
	engine.historyTotal++
	return true
}
