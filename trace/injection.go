// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"time"

	"github.com/google/uuid"

	"github.com/gantry-dev/gantry/lib/wildcard"
)

// Injection is one dynamic trace-injection rule: a wildcard pattern
// over fully-qualified call names plus flags controlling what the
// call-site hook captures.
type Injection struct {
	ID        string    `json:"id"`
	Pattern   string    `json:"pattern"`
	LogArgs   bool      `json:"logArgs"`
	LogReturn bool      `json:"logReturn"`
	Active    bool      `json:"active"`
	Created   time.Time `json:"created"`

	compiled *wildcard.Pattern
}

// Inject registers a new injection rule, active immediately, and
// returns it. The pattern uses `*` wildcards: "Cart*.add*" matches
// "CartService.addItem" but not "UserService.addItem".
func (engine *Engine) Inject(pattern string, logArgs, logReturn bool) (Injection, error) {
	compiled, err := wildcard.Compile(pattern)
	if err != nil {
		return Injection{}, err
	}

	injection := &Injection{
		ID:        uuid.NewString(),
		Pattern:   pattern,
		LogArgs:   logArgs,
		LogReturn: logReturn,
		Active:    true,
		Created:   engine.clk.Now(),
		compiled:  compiled,
	}

	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.injections = append(engine.injections, injection)
	return *injection, nil
}

// Injections returns every rule in creation order.
func (engine *Engine) Injections() []Injection {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	rules := make([]Injection, len(engine.injections))
	for i, injection := range engine.injections {
		rules[i] = *injection
	}
	return rules
}

// RemoveInjection deletes the rule with the given id. Returns false
// if no such rule exists.
func (engine *Engine) RemoveInjection(id string) bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	for i, injection := range engine.injections {
		if injection.ID == id {
			engine.injections = append(engine.injections[:i], engine.injections[i+1:]...)
			return true
		}
	}
	return false
}

// ClearInjections removes every rule. Idempotent.
func (engine *Engine) ClearInjections() {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.injections = nil
}

// SetInjectionActive toggles a rule without removing it, preserving
// its flags. Returns false if no such rule exists.
func (engine *Engine) SetInjectionActive(id string, active bool) bool {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	for _, injection := range engine.injections {
		if injection.ID == id {
			injection.Active = active
			return true
		}
	}
	return false
}

// ShouldTrace reports whether a call name matches any active rule.
// The matched rule is returned so the call-site hook can honor its
// LogArgs/LogReturn flags. Rules are tried in creation order.
func (engine *Engine) ShouldTrace(name string) (Injection, bool) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	for _, injection := range engine.injections {
		if injection.Active && injection.compiled.Match(name) {
			return *injection, true
		}
	}
	return Injection{}, false
}
