// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import "testing"

func TestInjectAndMatch(t *testing.T) {
	engine := NewEngine(nil, 0)

	injection, err := engine.Inject("Cart*.add*", true, false)
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	if injection.ID == "" || !injection.Active {
		t.Fatalf("injection = %+v, want active with an id", injection)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"CartService.addItem", true},
		{"CartX.addFoo", true},
		{"UserService.addItem", false},
	}
	for _, test := range tests {
		matched, ok := engine.ShouldTrace(test.name)
		if ok != test.want {
			t.Errorf("ShouldTrace(%q) = %v, want %v", test.name, ok, test.want)
		}
		if ok && !matched.LogArgs {
			t.Errorf("ShouldTrace(%q) lost the LogArgs flag", test.name)
		}
	}
}

func TestInjectRejectsEmptyPattern(t *testing.T) {
	engine := NewEngine(nil, 0)
	if _, err := engine.Inject("", false, false); err == nil {
		t.Fatal("Inject accepted an empty pattern")
	}
}

func TestInjectionLifecycle(t *testing.T) {
	engine := NewEngine(nil, 0)

	first, _ := engine.Inject("Cart*", false, false)
	second, _ := engine.Inject("User*", true, true)

	rules := engine.Injections()
	if len(rules) != 2 || rules[0].ID != first.ID || rules[1].ID != second.ID {
		t.Fatalf("Injections = %+v, want creation order", rules)
	}

	if !engine.RemoveInjection(first.ID) {
		t.Fatal("RemoveInjection of existing rule failed")
	}
	if engine.RemoveInjection(first.ID) {
		t.Fatal("RemoveInjection of deleted rule succeeded")
	}
	if _, ok := engine.ShouldTrace("CartService.addItem"); ok {
		t.Fatal("removed rule still matches")
	}

	engine.ClearInjections()
	if len(engine.Injections()) != 0 {
		t.Fatal("ClearInjections left rules behind")
	}
	engine.ClearInjections() // idempotent
}

func TestSetInjectionActive(t *testing.T) {
	engine := NewEngine(nil, 0)
	injection, _ := engine.Inject("Cart*", false, false)

	if !engine.SetInjectionActive(injection.ID, false) {
		t.Fatal("SetInjectionActive failed for an existing rule")
	}
	if _, ok := engine.ShouldTrace("CartService.addItem"); ok {
		t.Fatal("inactive rule still matches")
	}

	engine.SetInjectionActive(injection.ID, true)
	if _, ok := engine.ShouldTrace("CartService.addItem"); !ok {
		t.Fatal("re-activated rule does not match")
	}

	if engine.SetInjectionActive("no-such-id", true) {
		t.Fatal("SetInjectionActive succeeded for an unknown id")
	}
}

func TestClearTracesKeepsInjections(t *testing.T) {
	engine := NewEngine(nil, 0)
	engine.Inject("Cart*", false, false)

	engine.Clear()
	if len(engine.Injections()) != 1 {
		t.Fatal("Clear dropped injection rules; only traces should go")
	}
}
