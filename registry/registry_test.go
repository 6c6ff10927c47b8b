// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gantry-dev/gantry/dispatch"
)

func TestStateRegisterUnregisterGet(t *testing.T) {
	reg := NewStateRegistry()

	reg.Register("cart", func() any { return map[string]any{"items": 2} })
	value, ok := reg.Get("cart")
	if !ok {
		t.Fatal("Get after Register reported absent")
	}
	if value.(map[string]any)["items"] != 2 {
		t.Fatalf("Get = %v", value)
	}

	reg.Unregister("cart")
	if _, ok := reg.Get("cart"); ok {
		t.Fatal("Get after Unregister reported present")
	}

	// Unregistering an absent name is a no-op, not an error.
	reg.Unregister("cart")
}

func TestStateAccessorEvaluatedLazily(t *testing.T) {
	reg := NewStateRegistry()

	count := 0
	reg.Register("counter", func() any { count++; return count })

	if value, _ := reg.Get("counter"); value != 1 {
		t.Fatalf("first Get = %v, want 1", value)
	}
	if value, _ := reg.Get("counter"); value != 2 {
		t.Fatalf("second Get = %v, want 2: accessor result was cached", value)
	}
}

func TestStateReRegisterReplacesAtomically(t *testing.T) {
	reg := NewStateRegistry()
	reg.Register("user", func() any { return "old" })
	reg.Register("user", func() any { return "new" })

	if value, _ := reg.Get("user"); value != "new" {
		t.Fatalf("Get after re-register = %v, want new", value)
	}
}

func TestStateConcurrentRegisterSameName(t *testing.T) {
	reg := NewStateRegistry()

	// Racing registrations of the same name must be linearizable:
	// afterwards Get returns one of the registered accessors' values,
	// never a torn mix.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		value := fmt.Sprintf("v%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Register("contested", func() any { return value })
		}()
	}
	wg.Wait()

	got, ok := reg.Get("contested")
	if !ok {
		t.Fatal("entry vanished after concurrent registration")
	}
	if _, isString := got.(string); !isString {
		t.Fatalf("Get = %v (%T), want one registered value", got, got)
	}
}

func TestStateAll(t *testing.T) {
	reg := NewStateRegistry()
	reg.Register("a", func() any { return 1 })
	reg.Register("b", func() any { return 2 })

	all := reg.All()
	if len(all) != 2 || all["a"] != 1 || all["b"] != 2 {
		t.Fatalf("All = %v", all)
	}
}

func TestActionInvoke(t *testing.T) {
	reg := NewActionRegistry()
	reg.Register("addToCart", func(params map[string]any) (any, error) {
		return map[string]any{"added": params["productId"]}, nil
	})

	result, err := reg.Invoke("addToCart", map[string]any{"productId": "p1"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.(map[string]any)["added"] != "p1" {
		t.Fatalf("result = %v", result)
	}
}

func TestActionInvokeUnknown(t *testing.T) {
	reg := NewActionRegistry()
	reg.Register("addToCart", func(map[string]any) (any, error) { return nil, nil })

	_, err := reg.Invoke("addToCrat", nil)
	var tagged *dispatch.Error
	if !errors.As(err, &tagged) || tagged.Kind != dispatch.KindUnknownAction {
		t.Fatalf("err = %v, want UnknownAction", err)
	}
}

func TestActionInvokeFailure(t *testing.T) {
	cause := errors.New("out of stock")
	reg := NewActionRegistry()
	reg.Register("addToCart", func(map[string]any) (any, error) { return nil, cause })

	_, err := reg.Invoke("addToCart", nil)
	var tagged *dispatch.Error
	if !errors.As(err, &tagged) || tagged.Kind != dispatch.KindActionFailed {
		t.Fatalf("err = %v, want ActionFailed", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost through wrap")
	}
}

func TestActionInvokePanicIsActionFailed(t *testing.T) {
	reg := NewActionRegistry()
	reg.Register("explode", func(map[string]any) (any, error) { panic("kaboom") })

	result, err := reg.Invoke("explode", nil)
	if result != nil {
		t.Fatalf("result = %v after panic", result)
	}
	var tagged *dispatch.Error
	if !errors.As(err, &tagged) || tagged.Kind != dispatch.KindActionFailed {
		t.Fatalf("err = %v, want ActionFailed", err)
	}
}

func TestComponentSnapshotEvaluated(t *testing.T) {
	reg := NewComponentRegistry()

	items := 0
	reg.Register("cartBadge", ComponentEntry{
		Snapshot: func() ComponentNode {
			items++
			return ComponentNode{ID: "cartBadge", Kind: "badge", Props: map[string]any{"count": items}}
		},
	})
	reg.Register("header", ComponentEntry{
		Descriptor: ComponentNode{ID: "header", Kind: "toolbar"},
	})

	node, ok := reg.Get("cartBadge")
	if !ok || node.Props["count"] != 1 {
		t.Fatalf("Get = %+v, %v", node, ok)
	}

	tree := reg.Tree()
	if len(tree) != 2 {
		t.Fatalf("Tree has %d roots, want 2", len(tree))
	}
	if tree[0].Props["count"] != 2 {
		t.Fatalf("snapshot not re-evaluated: %+v", tree[0])
	}
	if tree[1].ID != "header" {
		t.Fatalf("descriptor entry lost: %+v", tree[1])
	}
}

func TestNavigationStack(t *testing.T) {
	reg := NewNavigationRegistry()

	if reg.Current() != "" {
		t.Fatal("empty stack has a current route")
	}

	reg.Push("home")
	reg.Push("product/p1")
	if reg.Current() != "product/p1" {
		t.Fatalf("Current = %q", reg.Current())
	}

	route, ok := reg.Pop()
	if !ok || route != "product/p1" {
		t.Fatalf("Pop = %q, %v", route, ok)
	}
	if reg.Current() != "home" {
		t.Fatalf("Current after Pop = %q", reg.Current())
	}

	reg.Reset("login")
	state := reg.State()
	if state["current"] != "login" {
		t.Fatalf("State after Reset = %v", state)
	}
}

func TestNavigationAccessors(t *testing.T) {
	reg := NewNavigationRegistry()
	reg.Push("home")
	reg.Register("activeTab", func() any { return "deals" })

	state := reg.State()
	extra, ok := state["extra"].(map[string]any)
	if !ok || extra["activeTab"] != "deals" {
		t.Fatalf("State = %v", state)
	}
}

func TestFlagToggle(t *testing.T) {
	reg := NewFlagRegistry()
	reg.RegisterAll(map[string]bool{"darkMode": false, "newCheckout": true})

	// Omitted value inverts.
	value, ok := reg.Toggle("darkMode", nil)
	if !ok || !value {
		t.Fatalf("Toggle(darkMode, nil) = %v, %v", value, ok)
	}

	// Explicit value sets.
	explicit := false
	value, ok = reg.Toggle("newCheckout", &explicit)
	if !ok || value {
		t.Fatalf("Toggle(newCheckout, false) = %v, %v", value, ok)
	}

	if _, ok := reg.Toggle("unknown", nil); ok {
		t.Fatal("Toggle of unregistered flag succeeded")
	}

	all := reg.All()
	if !all["darkMode"] || all["newCheckout"] {
		t.Fatalf("All = %v", all)
	}
}

func TestNetworkMockFirstMatchWins(t *testing.T) {
	reg := NewNetworkMockRegistry()

	if err := reg.Register("https://api.example.com/v1/cart*", MockResponse{Status: 200, Body: `{"items":[]}`}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("https://api.example.com/*", MockResponse{Status: 503}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	response, ok := reg.Lookup("https://api.example.com/v1/cart?user=1")
	if !ok || response.Status != 200 {
		t.Fatalf("Lookup = %+v, %v; want the earlier, more specific rule", response, ok)
	}

	response, ok = reg.Lookup("https://api.example.com/v1/users")
	if !ok || response.Status != 503 {
		t.Fatalf("Lookup fallback = %+v, %v", response, ok)
	}

	if _, ok := reg.Lookup("https://other.example.com/"); ok {
		t.Fatal("Lookup matched an unrelated URL")
	}
}

func TestNetworkMockReRegisterKeepsPriority(t *testing.T) {
	reg := NewNetworkMockRegistry()
	reg.Register("https://api.example.com/v1/*", MockResponse{Status: 200})
	reg.Register("https://api.example.com/*", MockResponse{Status: 404})
	reg.Register("https://api.example.com/v1/*", MockResponse{Status: 201})

	response, ok := reg.Lookup("https://api.example.com/v1/cart")
	if !ok || response.Status != 201 {
		t.Fatalf("Lookup = %+v, %v; replaced rule lost its priority", response, ok)
	}
}

func TestNetworkMockInvalidPattern(t *testing.T) {
	reg := NewNetworkMockRegistry()
	if err := reg.Register("", MockResponse{}); err == nil {
		t.Fatal("Register accepted an empty pattern")
	}
}

func TestRequestHistoryBounded(t *testing.T) {
	reg := NewNetworkMockRegistry()
	reg.history = 3
	for i := 0; i < 5; i++ {
		reg.RecordRequest(RequestRecord{URL: fmt.Sprintf("https://api/%d", i)})
	}

	records := reg.Requests(0)
	if len(records) != 3 {
		t.Fatalf("retained %d records, want 3", len(records))
	}
	if records[0].URL != "https://api/2" || records[2].URL != "https://api/4" {
		t.Fatalf("retained window wrong: %v", records)
	}

	if got := reg.Requests(1); len(got) != 1 || got[0].URL != "https://api/4" {
		t.Fatalf("Requests(1) = %v, want most recent", got)
	}
}
