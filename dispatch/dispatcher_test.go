// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gantry-dev/gantry/wire"
)

func TestDispatchRoutesToHandler(t *testing.T) {
	dispatcher := New()
	dispatcher.Register("ping", func(params map[string]any) (any, error) {
		return "pong", nil
	})

	result, err := dispatcher.Dispatch("ping", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "pong" {
		t.Fatalf("result = %v, want pong", result)
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	dispatcher := New()
	dispatcher.Register("execute_action", func(map[string]any) (any, error) { return nil, nil })

	_, err := dispatcher.Dispatch("execute_actoin", nil)
	if err == nil {
		t.Fatal("Dispatch of unknown method succeeded")
	}
	if err.Kind != KindUnknownMethod {
		t.Fatalf("kind = %s, want UnknownMethod", err.Kind)
	}
	if err.Code() != wire.CodeUnknownMethod {
		t.Fatalf("code = %d, want %d", err.Code(), wire.CodeUnknownMethod)
	}
	if !strings.Contains(err.Error(), `did you mean "execute_action"`) {
		t.Fatalf("error lacks typo suggestion: %s", err.Error())
	}
}

func TestDispatchNoSuggestionWhenNothingClose(t *testing.T) {
	dispatcher := New()
	dispatcher.Register("get_traces", func(map[string]any) (any, error) { return nil, nil })

	_, err := dispatcher.Dispatch("frobnicate", nil)
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("unexpected suggestion for distant name: %v", err)
	}
}

func TestDispatchWrapsPlainErrors(t *testing.T) {
	cause := errors.New("inventory empty")
	dispatcher := New()
	dispatcher.Register("execute_action", func(map[string]any) (any, error) {
		return nil, cause
	})

	_, err := dispatcher.Dispatch("execute_action", nil)
	if err == nil || err.Kind != KindActionFailed {
		t.Fatalf("err = %v, want ActionFailed", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved through wrap")
	}
	if err.Code() != wire.CodeHandlerFailed {
		t.Fatalf("code = %d, want %d", err.Code(), wire.CodeHandlerFailed)
	}
}

func TestDispatchPreservesTaggedErrors(t *testing.T) {
	dispatcher := New()
	dispatcher.Register("toggle_feature_flag", func(map[string]any) (any, error) {
		return nil, InvalidParams("missing required parameter %q", "name")
	})

	_, err := dispatcher.Dispatch("toggle_feature_flag", nil)
	if err == nil || err.Kind != KindInvalidParams {
		t.Fatalf("err = %v, want InvalidParams", err)
	}
	if err.Code() != wire.CodeInvalidParams {
		t.Fatalf("code = %d, want %d", err.Code(), wire.CodeInvalidParams)
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	dispatcher := New()
	dispatcher.Register("explode", func(map[string]any) (any, error) {
		panic("boom")
	})

	result, err := dispatcher.Dispatch("explode", nil)
	if result != nil {
		t.Fatalf("result = %v after panic, want nil", result)
	}
	if err == nil || err.Kind != KindActionFailed {
		t.Fatalf("err = %v, want ActionFailed", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("panic value lost: %s", err.Error())
	}
}

func TestDispatchConcurrentMethods(t *testing.T) {
	dispatcher := New()
	release := make(chan struct{})
	dispatcher.Register("slow", func(map[string]any) (any, error) {
		<-release
		return "slow", nil
	})
	dispatcher.Register("fast", func(map[string]any) (any, error) {
		return "fast", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Dispatch("slow", nil)
	}()

	// A second method must not be blocked behind the slow one: there
	// is no global dispatch lock.
	if result, err := dispatcher.Dispatch("fast", nil); err != nil || result != "fast" {
		t.Fatalf("fast dispatch blocked or failed: %v, %v", result, err)
	}

	close(release)
	wg.Wait()
}

func TestErrorMessageCarriesKindPrefix(t *testing.T) {
	err := SessionLost("session %q dropped mid-command", "dev-1")
	if !strings.HasPrefix(err.Error(), "SessionLost: ") {
		t.Fatalf("error = %q, want SessionLost prefix", err.Error())
	}
}

func TestParamHelpers(t *testing.T) {
	params := map[string]any{
		"action": "addToCart",
		"limit":  float64(5),
		"value":  true,
		"params": map[string]any{"productId": "p1"},
	}

	action, err := StringParam(params, "action")
	if err != nil || action != "addToCart" {
		t.Fatalf("StringParam = %q, %v", action, err)
	}
	if _, err := StringParam(params, "missing"); err == nil || err.Kind != KindInvalidParams {
		t.Fatalf("StringParam on missing key = %v, want InvalidParams", err)
	}

	limit, err := OptionalInt(params, "limit", 10)
	if err != nil || limit != 5 {
		t.Fatalf("OptionalInt = %d, %v", limit, err)
	}
	if fallback, err := OptionalInt(params, "absent", 10); err != nil || fallback != 10 {
		t.Fatalf("OptionalInt fallback = %d, %v", fallback, err)
	}
	if _, err := OptionalInt(map[string]any{"limit": 1.5}, "limit", 0); err == nil {
		t.Fatal("OptionalInt accepted a fractional value")
	}

	value, present, err := OptionalBool(params, "value")
	if err != nil || !present || !value {
		t.Fatalf("OptionalBool = %v, %v, %v", value, present, err)
	}
	if _, present, _ := OptionalBool(params, "absent"); present {
		t.Fatal("OptionalBool reported an absent key as present")
	}

	nested, err := OptionalMap(params, "params")
	if err != nil || nested["productId"] != "p1" {
		t.Fatalf("OptionalMap = %v, %v", nested, err)
	}
}
