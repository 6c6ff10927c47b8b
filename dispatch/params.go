// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "math"

// Param accessors for the string-keyed parameter maps carried by
// command frames. JSON decoding leaves numbers as float64 and nested
// objects as map[string]any; these helpers normalize that and report
// InvalidParams with the offending key on mismatch.

// StringParam returns a required string parameter.
func StringParam(params map[string]any, key string) (string, *Error) {
	value, present := params[key]
	if !present {
		return "", InvalidParams("missing required parameter %q", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", InvalidParams("parameter %q must be a string, got %T", key, value)
	}
	return s, nil
}

// OptionalString returns a string parameter or fallback when absent.
func OptionalString(params map[string]any, key, fallback string) (string, *Error) {
	if _, present := params[key]; !present {
		return fallback, nil
	}
	return StringParam(params, key)
}

// OptionalInt returns an integer parameter or fallback when absent.
// JSON numbers arrive as float64; fractional values are rejected.
func OptionalInt(params map[string]any, key string, fallback int) (int, *Error) {
	value, present := params[key]
	if !present {
		return fallback, nil
	}
	f, ok := value.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, InvalidParams("parameter %q must be an integer, got %v", key, value)
	}
	return int(f), nil
}

// OptionalBool returns a boolean parameter. The second return
// reports whether the key was present, which toggle-style methods
// need to distinguish "false" from "omitted".
func OptionalBool(params map[string]any, key string) (value bool, present bool, err *Error) {
	raw, ok := params[key]
	if !ok {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, true, InvalidParams("parameter %q must be a boolean, got %T", key, raw)
	}
	return b, true, nil
}

// OptionalMap returns a nested object parameter, or an empty map when
// absent.
func OptionalMap(params map[string]any, key string) (map[string]any, *Error) {
	value, present := params[key]
	if !present {
		return map[string]any{}, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, InvalidParams("parameter %q must be an object, got %T", key, value)
	}
	return m, nil
}
