// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/gantry-dev/gantry/wire"
)

// Kind classifies a bridge error so the controller can make
// programmatic decisions (retry, fix input, escalate) without parsing
// message text. The kind is carried as a prefix of the error message
// and surfaced verbatim by the controller.
type Kind string

const (
	// KindUnknownMethod indicates the method name matched nothing in
	// the dispatch table.
	KindUnknownMethod Kind = "UnknownMethod"

	// KindUnknownAction indicates execute_action named an action that
	// is not registered.
	KindUnknownAction Kind = "UnknownAction"

	// KindActionFailed indicates a registered handler ran and failed,
	// or panicked. The cause travels in the message.
	KindActionFailed Kind = "ActionFailed"

	// KindInvalidParams indicates a missing or wrongly-typed request
	// parameter. The caller should fix the request and retry.
	KindInvalidParams Kind = "InvalidParams"

	// KindSessionLost indicates the session dropped while a command
	// was in flight. The command's outcome on the application side is
	// genuinely unknown; callers must not assume it took effect.
	KindSessionLost Kind = "SessionLost"

	// KindSessionNotFound indicates a stale session ID: the session
	// disconnected before the command was routed.
	KindSessionNotFound Kind = "SessionNotFound"

	// KindNotInitialized indicates a capability the application never
	// wired up, like screenshot capture without a capture delegate.
	KindNotInitialized Kind = "NotInitialized"
)

// Error is a taxonomy-tagged bridge error. Use the kind-specific
// constructors rather than building one directly.
type Error struct {
	Kind Kind
	Err  error
}

// Error returns "Kind: message" — the exact string the controller
// surfaces to its caller.
func (e *Error) Error() string { return string(e.Kind) + ": " + e.Err.Error() }

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Code maps the kind to its JSON-RPC error code. UnknownMethod keeps
// the standard method-not-found code; invalid parameters keep the
// standard invalid-params code; everything else uses the reserved
// generic handler-failure code.
func (e *Error) Code() int {
	switch e.Kind {
	case KindUnknownMethod:
		return wire.CodeUnknownMethod
	case KindInvalidParams:
		return wire.CodeInvalidParams
	default:
		return wire.CodeHandlerFailed
	}
}

// UnknownMethod builds the error for an unrecognized method name,
// appending a "did you mean" hint when a known method is close.
func UnknownMethod(method string, known []string) *Error {
	message := fmt.Sprintf("no handler for method %q", method)
	if suggestion := closest(method, known); suggestion != "" {
		message += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return &Error{Kind: KindUnknownMethod, Err: fmt.Errorf("%s", message)}
}

// UnknownAction builds the error for an unregistered action name,
// with the same typo hint as UnknownMethod.
func UnknownAction(action string, known []string) *Error {
	message := fmt.Sprintf("no action registered as %q", action)
	if suggestion := closest(action, known); suggestion != "" {
		message += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return &Error{Kind: KindUnknownAction, Err: fmt.Errorf("%s", message)}
}

// ActionFailed wraps a handler failure.
func ActionFailed(cause error) *Error {
	return &Error{Kind: KindActionFailed, Err: cause}
}

// InvalidParams builds a parameter validation error.
func InvalidParams(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParams, Err: fmt.Errorf(format, args...)}
}

// SessionLost builds the error resolved onto in-flight commands when
// their session drops.
func SessionLost(format string, args ...any) *Error {
	return &Error{Kind: KindSessionLost, Err: fmt.Errorf(format, args...)}
}

// SessionNotFound builds the error for routing to a stale session ID.
func SessionNotFound(sessionID string) *Error {
	return &Error{Kind: KindSessionNotFound, Err: fmt.Errorf("no session %q", sessionID)}
}

// NotInitialized builds the error for a capability the application
// did not wire up.
func NotInitialized(format string, args ...any) *Error {
	return &Error{Kind: KindNotInitialized, Err: fmt.Errorf(format, args...)}
}

// closest returns the known name nearest to unknown, or "" when
// nothing is within edit distance 3. Distance 3 catches the common
// typos (transpositions, dropped characters, extra characters)
// without suggesting unrelated names.
func closest(unknown string, known []string) string {
	bestName := ""
	bestDistance := 4
	for _, candidate := range known {
		distance := levenshtein.ComputeDistance(unknown, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestName = candidate
		}
	}
	return bestName
}
