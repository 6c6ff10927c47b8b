// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package trace records function-level execution traces inside an
// instrumented application and stores the dynamic injection patterns
// that select which call names get auto-traced.
//
// An entry opens "active" when a call starts, completes when it
// returns, and then moves into a bounded history ring (oldest evicted
// first). Completion is id-keyed; a name-keyed convenience form
// exists for instrumentation that cannot thread the id through, with
// a documented ambiguity under concurrent same-name calls (see
// [Engine.Complete]).
//
// The engine only stores and evaluates injection patterns. Deciding
// where to call Start/Complete is the instrumentation's job — either
// a build-time source rewriter or a runtime call-site hook querying
// [Engine.ShouldTrace].
package trace
