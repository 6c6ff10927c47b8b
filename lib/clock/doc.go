// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects Real(); tests inject Fake() and advance time explicitly.
//
// The bridge's reconnect backoff and the coordinator's route timeouts
// are both driven through this interface, which is what makes the
// reconnect state machine testable without real sleeps: a test
// registers the pending timer with WaitForTimers and then fires it
// deterministically with Advance.
package clock
