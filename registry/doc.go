// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the named accessor stores the bridge
// exposes to a controller: application state, actions, UI components,
// navigation, feature flags, and network mocks.
//
// All registries share the same contract: names are unique within a
// registry, re-registering a name replaces the prior entry atomically,
// unregistering an absent name is a no-op, and reads evaluate the
// registered accessor at call time rather than returning a cached
// value. Every registry is safe for concurrent use from arbitrary
// application goroutines; operations on different entries never block
// each other beyond the brief map access, and racing operations on
// the same entry are linearizable (last registrant wins).
package registry
