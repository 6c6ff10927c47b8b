// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sync"
	"time"

	"github.com/gantry-dev/gantry/lib/wildcard"
)

// DefaultRequestHistory is how many recent network requests the
// registry retains for list_network_requests.
const DefaultRequestHistory = 200

// MockResponse is a canned HTTP response returned instead of hitting
// the network.
type MockResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// MockRule pairs a URL pattern with its canned response, for listing.
type MockRule struct {
	Pattern  string       `json:"pattern"`
	Response MockResponse `json:"response"`
}

// RequestRecord is one observed outbound network request. The
// application's network layer reports these via RecordRequest so the
// controller can inspect recent traffic.
type RequestRecord struct {
	Method string    `json:"method"`
	URL    string    `json:"url"`
	Status int       `json:"status"`
	Mocked bool      `json:"mocked"`
	At     time.Time `json:"at"`
}

// mockEntry is one registered rule with its compiled matcher.
type mockEntry struct {
	source   string
	pattern  *wildcard.Pattern
	response MockResponse
}

// NetworkMockRegistry keys canned responses by URL wildcard pattern.
// Lookup tries rules in registration order; the first match wins, so
// a catch-all pattern registered last never shadows a specific one
// registered first.
type NetworkMockRegistry struct {
	mutex    sync.RWMutex
	mocks    []mockEntry
	requests []RequestRecord
	history  int
}

// NewNetworkMockRegistry creates an empty mock registry retaining
// DefaultRequestHistory observed requests.
func NewNetworkMockRegistry() *NetworkMockRegistry {
	return &NetworkMockRegistry{history: DefaultRequestHistory}
}

// Register binds pattern to response. Re-registering an identical
// pattern replaces the response in place, keeping its match priority.
// Returns an error only when the pattern fails to compile.
func (r *NetworkMockRegistry) Register(pattern string, response MockResponse) error {
	compiled, err := wildcard.Compile(pattern)
	if err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for i, entry := range r.mocks {
		if entry.source == pattern {
			r.mocks[i].response = response
			return nil
		}
	}
	r.mocks = append(r.mocks, mockEntry{source: pattern, pattern: compiled, response: response})
	return nil
}

// Unregister removes the rule with the exact given pattern, if any.
func (r *NetworkMockRegistry) Unregister(pattern string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for i, entry := range r.mocks {
		if entry.source == pattern {
			r.mocks = append(r.mocks[:i], r.mocks[i+1:]...)
			return
		}
	}
}

// Clear removes every rule.
func (r *NetworkMockRegistry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.mocks = nil
}

// Lookup returns the canned response for the first rule matching url,
// in registration order.
func (r *NetworkMockRegistry) Lookup(url string) (MockResponse, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, entry := range r.mocks {
		if entry.pattern.Match(url) {
			return entry.response, true
		}
	}
	return MockResponse{}, false
}

// Rules returns every rule in registration order.
func (r *NetworkMockRegistry) Rules() []MockRule {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	rules := make([]MockRule, len(r.mocks))
	for i, entry := range r.mocks {
		rules[i] = MockRule{Pattern: entry.source, Response: entry.response}
	}
	return rules
}

// RecordRequest logs one observed outbound request, evicting the
// oldest once the history bound is reached.
func (r *NetworkMockRegistry) RecordRequest(record RequestRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.requests = append(r.requests, record)
	if len(r.requests) > r.history {
		r.requests = r.requests[len(r.requests)-r.history:]
	}
}

// Requests returns up to limit recent requests, oldest first. limit
// <= 0 returns everything retained.
func (r *NetworkMockRegistry) Requests(limit int) []RequestRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	records := r.requests
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return append([]RequestRecord(nil), records...)
}
