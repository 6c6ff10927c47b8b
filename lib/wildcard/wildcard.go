// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package wildcard compiles `*` glob patterns into anchored matchers.
// The same syntax is shared by trace injection patterns
// ("Cart*.add*") and network mock URL patterns
// ("https://api.example.com/v1/*").
package wildcard

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled wildcard pattern. The zero value is not
// usable; obtain one from Compile.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile turns a glob pattern into a matcher. Every regexp
// metacharacter in the input is escaped except `*`, which matches any
// run of characters (including none). The match is anchored to the
// full string: "Cart*" matches "CartService" but not "MyCartService".
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("wildcard: empty pattern")
	}

	var expr strings.Builder
	expr.WriteString("^")
	for _, segment := range strings.Split(pattern, "*") {
		expr.WriteString(regexp.QuoteMeta(segment))
		expr.WriteString(".*")
	}
	// Split produces one trailing segment past the last `*`; drop the
	// surplus ".*" appended after it.
	anchored := strings.TrimSuffix(expr.String(), ".*") + "$"

	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, fmt.Errorf("wildcard: compiling %q: %w", pattern, err)
	}
	return &Pattern{source: pattern, re: re}, nil
}

// MustCompile is Compile but panics on error. For patterns that are
// program constants.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches the full pattern.
func (p *Pattern) Match(name string) bool { return p.re.MatchString(name) }

// String returns the original glob source, not the compiled regexp.
func (p *Pattern) String() string { return p.source }
