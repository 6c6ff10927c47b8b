// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package wildcard

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"Cart*.add*", "CartService.addItem", true},
		{"Cart*.add*", "CartX.addFoo", true},
		{"Cart*.add*", "UserService.addItem", false},
		{"Cart*.add*", "CartService.removeItem", false},
		{"CartService.addItem", "CartService.addItem", true},
		{"Cart*", "CartService", true},
		{"Cart*", "MyCartService", false},
		{"*", "anything.at.all", true},
		{"*Service*", "UserService.login", true},
		// Dots are literal, not regexp wildcards.
		{"a.b", "aXb", false},
		{"https://api.example.com/v1/*", "https://api.example.com/v1/cart", true},
		{"https://api.example.com/v1/*", "https://apiXexample.com/v1/cart", false},
	}

	for _, test := range tests {
		pattern, err := Compile(test.pattern)
		if err != nil {
			t.Fatalf("Compile(%q): %v", test.pattern, err)
		}
		if got := pattern.Match(test.name); got != test.want {
			t.Errorf("Compile(%q).Match(%q) = %v, want %v", test.pattern, test.name, got, test.want)
		}
	}
}

func TestCompileEmptyPattern(t *testing.T) {
	if _, err := Compile(""); err == nil {
		t.Fatal("Compile(\"\") succeeded, want error")
	}
}

func TestStringReturnsSource(t *testing.T) {
	pattern := MustCompile("Cart*.add*")
	if got := pattern.String(); got != "Cart*.add*" {
		t.Fatalf("String() = %q, want the glob source", got)
	}
}
