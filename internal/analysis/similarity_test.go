// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{"identical", "rust ownership memory", "rust ownership memory", 1.0},
		{"duplicates collapse", "rust rust rust memory", "memory rust", 1.0},
		{"disjoint", "rust ownership", "banana bread", 0.0},
		{"half overlap", "rust ownership", "rust memory", 1.0 / 3.0},
		{"empty left", "", "rust", 0.0},
		{"empty right", "rust", "", 0.0},
		{"no keywords", "a an the", "the an a", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCalculateSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Rust uses ownership and borrowing", "The borrow checker enforces ownership rules"},
		{"Mix flour sugar bananas", "bananas bread recipe"},
		{"", "anything goes here"},
		{"kafka brokers replicate partitions", "partitions replicate across kafka brokers quickly"},
	}

	for _, p := range pairs {
		assert.Equal(t, CalculateSimilarity(p[0], p[1]), CalculateSimilarity(p[1], p[0]))
	}
}

func TestCalculateSimilarity_SharedRustTopic(t *testing.T) {
	memoryText := "rust, ownership, basics, uses, borrowing, manage, memory, without, garbage, collection " +
		"rust, ownership, basics, uses, borrowing, manage, memory, without, garbage, collection"
	incoming := ExtractContext("Borrow checker deep dive", "", "The borrow checker enforces ownership rules at compile time in rust")

	// rust and ownership are shared; borrow and borrowing are distinct tokens
	assert.InDelta(t, 2.0/18.0, CalculateSimilarity(incoming, memoryText), 1e-9)

	unrelated := ExtractContext("Banana bread recipe", "", "Mix flour sugar bananas and bake at 350 degrees")
	assert.Equal(t, 0.0, CalculateSimilarity(unrelated, memoryText))
}
