// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tejzpr/memorybook/internal/database"
)

func TestGenerateSuggestions(t *testing.T) {
	tests := []struct {
		name     string
		memory   database.Memory
		titles   []string
		expected string
	}{
		{
			name:     "empty memory",
			memory:   database.Memory{RelevanceScore: 1},
			expected: "",
		},
		{
			name:     "keywords only",
			memory:   database.Memory{RelevanceScore: 1, Keywords: "rust, memory"},
			expected: "Consider exploring more about: rust, memory.",
		},
		{
			name:     "relevance counted above one",
			memory:   database.Memory{RelevanceScore: 3},
			expected: "This topic has been referenced 3 times.",
		},
		{
			name:   "titles capped at three",
			memory: database.Memory{RelevanceScore: 4},
			titles: []string{"One", "Two", "Three", "Four"},
			expected: "This topic has been referenced 4 times. " +
				"Related content you've shared: 'One', 'Two', 'Three'.",
		},
		{
			name:   "keywords cut at fifty characters",
			memory: database.Memory{RelevanceScore: 2, Keywords: "alpha, bravo, charlie, delta, echo, foxtrot, golf, hotel, india"},
			titles: []string{"Phonetics"},
			expected: "This topic has been referenced 2 times. " +
				"Related content you've shared: 'Phonetics'. " +
				"Consider exploring more about: alpha, bravo, charlie, delta, echo, foxtrot, golf,.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateSuggestions(&tt.memory, tt.titles))
		})
	}
}
