// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_Empty(t *testing.T) {
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("   \n\t "))
	assert.NotNil(t, ExtractKeywords(""))
}

func TestExtractKeywords_FrequencyOrder(t *testing.T) {
	text := "Rust ownership basics. Rust uses ownership and borrowing to manage memory without garbage collection"

	keywords := ExtractKeywords(text)

	assert.Equal(t, []string{
		"rust", "ownership", "basics", "uses", "borrowing",
		"manage", "memory", "without", "garbage", "collection",
	}, keywords)
}

func TestExtractKeywords_TiesKeepFirstSeenOrder(t *testing.T) {
	keywords := ExtractKeywords("zeta alpha beta gamma")
	assert.Equal(t, []string{"zeta", "alpha", "beta", "gamma"}, keywords)

	// Deterministic across calls
	for i := 0; i < 10; i++ {
		assert.Equal(t, keywords, ExtractKeywords("zeta alpha beta gamma"))
	}
}

func TestExtractKeywords_Filters(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "short tokens dropped",
			text:     "go is fun and cool",
			expected: []string{"cool"},
		},
		{
			name:     "stop words dropped",
			text:     "there would their from with have that this will",
			expected: []string{},
		},
		{
			name:     "punctuation splits tokens",
			text:     "state-machine, event_loop!",
			expected: []string{"state", "machine", "event", "loop"},
		},
		{
			name:     "case folded",
			text:     "Kafka KAFKA kafka Broker",
			expected: []string{"kafka", "broker"},
		},
		{
			name:     "non ascii letters act as separators",
			text:     "caféteria naïve",
			expected: []string{"teria"},
		},
		{
			name:     "digits kept",
			text:     "http2 2024 release",
			expected: []string{"http2", "2024", "release"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractKeywords(tt.text))
		})
	}
}

func TestExtractKeywords_Limits(t *testing.T) {
	words := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		words = append(words, "word"+strings.Repeat("x", i))
	}

	keywords := ExtractKeywords(strings.Join(words, " "))

	assert.Len(t, keywords, MaxKeywords)
	for _, k := range keywords {
		assert.Greater(t, len(k), MinKeywordLength)
		assert.False(t, IsStopWord(k))
	}
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"rust", "memory", "safety"}, SplitKeywords("rust, memory ,safety"))
	assert.Empty(t, SplitKeywords(""))
	assert.Equal(t, []string{"a"}, SplitKeywords(" , a, "))
}

func TestUnionKeywords(t *testing.T) {
	union := UnionKeywords(
		[]string{"rust", "ownership", "memory"},
		[]string{"borrow", "rust", "checker", "borrow"},
	)

	assert.Equal(t, []string{"rust", "ownership", "memory", "borrow", "checker"}, union)
	assert.Equal(t, "rust, ownership, memory, borrow, checker", JoinKeywords(union))
}
