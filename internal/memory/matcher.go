// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/tejzpr/memorybook/internal/analysis"
	"github.com/tejzpr/memorybook/internal/database"
)

// DefaultSimilarityThreshold is the minimum score for a memory to match
const DefaultSimilarityThreshold = 0.3

// Match is a candidate memory with its similarity to the incoming context
type Match struct {
	Memory     database.Memory
	Similarity float64
}

// Matcher ranks a user's memories against a topic context. It only reads.
type Matcher struct {
	store     Store
	threshold float64
}

// NewMatcher creates a matcher. A non-positive threshold selects the default.
func NewMatcher(store Store, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Matcher{store: store, threshold: threshold}
}

// Threshold returns the similarity a memory must reach to match
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// FindSimilarMemories returns the user's memories scoring at least the
// threshold against topicContext, best first. Ties fall back to relevance.
func (m *Matcher) FindSimilarMemories(ctx context.Context, userID uint, topicContext string) ([]Match, error) {
	memories, err := m.store.ListMemoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	matches := make([]Match, 0, len(memories))
	for _, mem := range memories {
		score := analysis.CalculateSimilarity(topicContext, mem.Context+" "+mem.Keywords)
		if score >= m.threshold {
			matches = append(matches, Match{Memory: mem, Similarity: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Memory.RelevanceScore > matches[j].Memory.RelevanceScore
	})

	return matches, nil
}

// FindMostSimilarMemory returns the best match, or nil when nothing reaches
// the threshold
func (m *Matcher) FindMostSimilarMemory(ctx context.Context, userID uint, topicContext string) (*Match, error) {
	matches, err := m.FindSimilarMemories(ctx, userID, topicContext)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}
