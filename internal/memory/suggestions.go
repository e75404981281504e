// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"strings"

	"github.com/tejzpr/memorybook/internal/analysis"
	"github.com/tejzpr/memorybook/internal/database"
)

const (
	maxSuggestedTitles   = 3
	suggestedKeywordsLen = 50
)

// GenerateSuggestions builds the reader-facing hint text for a memory from
// its relevance, up to three related titles and its keyword list
func GenerateSuggestions(m *database.Memory, relatedTitles []string) string {
	var b strings.Builder

	if m.RelevanceScore > 1 {
		fmt.Fprintf(&b, "This topic has been referenced %d times. ", m.RelevanceScore)
	}

	if len(relatedTitles) > 0 {
		titles := relatedTitles
		if len(titles) > maxSuggestedTitles {
			titles = titles[:maxSuggestedTitles]
		}
		quoted := make([]string, len(titles))
		for i, t := range titles {
			quoted[i] = "'" + t + "'"
		}
		b.WriteString("Related content you've shared: ")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(". ")
	}

	if m.Keywords != "" {
		b.WriteString("Consider exploring more about: ")
		b.WriteString(analysis.Truncate(m.Keywords, suggestedKeywordsLen))
		b.WriteString(".")
	}

	return strings.TrimSpace(b.String())
}
