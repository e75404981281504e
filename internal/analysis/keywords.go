// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package analysis derives lexical signals from free text: ranked keywords,
// short topic contexts, bounded summaries and keyword-set similarity.
package analysis

import (
	"sort"
	"strings"
)

const (
	// MaxKeywords is the maximum number of keywords ExtractKeywords returns
	MaxKeywords = 15
	// MinKeywordLength is the minimum token length kept as a keyword (exclusive)
	MinKeywordLength = 3
)

// stopWords is the closed set of English function words never used as keywords
var stopWords = map[string]bool{
	"the": true, "be": true, "to": true, "of": true, "and": true,
	"a": true, "in": true, "that": true, "have": true, "i": true,
	"it": true, "for": true, "not": true, "on": true, "with": true,
	"he": true, "as": true, "you": true, "do": true, "at": true,
	"this": true, "but": true, "his": true, "by": true, "from": true,
	"they": true, "we": true, "say": true, "her": true, "she": true,
	"or": true, "an": true, "will": true, "my": true, "one": true,
	"all": true, "would": true, "there": true, "their": true, "is": true,
}

// IsStopWord reports whether word is in the stop-word set
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Tokenize lower-cases text and splits it on every run of characters that
// are not ASCII letters or digits
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isASCIIAlnum(r)
	})
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// ExtractKeywords returns up to MaxKeywords salient words of text ordered by
// descending frequency. Equal frequencies keep first-seen order.
func ExtractKeywords(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, token := range Tokenize(text) {
		if len(token) <= MinKeywordLength || stopWords[token] {
			continue
		}
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}
	return order
}

// SplitKeywords parses a comma-joined keyword list, trimming whitespace and
// dropping empty entries
func SplitKeywords(joined string) []string {
	parts := strings.Split(joined, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// JoinKeywords joins keywords with ", "
func JoinKeywords(keywords []string) string {
	return strings.Join(keywords, ", ")
}

// UnionKeywords returns existing followed by every entry of added not already
// present. Duplicates inside either list collapse.
func UnionKeywords(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	union := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, k := range list {
			if seen[k] {
				continue
			}
			seen[k] = true
			union = append(union, k)
		}
	}
	return union
}
