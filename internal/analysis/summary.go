// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package analysis

import (
	"regexp"
	"strings"
)

const (
	// ContextKeywords is the number of keywords joined into a topic context
	ContextKeywords = 10
	// GeneralContext is returned when text yields no keywords at all
	GeneralContext = "General content"
	// MinSentenceLength is the length a sentence must exceed to enter a summary
	MinSentenceLength = 10

	ellipsis = "..."
)

// sentenceTerminators splits text on runs of '.', '!' and '?'
var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// ExtractContext derives the short topic descriptor of a piece of content
// from its optional title, description and body
func ExtractContext(title, description, body string) string {
	keywords := ExtractKeywords(JoinFields(" ", title, description, body))
	if len(keywords) == 0 {
		return GeneralContext
	}
	if len(keywords) > ContextKeywords {
		keywords = keywords[:ContextKeywords]
	}
	return JoinKeywords(keywords)
}

// JoinFields joins the fields with sep. Absent fields are empty strings and
// still receive their separator.
func JoinFields(sep string, fields ...string) string {
	return strings.Join(fields, sep)
}

// GenerateSummary assembles leading sentences of text into a summary no
// longer than maxLength characters
func GenerateSummary(text string, maxLength int) string {
	if strings.TrimSpace(text) == "" || maxLength <= 0 {
		return ""
	}

	var summary strings.Builder
	summaryLen := 0
	for _, sentence := range sentenceTerminators.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		sentenceLen := runeLen(sentence)
		if sentenceLen <= MinSentenceLength {
			continue
		}
		if summaryLen+sentenceLen > maxLength {
			break
		}
		if summaryLen > 0 {
			summary.WriteString(". ")
			summaryLen += 2
		}
		summary.WriteString(sentence)
		summaryLen += sentenceLen
	}

	if summaryLen == 0 {
		return truncateRunes(text, maxLength)
	}
	if summaryLen > maxLength {
		if maxLength <= len(ellipsis) {
			return truncateRunes(summary.String(), maxLength)
		}
		return truncateRunes(summary.String(), maxLength-len(ellipsis)) + ellipsis
	}
	return summary.String()
}

// Truncate returns the first n characters of s, or s when it is shorter
func Truncate(s string, n int) string {
	return truncateRunes(s, n)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func runeLen(s string) int {
	return len([]rune(s))
}
