// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package analysis

// CalculateSimilarity returns the Jaccard index of the distinct keyword sets
// of a and b, in [0,1]. Empty inputs, or inputs without keywords, score 0.
func CalculateSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	setA := keywordSet(ExtractKeywords(a))
	setB := keywordSet(ExtractKeywords(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for k := range setA {
		if setB[k] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func keywordSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return set
}
