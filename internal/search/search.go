// Package search filters panel rows by name.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// MatchResult is one matching row
type MatchResult struct {
	Index          int   // position in the input
	MatchedIndexes []int // rune positions that matched, for highlighting
}

// Filter matches query against names. A query starting with a single quote
// is an exact substring match in input order; anything else is a fuzzy match
// ordered best first. An empty query matches nothing.
func Filter(query string, names []string) []MatchResult {
	if exact, ok := strings.CutPrefix(query, "'"); ok {
		return SubstringMatchNames(exact, names)
	}
	return FuzzyMatchNames(query, names)
}

// FuzzyMatchNames ranks names by how well they fuzzy-match query.
func FuzzyMatchNames(query string, names []string) []MatchResult {
	if query == "" {
		return nil
	}

	matches := fuzzy.Find(query, names)
	results := make([]MatchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, MatchResult{
			Index:          match.Index,
			MatchedIndexes: match.MatchedIndexes,
		})
	}
	return results
}

// SubstringMatchNames performs case-insensitive substring matching on a list of names
// Returns the indices of matches and their matched character positions
func SubstringMatchNames(query string, names []string) []MatchResult {
	if query == "" {
		return nil
	}

	lowerQuery := []rune(strings.ToLower(query))
	var results []MatchResult

	for i, name := range names {
		lowerName := []rune(strings.ToLower(name))
		idx := runeIndex(lowerName, lowerQuery)
		if idx == -1 {
			continue
		}
		matchedIndexes := make([]int, len(lowerQuery))
		for j := range lowerQuery {
			matchedIndexes[j] = idx + j
		}
		results = append(results, MatchResult{
			Index:          i,
			MatchedIndexes: matchedIndexes,
		})
	}

	return results
}

// runeIndex is strings.Index over runes, so positions line up with the
// rune offsets the renderer highlights.
func runeIndex(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
