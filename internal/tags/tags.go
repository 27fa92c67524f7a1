// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tags extracts a bounded set of normalized keyword tags from free
// text (bios, display names). It is a crude frequency ranker, not NLP: no
// stemming, no phrase detection, no synonym folding. Fuzzy tag equivalence
// is the scorer's job.
package tags

import (
	"sort"
	"strings"
	"unicode"
)

// MaxTags bounds the number of tags Extract returns.
const MaxTags = 10

// stopwords are dropped before frequency counting.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "has": true,
	"have": true, "about": true, "into": true, "over": true, "who": true,
	"you": true, "your": true, "our": true, "their": true, "its": true,
	"all": true, "can": true, "will": true, "not": true, "but": true,
	"out": true, "also": true, "more": true, "than": true, "when": true,
	"where": true, "what": true, "how": true, "they": true, "them": true,
}

// Extract lowercases text, strips unsafe characters while keeping '#', '+',
// '.', and '-' intact (so "c++", "c#", ".net", and hyphenated terms
// survive), drops stopwords, pure numbers, and single characters, and
// returns up to MaxTags distinct tokens ordered by descending frequency.
// Ties keep first-occurrence order. Deterministic: identical input yields
// identical output.
func Extract(text string) []string {
	counts := make(map[string]int)
	var order []string

	for _, tok := range strings.Fields(sanitize(text)) {
		tok = strings.TrimRight(tok, ".-")
		if len(tok) <= 1 || stopwords[tok] || isNumeric(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > MaxTags {
		order = order[:MaxTags]
	}
	return order
}

// sanitize lowercases and removes every rune outside letters, digits,
// whitespace, and the safe set {#, +, ., -}.
func sanitize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '#' || r == '+' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isNumeric reports whether the token is digits only.
func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(tok) > 0
}
