// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"strings"
	"unicode"

	"github.com/pdiddy/lead-engine/pkg/types"
)

// heuristic is the deterministic local fallback: a lexical-overlap score
// (shared significant words between query and bio, weighted 0.3, plus
// shared-tag overlap weighted 0.2, on a 0.5 base) and a canned summary
// sentence reflecting the score band. It returns no supplemental tags,
// so the profile keeps exactly its pre-enrichment tag set.
func heuristic(query string, profile types.Profile) Enrichment {
	score := types.ClampScore(0.5 +
		0.3*wordOverlap(query, profile.Bio) +
		0.2*tagOverlap(query, profile.Tags))

	return Enrichment{
		FitSummary: fallbackSummary(profile.DisplayName(), score),
		Score:      score,
		Tags:       nil,
	}
}

// fallbackSummary picks the canned sentence for the score band.
func fallbackSummary(name string, score float64) string {
	switch {
	case score >= 0.7:
		return name + " looks like a strong match for the company profile based on keyword overlap."
	case score >= 0.55:
		return name + " shows moderate overlap with the company profile."
	default:
		return name + " has limited visible overlap with the company profile."
	}
}

// wordOverlap returns the fraction of significant query words (longer
// than three characters) that also appear in the bio.
func wordOverlap(query, bio string) float64 {
	queryWords := significantWords(query)
	if len(queryWords) == 0 || bio == "" {
		return 0
	}
	bioWords := significantWords(bio)

	shared := 0
	for w := range queryWords {
		if bioWords[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(queryWords))
}

// tagOverlap returns the fraction of profile tags that appear verbatim in
// the query text.
func tagOverlap(query string, profileTags []string) float64 {
	if len(profileTags) == 0 {
		return 0
	}
	lower := strings.ToLower(query)
	shared := 0
	for _, t := range profileTags {
		if strings.Contains(lower, t) {
			shared++
		}
	}
	return float64(shared) / float64(len(profileTags))
}

func significantWords(text string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	words := make(map[string]bool)
	for _, w := range strings.Fields(b.String()) {
		if len(w) > 3 {
			words[w] = true
		}
	}
	return words
}
