// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match computes a composite fit score for a (query, profile)
// pair by blending tag overlap, lexical bio similarity, embedding cosine
// similarity, platform appropriateness, and recency.
package match

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/lead-engine/internal/tags"
	"github.com/pdiddy/lead-engine/pkg/types"
)

// Component weights. They do not sum to 1.0 by construction: the vector
// weight is simply omitted (not renormalized) when embeddings are
// unavailable, and the base-profile-score term stacks on top, so the sum
// can exceed 1.0 before the final clamp. The clamp is the invariant.
const (
	weightTags     = 0.30
	weightBio      = 0.25
	weightVector   = 0.30
	weightPlatform = 0.10
	weightRecency  = 0.05
	weightBase     = 0.20
)

// Reason display thresholds. A component below its threshold still
// contributes to the score; it just stays out of the justification list.
const (
	reasonTagThreshold      = 0.0
	reasonBioThreshold      = 0.3
	reasonVectorThreshold   = 0.5
	reasonPlatformThreshold = 0.5
	reasonRecencyThreshold  = 0.8
)

// synonymGroups defines fuzzy tag equivalence classes. Two tags in the
// same group match even without lexical overlap.
var synonymGroups = [][]string{
	{"ai", "ml", "machine learning", "artificial intelligence"},
	{"saas", "subscription"},
	{"developer", "dev", "programmer", "coder"},
	{"javascript", "js"},
	{"typescript", "ts"},
	{"golang", "go"},
	{"kubernetes", "k8s"},
	{"frontend", "front-end", "ui"},
	{"backend", "back-end"},
}

// platformHeuristic scores how appropriate a platform is for a query:
// high when the query mentions any trigger keyword, low otherwise.
type platformHeuristic struct {
	keywords  []string
	high, low float64
}

var platformHeuristics = map[types.Platform]platformHeuristic{
	types.PlatformGitHub: {
		keywords: []string{"developer", "engineer", "code", "software", "open source", "technical", "programming"},
		high:     0.9, low: 0.3,
	},
	types.PlatformTwitter: {
		keywords: []string{"community", "audience", "content", "public", "marketing", "brand"},
		high:     0.8, low: 0.5,
	},
	types.PlatformLinkedIn: {
		keywords: []string{"business", "sales", "enterprise", "b2b", "professional", "hiring"},
		high:     0.9, low: 0.6,
	},
	types.PlatformSubstack: {
		keywords: []string{"writer", "newsletter", "writing", "essay", "publication"},
		high:     0.8, low: 0.4,
	},
}

// Scorer computes MatchScores. The synonym table is injectable so tests
// can substitute a smaller fixture.
type Scorer struct {
	synonyms map[string][]string
	now      func() time.Time
}

// NewScorer builds a Scorer with the production synonym table.
func NewScorer() *Scorer {
	return NewScorerWithSynonyms(synonymGroups)
}

// NewScorerWithSynonyms builds a Scorer with an explicit synonym table.
func NewScorerWithSynonyms(groups [][]string) *Scorer {
	syn := make(map[string][]string)
	for _, group := range groups {
		for _, term := range group {
			syn[term] = group
		}
	}
	return &Scorer{synonyms: syn, now: time.Now}
}

// Score blends the weighted components into a single clamped score.
// queryVec and profileVec may be nil, in which case the vector component
// is omitted entirely (the total is then structurally capped below 1.0
// before the base term).
func (s *Scorer) Score(queryText string, profile types.Profile, queryVec, profileVec []float64) types.MatchScore {
	var total float64
	var reasons []string

	queryTags := tags.Extract(queryText)

	tagScore, matched := s.tagMatchScore(queryTags, profile.Tags)
	total += tagScore * weightTags
	if tagScore > reasonTagThreshold {
		reasons = append(reasons, fmt.Sprintf("shares %d relevant tag(s) with the query", matched))
	}

	bioScore := lexicalSimilarity(queryText, profile.Bio)
	total += bioScore * weightBio
	if bioScore > reasonBioThreshold {
		reasons = append(reasons, "bio overlaps strongly with the company description")
	}

	if queryVec != nil && profileVec != nil {
		vecScore := CosineSimilarity(queryVec, profileVec)
		total += vecScore * weightVector
		if vecScore > reasonVectorThreshold {
			reasons = append(reasons, "semantic embedding similarity is high")
		}
	}

	platScore := s.platformScore(queryText, profile.Platform)
	total += platScore * weightPlatform
	if platScore > reasonPlatformThreshold {
		reasons = append(reasons, fmt.Sprintf("%s is a strong platform for this search", profile.Platform))
	}

	recScore := s.recencyScore(profile.LastUpdated)
	total += recScore * weightRecency
	if recScore > reasonRecencyThreshold {
		reasons = append(reasons, "profile was updated recently")
	}

	// Base contribution from the profile's prior score, on top of the
	// weighted components.
	total += profile.Score * weightBase

	return types.MatchScore{
		Profile: profile,
		Score:   types.ClampScore(total),
		Reasons: reasons,
	}
}

// tagMatchScore counts fuzzy matches between query and profile tags,
// normalized by the larger tag-set size.
func (s *Scorer) tagMatchScore(queryTags, profileTags []string) (score float64, matched int) {
	for _, qt := range queryTags {
		for _, pt := range profileTags {
			if s.IsTagMatch(qt, pt) {
				matched++
				break
			}
		}
	}
	denom := len(queryTags)
	if len(profileTags) > denom {
		denom = len(profileTags)
	}
	if denom < 1 {
		denom = 1
	}
	return float64(matched) / float64(denom), matched
}

// IsTagMatch reports fuzzy equivalence: exact equality, substring
// containment either direction, or shared synonym group membership.
func (s *Scorer) IsTagMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	for _, term := range s.synonyms[a] {
		if term == b {
			return true
		}
	}
	return false
}

// lexicalSimilarity counts tokens longer than three characters shared by
// both texts, normalized by the larger token-set size. Tokens of one or
// two characters are dropped before comparison.
func lexicalSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for tok := range setA {
		if len(tok) > 3 && setB[tok] {
			shared++
		}
	}

	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(shared) / float64(denom)
}

// tokenSet lowercases, strips punctuation, and drops tokens of two or
// fewer characters.
func tokenSet(text string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	set := make(map[string]bool)
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) > 2 {
			set[tok] = true
		}
	}
	return set
}

// platformScore applies the fixed heuristic table: high when the query
// mentions any of the platform's trigger keywords, low otherwise.
// Unknown platforms score a flat 0.5.
func (s *Scorer) platformScore(queryText string, platform types.Platform) float64 {
	h, ok := platformHeuristics[platform]
	if !ok {
		return 0.5
	}
	lower := strings.ToLower(queryText)
	for _, kw := range h.keywords {
		if strings.Contains(lower, kw) {
			return h.high
		}
	}
	return h.low
}

// recencyScore applies a stepped decay over days since the last data
// refresh. A zero time gets the oldest bucket.
func (s *Scorer) recencyScore(lastUpdated time.Time) float64 {
	if lastUpdated.IsZero() {
		return 0.3
	}
	days := s.now().Sub(lastUpdated).Hours() / 24
	switch {
	case days <= 1:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	case days <= 90:
		return 0.5
	default:
		return 0.3
	}
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched lengths or a zero vector (the documented embedding-failure
// fallback) yield exactly 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
