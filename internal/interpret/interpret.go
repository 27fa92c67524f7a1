// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package interpret converts a free-text company DNA description into a
// structured search query: detected vocabulary keywords, target platforms,
// a sort preference, and platform-API-ready filter clauses.
package interpret

import (
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/lead-engine/pkg/types"
)

// Vocabularies holds the fixed term tables the interpreter matches against.
// Injected at construction so tests can substitute smaller fixtures.
type Vocabularies struct {
	// RolesAndSkills lists role and technology terms (e.g. "developer",
	// "react"). Multi-word terms match as substrings of the normalized text.
	RolesAndSkills []string

	// ExperienceLevels lists seniority modifiers (e.g. "senior").
	ExperienceLevels []string

	// ActivitySorts maps activity indicators to the GitHub sort they imply.
	ActivitySorts map[string]types.SortPreference

	// PlatformKeywords maps trigger terms to target platforms.
	PlatformKeywords map[string]types.Platform
}

// DefaultVocabularies returns the production term tables.
func DefaultVocabularies() Vocabularies {
	return Vocabularies{
		RolesAndSkills: []string{
			"developer", "engineer", "designer", "founder", "maker",
			"writer", "creator", "researcher", "marketer", "indie hacker",
			"react", "vue", "angular", "svelte", "typescript", "javascript",
			"golang", "python", "rust", "ruby", "java", "kotlin", "swift",
			"c++", "c#", ".net", "node", "devops", "kubernetes", "docker",
			"ai", "ml", "machine learning", "data science", "blockchain",
			"web3", "saas", "open source", "frontend", "backend",
			"full-stack", "fullstack", "mobile", "ios", "android",
		},
		ExperienceLevels: []string{
			"senior", "junior", "mid-level", "staff", "principal",
			"lead", "experienced", "veteran",
		},
		ActivitySorts: map[string]types.SortPreference{
			"active":      types.SortJoined,
			"recent":      types.SortJoined,
			"prolific":    types.SortRepositories,
			"productive":  types.SortRepositories,
			"popular":     types.SortFollowers,
			"influential": types.SortFollowers,
			"followed":    types.SortFollowers,
		},
		PlatformKeywords: map[string]types.Platform{
			"github":      types.PlatformGitHub,
			"repo":        types.PlatformGitHub,
			"repository":  types.PlatformGitHub,
			"open source": types.PlatformGitHub,
			"commit":      types.PlatformGitHub,
			"twitter":     types.PlatformTwitter,
			"tweet":       types.PlatformTwitter,
			"x.com":       types.PlatformTwitter,
			"linkedin":    types.PlatformLinkedIn,
			"recruiting":  types.PlatformLinkedIn,
			"newsletter":  types.PlatformSubstack,
			"substack":    types.PlatformSubstack,
		},
	}
}

// fallbackKeyword is used when the input carries no detectable terms at
// all: the pipeline must never search without a constraint.
const fallbackKeyword = "developer"

// stopwords are stripped from the text used to build the fallback filter term.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"who": true, "that": true, "and": true, "or": true, "for": true,
	"with": true, "in": true, "on": true, "of": true, "to": true,
	"we": true, "our": true, "looking": true, "find": true,
}

// Interpreter parses free text into a types.Query.
type Interpreter struct {
	vocab Vocabularies
	rng   *rand.Rand
}

// New builds an Interpreter. A nil rng gets a time-seeded source; tests
// pass a seeded one to pin the sort-preference branch.
func New(vocab Vocabularies, rng *rand.Rand) *Interpreter {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Interpreter{vocab: vocab, rng: rng}
}

// Parse converts rawText into a structured query. defaultPlatform is used
// when no platform keyword appears in the text; empty defaults to GitHub.
func (in *Interpreter) Parse(rawText string, defaultPlatform types.Platform) types.Query {
	normalized := normalize(rawText)

	q := types.Query{RawText: rawText}

	for _, term := range in.vocab.RolesAndSkills {
		if containsTerm(normalized, term) {
			q.DetectedKeywords = append(q.DetectedKeywords, term)
		}
	}
	for _, term := range in.vocab.ExperienceLevels {
		if containsTerm(normalized, term) {
			q.DetectedKeywords = append(q.DetectedKeywords, term)
		}
	}

	q.TargetPlatforms = in.detectPlatforms(normalized, defaultPlatform)
	q.SortPreference = in.pickSort(normalized)
	q.Filters = in.buildFilters(q.DetectedKeywords, normalized)

	return q
}

// detectPlatforms selects target platforms from trigger keywords, falling
// back to defaultPlatform and finally GitHub.
func (in *Interpreter) detectPlatforms(normalized string, defaultPlatform types.Platform) []types.Platform {
	seen := make(map[types.Platform]bool)
	var platforms []types.Platform
	for term, p := range in.vocab.PlatformKeywords {
		if containsTerm(normalized, term) && !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	if len(platforms) > 0 {
		// Map iteration order is random; keep the output stable.
		sortPlatforms(platforms)
		return platforms
	}
	if defaultPlatform.Valid() {
		return []types.Platform{defaultPlatform}
	}
	return []types.Platform{types.PlatformGitHub}
}

// pickSort returns the sort implied by the first matching activity
// indicator, or a pseudo-random choice among the three to diversify
// repeated identical queries. The randomness is intentional: the same
// text may yield a different sort on different calls.
func (in *Interpreter) pickSort(normalized string) types.SortPreference {
	for _, term := range sortedKeys(in.vocab.ActivitySorts) {
		if containsTerm(normalized, term) {
			return in.vocab.ActivitySorts[term]
		}
	}
	choices := []types.SortPreference{
		types.SortFollowers, types.SortRepositories, types.SortJoined,
	}
	return choices[in.rng.Intn(len(choices))]
}

// buildFilters joins one "in:bio" clause per detected keyword. With no
// keywords, the stripped raw prompt becomes a single bio filter; a
// filler-only prompt degrades to the fallback keyword.
func (in *Interpreter) buildFilters(keywords []string, normalized string) []string {
	if len(keywords) > 0 {
		filters := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			filters = append(filters, "in:bio "+kw)
		}
		return filters
	}

	term := in.fallbackTerm(normalized)
	return []string{"in:bio " + term}
}

// fallbackTerm strips platform names and stopwords from the normalized
// text. Character filtering keeps '#', '+', and '.' so ".net", "c++",
// and "c#" pass through intact.
func (in *Interpreter) fallbackTerm(normalized string) string {
	var kept []string
	for _, tok := range strings.Fields(normalized) {
		if stopwords[tok] || in.isPlatformName(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return fallbackKeyword
	}
	return strings.Join(kept, " ")
}

func (in *Interpreter) isPlatformName(tok string) bool {
	_, ok := in.vocab.PlatformKeywords[tok]
	return ok
}

// normalize lowercases and strips runes outside letters, digits,
// whitespace, and {#, +, .} without breaking multi-word technology names.
func normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '#' || r == '+' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsTerm reports whether term occurs in the normalized text on word
// boundaries. Multi-word terms match as substrings.
func containsTerm(normalized, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(normalized, term)
	}
	for _, tok := range strings.Fields(normalized) {
		if strings.TrimRight(tok, ".") == term {
			return true
		}
	}
	return false
}

func sortPlatforms(ps []types.Platform) {
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
}

func sortedKeys(m map[string]types.SortPreference) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
