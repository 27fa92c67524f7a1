// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SortPreference selects the ranking GitHub user search applies server-side.
type SortPreference string

const (
	SortFollowers    SortPreference = "followers"
	SortRepositories SortPreference = "repositories"
	SortJoined       SortPreference = "joined"
)

// Query is the interpreter's structured form of a free-text company DNA
// description. It is ephemeral: built per request, never persisted.
type Query struct {
	// RawText is the original free-text input.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// DetectedKeywords lists matched vocabulary terms (role, technology,
	// experience level) in detection order.
	DetectedKeywords []string `json:"detected_keywords" yaml:"detected_keywords"`

	// TargetPlatforms is the non-empty set of platforms to search.
	TargetPlatforms []Platform `json:"target_platforms" yaml:"target_platforms"`

	// SortPreference applies only to GitHub ranking. When no activity
	// keyword fixes it, the interpreter picks one pseudo-randomly, so the
	// same text may carry a different sort on different calls.
	SortPreference SortPreference `json:"sort_preference" yaml:"sort_preference"`

	// Filters holds platform-API-ready clauses (e.g. "in:bio react").
	// Never empty: filler-only input degrades to a default term.
	Filters []string `json:"filters" yaml:"filters"`
}

// IsEmpty reports whether the query carries no searchable text.
func (q Query) IsEmpty() bool {
	return q.RawText == "" && len(q.DetectedKeywords) == 0 && len(q.Filters) == 0
}

// MatchScore is the scorer's output for one (query, profile) pair.
type MatchScore struct {
	Profile Profile `json:"profile" yaml:"profile"`

	// Score is the composite relevance in [0, 1].
	Score float64 `json:"score" yaml:"score"`

	// Reasons lists short justifications in contribution order. A
	// component below its display threshold contributes silently.
	Reasons []string `json:"reasons" yaml:"reasons"`
}
