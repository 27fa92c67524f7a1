// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lead-engine pipeline.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the external source a profile was acquired from.
type Platform string

const (
	PlatformGitHub   Platform = "github"
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
	PlatformSubstack Platform = "substack"
	PlatformOther    Platform = "other"
)

// Valid reports whether p is one of the five recognized platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGitHub, PlatformTwitter, PlatformLinkedIn, PlatformSubstack, PlatformOther:
		return true
	}
	return false
}

// ParsePlatform normalizes a user-supplied platform name. Unknown names
// are an error rather than silently mapping to "other".
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown platform %q (expected github, twitter, linkedin, substack, or other)", s)
	}
	return p, nil
}

// Profile is a candidate person record sourced from an external platform.
type Profile struct {
	// ID is a synthetic identifier generated at acquisition time. Identity
	// for dedup and upsert is the natural key (Name, Platform), not ID.
	ID string `json:"id" yaml:"id"`

	// Name is the display name; falls back to Username when the platform
	// exposes no display name.
	Name string `json:"name" yaml:"name"`

	// Username is the platform handle, used as the natural key for refetch.
	Username string `json:"username" yaml:"username"`

	// Bio is the profile's free-text description, empty when absent.
	Bio string `json:"bio" yaml:"bio"`

	Platform Platform `json:"platform" yaml:"platform"`

	// Tags holds up to ten normalized lowercase keywords drawn from the
	// profile's bio and name.
	Tags []string `json:"tags" yaml:"tags"`

	// Score is the current relevance score in [0, 1]. Write through
	// SetScore so the range holds after every update.
	Score float64 `json:"score" yaml:"score"`

	// FitSummary is a human-readable justification for the score, empty
	// until enrichment runs.
	FitSummary string `json:"fit_summary" yaml:"fit_summary"`

	ProfileURL string `json:"profile_url" yaml:"profile_url"`

	// Enrichment fields populated only by platforms that expose them
	// (GitHub, Twitter).
	AvatarURL   string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	Followers   int    `json:"followers,omitempty" yaml:"followers,omitempty"`
	Following   int    `json:"following,omitempty" yaml:"following,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	PublicRepos int    `json:"public_repos,omitempty" yaml:"public_repos,omitempty"`

	// LastUpdated is the time of the last data refresh on the source
	// platform, distinct from the record bookkeeping timestamps below.
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// SetScore writes a score, clamping it into [0, 1].
func (p *Profile) SetScore(v float64) {
	p.Score = ClampScore(v)
}

// DisplayName returns the name, falling back to the handle.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// NaturalKey returns the dedup/upsert identity: lowercased name plus platform.
func (p Profile) NaturalKey() string {
	return strings.ToLower(p.DisplayName()) + "|" + string(p.Platform)
}

// ClampScore forces v into [0.0, 1.0].
func ClampScore(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
