// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source fetches candidate profiles from external platforms.
// Each platform adapter runs an ordered fallback chain of strategies
// (browser scrape → official API → indirect crawl); the first stage
// producing at least one profile wins.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/lead-engine/internal/tags"
	"github.com/pdiddy/lead-engine/pkg/types"
)

// DefaultLimit is the profile count per platform when the caller gives none.
const DefaultLimit = 10

// Source fetches candidate profiles for a structured query from one
// external platform.
type Source interface {
	Platform() types.Platform

	// FetchProfiles returns up to limit profiles. Stage failures inside
	// the adapter are soft; only a credential problem (*ConfigError) or
	// the final stage's failure (*AcquireError) surfaces. Exhausting all
	// stages without results returns (nil, nil).
	FetchProfiles(ctx context.Context, query types.Query, limit int) ([]types.Profile, error)
}

// strategy is one stage of a platform's fallback chain.
type strategy interface {
	name() string
	fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error)
}

// runChain tries strategies in order. A non-final stage's error or empty
// result advances the chain; the final stage's error propagates. A
// *ConfigError propagates from any stage, since retrying later stages
// cannot fix a credential.
func runChain(ctx context.Context, logger *zap.Logger, platform types.Platform, strategies []strategy, query types.Query, limit int) ([]types.Profile, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for i, st := range strategies {
		profiles, err := st.fetch(ctx, query, limit)
		if err != nil {
			var cfgErr *ConfigError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			if i == len(strategies)-1 {
				return nil, err
			}
			logger.Debug("fetch stage failed, trying next",
				zap.String("platform", string(platform)),
				zap.String("stage", st.name()),
				zap.Error(err))
			continue
		}
		if len(profiles) > 0 {
			logger.Debug("fetch stage succeeded",
				zap.String("platform", string(platform)),
				zap.String("stage", st.name()),
				zap.Int("profiles", len(profiles)))
			if len(profiles) > limit {
				profiles = profiles[:limit]
			}
			return profiles, nil
		}
		logger.Debug("fetch stage returned nothing, trying next",
			zap.String("platform", string(platform)),
			zap.String("stage", st.name()))
	}
	return nil, nil
}

// newProfile builds a fresh profile record with a synthetic id and tags
// extracted from the name and bio.
func newProfile(platform types.Platform, username, name, bio, profileURL string) types.Profile {
	display := name
	if display == "" {
		display = username
	}
	now := time.Now().UTC()
	return types.Profile{
		ID:          uuid.NewString(),
		Name:        display,
		Username:    username,
		Bio:         bio,
		Platform:    platform,
		Tags:        tags.Extract(name + " " + bio),
		ProfileURL:  profileURL,
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SleepBetween spaces out consecutive platform fetches to respect
// third-party quotas. Returns early when ctx is cancelled.
func SleepBetween(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// likelyInactive reports whether a profile carries neither a bio nor any
// activity signal. Such records dilute results and are excluded.
func likelyInactive(bio string, followers, publicRepos int) bool {
	return bio == "" && followers == 0 && publicRepos == 0
}

// positionScore assigns a prior relevance from result position, mirroring
// the source's own ranking: first result 1.0 decaying to 0.1.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}
