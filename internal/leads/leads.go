// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package leads orchestrates the pipeline: interpret the company DNA,
// fetch candidate profiles per platform, enrich, score, rank, and
// persist the survivors.
package leads

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lead-engine/internal/embed"
	"github.com/pdiddy/lead-engine/internal/enrich"
	"github.com/pdiddy/lead-engine/internal/interpret"
	"github.com/pdiddy/lead-engine/internal/match"
	"github.com/pdiddy/lead-engine/internal/source"
	"github.com/pdiddy/lead-engine/internal/store"
	"github.com/pdiddy/lead-engine/pkg/types"
)

// minLeadScore is the floor below which a scored match is discarded
// rather than shown as a lead.
const minLeadScore = 0.1

// ValidationError reports unusable caller input, distinct from
// acquisition or configuration failures.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// Enricher augments one profile against the query text. Implemented by
// *enrich.Enricher; tests substitute a canned one.
type Enricher interface {
	Enrich(ctx context.Context, query string, profile types.Profile) enrich.Enrichment
}

// ProfileStore is the subset of the profile store the pipeline needs.
type ProfileStore interface {
	Query(ctx context.Context, f store.Filter) ([]types.Profile, error)
	Upsert(ctx context.Context, profiles ...types.Profile) error
}

// Result is the ranked output of one pipeline run.
type Result struct {
	Leads []types.MatchScore `json:"leads"`

	// Source is "database" when at least one returned lead came from the
	// store lookup, "scraped" when all were acquired live.
	Source string `json:"source"`

	// SourceErrors lists platforms that failed softly during acquisition.
	SourceErrors []string `json:"source_errors,omitempty"`
}

// Deps holds the pipeline's collaborators. Interpreter, Scorer, and
// Logger get working defaults when nil; Sources is required; Enricher,
// Embedder, and Store are optional stages that are skipped when absent.
type Deps struct {
	Interpreter *interpret.Interpreter
	Sources     []source.Source
	Enricher    Enricher
	Scorer      *match.Scorer
	Embedder    embed.Client
	Store       ProfileStore
	Logger      *zap.Logger
}

// Pipeline generates ranked leads from free-text company DNA.
type Pipeline struct {
	cfg      types.PipelineConfig
	interp   *interpret.Interpreter
	sources  map[types.Platform]source.Source
	enricher Enricher
	scorer   *match.Scorer
	embedder embed.Client
	store    ProfileStore
	logger   *zap.Logger
}

// New builds a Pipeline from configuration and collaborators.
func New(cfg types.PipelineConfig, deps Deps) *Pipeline {
	if deps.Interpreter == nil {
		deps.Interpreter = interpret.New(interpret.DefaultVocabularies(), nil)
	}
	if deps.Scorer == nil {
		deps.Scorer = match.NewScorer()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	sources := make(map[types.Platform]source.Source, len(deps.Sources))
	for _, src := range deps.Sources {
		sources[src.Platform()] = src
	}
	return &Pipeline{
		cfg:      cfg,
		interp:   deps.Interpreter,
		sources:  sources,
		enricher: deps.Enricher,
		scorer:   deps.Scorer,
		embedder: deps.Embedder,
		store:    deps.Store,
		logger:   deps.Logger,
	}
}

// Generate runs the full pipeline. platformHint, when non-empty, pins
// the target platform regardless of what the text mentions. w receives
// human-readable progress output; pass io.Discard to silence it.
func (p *Pipeline) Generate(ctx context.Context, companyDNA string, platformHint types.Platform, limit int, w io.Writer) (Result, error) {
	if strings.TrimSpace(companyDNA) == "" {
		return Result{}, &ValidationError{Reason: "company DNA text is empty"}
	}
	if limit <= 0 {
		limit = p.cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = source.DefaultLimit
	}
	if w == nil {
		w = io.Discard
	}

	query := p.interp.Parse(companyDNA, platformHint)
	if platformHint != "" {
		query.TargetPlatforms = []types.Platform{platformHint}
	}
	fmt.Fprintf(w, "interpreted query: keywords=%v platforms=%v sort=%s\n",
		query.DetectedKeywords, query.TargetPlatforms, query.SortPreference)

	// Known profiles first: a store hit both seeds the candidate set and
	// decides the result's source label.
	fromStore := make(map[string]bool)
	var candidates []types.Profile
	if p.store != nil {
		stored, err := p.storeLookup(ctx, query)
		if err != nil {
			p.logger.Warn("store lookup failed, continuing with live acquisition", zap.Error(err))
		}
		for _, profile := range stored {
			fromStore[profile.NaturalKey()] = true
			candidates = append(candidates, profile)
		}
		if len(stored) > 0 {
			fmt.Fprintf(w, "found %d known profiles in the store\n", len(stored))
		}
	}

	fetched, sourceErrors := p.fetchAll(ctx, query, limit, w)
	candidates = append(candidates, fetched...)

	if len(candidates) == 0 {
		return Result{Source: "scraped", SourceErrors: sourceErrors}, nil
	}

	p.enrichAll(ctx, companyDNA, candidates)

	scored := p.scoreAll(ctx, companyDNA, candidates)

	// Dedup by natural key, first occurrence wins: store hits precede
	// live results in candidate order, so a known profile beats its
	// freshly scraped duplicate.
	seen := make(map[string]bool, len(scored))
	leads := scored[:0]
	for _, ms := range scored {
		key := ms.Profile.NaturalKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		leads = append(leads, ms)
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].Score > leads[j].Score
	})
	if len(leads) > limit {
		leads = leads[:limit]
	}

	if p.store != nil && len(leads) > 0 {
		profiles := make([]types.Profile, len(leads))
		for i, ms := range leads {
			profiles[i] = ms.Profile
			profiles[i].SetScore(ms.Score)
		}
		if err := p.store.Upsert(ctx, profiles...); err != nil {
			p.logger.Warn("persisting leads failed", zap.Error(err))
		}
	}

	label := "scraped"
	for _, ms := range leads {
		if fromStore[ms.Profile.NaturalKey()] {
			label = "database"
			break
		}
	}

	return Result{Leads: leads, Source: label, SourceErrors: sourceErrors}, nil
}

// FetchAll acquires raw profiles for a query without enrichment or
// scoring, for callers that want the unranked acquisition output.
func (p *Pipeline) FetchAll(ctx context.Context, rawText string, platformHint types.Platform, limit int, w io.Writer) ([]types.Profile, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, &ValidationError{Reason: "query text is empty"}
	}
	if limit <= 0 {
		limit = source.DefaultLimit
	}
	if w == nil {
		w = io.Discard
	}

	query := p.interp.Parse(rawText, platformHint)
	if platformHint != "" {
		query.TargetPlatforms = []types.Platform{platformHint}
	}

	profiles, sourceErrors := p.fetchAll(ctx, query, limit, w)
	if len(profiles) == 0 && len(sourceErrors) == len(query.TargetPlatforms) && len(sourceErrors) > 0 {
		return nil, fmt.Errorf("all platforms failed: %s", strings.Join(sourceErrors, "; "))
	}
	return profiles, nil
}

// storeLookup queries the store for profiles matching the detected
// keywords via full text, falling back to the raw query text.
func (p *Pipeline) storeLookup(ctx context.Context, query types.Query) ([]types.Profile, error) {
	terms := query.DetectedKeywords
	if len(terms) == 0 {
		terms = strings.Fields(query.RawText)
	}
	// FTS5 OR semantics: any keyword hit qualifies.
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return p.store.Query(ctx, store.Filter{Text: strings.Join(quoted, " OR ")})
}

// fetchAll runs each target platform's adapter in turn. Per-platform
// failures are soft: they are reported and the remaining platforms still
// run. Platforms without an adapter are skipped.
func (p *Pipeline) fetchAll(ctx context.Context, query types.Query, limit int, w io.Writer) ([]types.Profile, []string) {
	var (
		profiles     []types.Profile
		sourceErrors []string
		ran          int
	)
	for _, platform := range query.TargetPlatforms {
		src, ok := p.sources[platform]
		if !ok {
			p.logger.Debug("no adapter for platform, skipping", zap.String("platform", string(platform)))
			continue
		}
		if ran > 0 {
			if err := source.SleepBetween(ctx, p.cfg.Sources.InterPlatformDelay); err != nil {
				sourceErrors = append(sourceErrors, fmt.Sprintf("%s: %v", platform, err))
				break
			}
		}
		ran++

		fetched, err := src.FetchProfiles(ctx, query, limit)
		if err != nil {
			msg := fmt.Sprintf("%s: %v", platform, err)
			sourceErrors = append(sourceErrors, msg)
			fmt.Fprintf(w, "warning: %s acquisition failed: %v\n", platform, err)
			continue
		}
		fmt.Fprintf(w, "fetched %d profiles from %s\n", len(fetched), platform)
		profiles = append(profiles, fetched...)
	}
	return profiles, sourceErrors
}

// enrichAll runs the enricher over every candidate with a bounded worker
// pool. Enrichment cannot fail a profile: the enricher itself falls back
// to a deterministic heuristic.
func (p *Pipeline) enrichAll(ctx context.Context, companyDNA string, profiles []types.Profile) {
	if p.enricher == nil {
		return
	}
	workers := p.cfg.EnrichWorkers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(profiles) {
		workers = len(profiles)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				enr := p.enricher.Enrich(ctx, companyDNA, profiles[idx])
				enrich.Apply(&profiles[idx], enr)
			}
		}()
	}
	start := time.Now()
	for i := range profiles {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	p.logger.Debug("enrichment complete",
		zap.Int("profiles", len(profiles)),
		zap.Duration("elapsed", time.Since(start)))
}

// scoreAll computes the composite match score for every candidate and
// drops those at or below the lead floor. Embedding failures degrade to
// the zero vector, which contributes a zero vector-similarity signal.
func (p *Pipeline) scoreAll(ctx context.Context, companyDNA string, profiles []types.Profile) []types.MatchScore {
	var queryVec []float64
	if p.embedder != nil {
		vec, err := p.embedder.Embed(ctx, companyDNA)
		if err != nil {
			p.logger.Warn("query embedding failed, using zero vector", zap.Error(err))
			vec = embed.ZeroVector()
		}
		queryVec = vec
	}

	scored := make([]types.MatchScore, 0, len(profiles))
	for _, profile := range profiles {
		var profileVec []float64
		if p.embedder != nil {
			vec, err := p.embedder.Embed(ctx, profile.Bio)
			if err != nil {
				p.logger.Debug("profile embedding failed, using zero vector",
					zap.String("profile", profile.DisplayName()), zap.Error(err))
				vec = embed.ZeroVector()
			}
			profileVec = vec
		}
		ms := p.scorer.Score(companyDNA, profile, queryVec, profileVec)
		if ms.Score <= minLeadScore {
			continue
		}
		scored = append(scored, ms)
	}
	return scored
}
