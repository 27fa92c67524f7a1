// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich produces an AI fit summary, score override, and
// supplemental tags for a profile against a query. Every failure path
// (network, malformed JSON, missing credential) lands on a deterministic
// local heuristic: enrichment never propagates an error.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lead-engine/pkg/types"
)

// Backend abstracts the chat-completion API so tests can supply a mock.
// Implementations take a rendered prompt and return the raw model text.
type Backend interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Enrichment is the validated result applied to a profile.
type Enrichment struct {
	FitSummary string   `json:"fitSummary"`
	Score      float64  `json:"score"`
	Tags       []string `json:"tags"`
}

// promptTmpl instructs the model to return a strict JSON object. The
// response is never partially trusted: any missing or mistyped field
// fails the whole enrichment for that profile.
var promptTmpl = template.Must(template.New("enrich").Parse(`You are a lead qualification assistant. Evaluate how well the following public profile fits the company description.

Company description:
{{.Query}}

Profile:
- platform: {{.Platform}}
- name: {{.Name}}
- bio: {{.Bio}}

Respond with a JSON object and nothing else:
{"fitSummary": "<one or two sentences explaining the fit>", "score": <float between 0.0 and 1.0>, "tags": ["<3 to 5 lowercase keyword tags>"]}
`))

// backoffBase controls the retry backoff. Tests override this to avoid
// real sleeps.
var backoffBase = time.Second

// Enricher runs AI enrichment with retry and heuristic fallback.
type Enricher struct {
	backend    Backend
	maxRetries int
	logger     *zap.Logger
}

// New builds an Enricher. A nil backend skips the AI call entirely and
// uses the heuristic directly. maxRetries <= 0 defaults to 3.
func New(backend Backend, maxRetries int, logger *zap.Logger) *Enricher {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{backend: backend, maxRetries: maxRetries, logger: logger}
}

// Enrich evaluates one (query, profile) pair. It never returns an error:
// AI failure degrades to the deterministic heuristic.
func (e *Enricher) Enrich(ctx context.Context, query string, profile types.Profile) Enrichment {
	if e.backend == nil {
		return heuristic(query, profile)
	}

	prompt, err := renderPrompt(query, profile)
	if err != nil {
		e.logger.Warn("enrichment prompt render failed", zap.Error(err))
		return heuristic(query, profile)
	}

	raw, err := e.callWithRetry(ctx, prompt)
	if err != nil {
		e.logger.Debug("enrichment backend failed, using heuristic",
			zap.String("profile", profile.DisplayName()),
			zap.Error(err))
		return heuristic(query, profile)
	}

	enr, err := parseResponse(raw)
	if err != nil {
		e.logger.Debug("enrichment response rejected, using heuristic",
			zap.String("profile", profile.DisplayName()),
			zap.Error(err))
		return heuristic(query, profile)
	}
	return enr
}

// Apply merges an enrichment into the profile: score clamped, fit summary
// set, tags unioned (never replaced) and re-bounded.
func Apply(profile *types.Profile, enr Enrichment) {
	profile.SetScore(enr.Score)
	profile.FitSummary = enr.FitSummary
	profile.Tags = unionTags(profile.Tags, enr.Tags)
}

// callWithRetry invokes the backend with exponential backoff.
func (e *Enricher) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := e.backend.GenerateContent(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", e.maxRetries, lastErr)
}

func renderPrompt(query string, profile types.Profile) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, struct {
		Query, Platform, Name, Bio string
	}{
		Query:    query,
		Platform: string(profile.Platform),
		Name:     profile.DisplayName(),
		Bio:      profile.Bio,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// aiPayload mirrors the required response shape. Pointer fields
// distinguish "absent" from zero values so a missing field is rejected.
type aiPayload struct {
	FitSummary *string  `json:"fitSummary"`
	Score      *float64 `json:"score"`
	Tags       []string `json:"tags"`
}

// parseResponse validates the model output strictly. Models often wrap
// JSON in a code fence; the fence is stripped before parsing, but the
// payload itself must be complete and correctly typed.
func parseResponse(raw string) (Enrichment, error) {
	cleaned := stripFence(raw)

	var p aiPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Enrichment{}, fmt.Errorf("parsing enrichment JSON: %w", err)
	}
	if p.FitSummary == nil || strings.TrimSpace(*p.FitSummary) == "" {
		return Enrichment{}, fmt.Errorf("enrichment response missing fitSummary")
	}
	if p.Score == nil {
		return Enrichment{}, fmt.Errorf("enrichment response missing score")
	}
	if len(p.Tags) == 0 {
		return Enrichment{}, fmt.Errorf("enrichment response missing tags")
	}

	return Enrichment{
		FitSummary: strings.TrimSpace(*p.FitSummary),
		Score:      types.ClampScore(*p.Score),
		Tags:       normalizeTags(p.Tags),
	}, nil
}

// stripFence removes a Markdown code fence wrapper if present.
func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func normalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// unionTags merges two tag lists, deduplicated, original order first,
// bounded to the profile tag limit.
func unionTags(original, extra []string) []string {
	seen := make(map[string]bool, len(original))
	merged := make([]string, 0, len(original)+len(extra))
	for _, t := range original {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range extra {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	if len(merged) > 10 {
		merged = merged[:10]
	}
	return merged
}
