// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/lead-engine/pkg/types"
)

func TestIsTagMatch(t *testing.T) {
	s := NewScorer()
	tests := []struct {
		a, b string
		want bool
	}{
		{"react", "react", true},
		{"go", "golang", true},
		{"ai", "machine learning", true},
		{"ml", "artificial intelligence", true},
		{"saas", "subscription", true},
		{"developer", "coder", true},
		{"react", "vue", false},
		{"rust", "python", false},
		{"", "react", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := s.IsTagMatch(tt.a, tt.b); got != tt.want {
				t.Errorf("IsTagMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 1}, []float64{1, 0, 1}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"zero vector fallback", []float64{0, 0, 0}, []float64{1, 2, 3}, 0.0},
		{"both zero", make([]float64, 1536), make([]float64, 1536), 0.0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0.0},
		{"empty", nil, nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScoreClamped(t *testing.T) {
	s := NewScorer()
	// A profile engineered to push every component high: the weighted sum
	// plus the base term exceeds 1.0 before clamping.
	p := types.Profile{
		Name:        "Max Overdrive",
		Bio:         "senior react developer building open source software and developer tools",
		Platform:    types.PlatformGitHub,
		Tags:        []string{"react", "developer", "open-source", "software"},
		Score:       1.0,
		LastUpdated: time.Now(),
	}
	vec := []float64{1, 1, 1}

	ms := s.Score("senior react developer building open source software and developer tools", p, vec, vec)
	if ms.Score < 0.0 || ms.Score > 1.0 {
		t.Fatalf("Score = %f, out of [0,1]", ms.Score)
	}
	if ms.Score != 1.0 {
		t.Errorf("Score = %f, want clamp to 1.0 for a saturated match", ms.Score)
	}
}

func TestScoreZeroVectorStaysInRange(t *testing.T) {
	s := NewScorer()
	p := types.Profile{
		Name:     "Dev",
		Bio:      "react developer",
		Platform: types.PlatformGitHub,
		Tags:     []string{"react"},
	}
	zero := make([]float64, 1536)

	ms := s.Score("react developer", p, zero, zero)
	if ms.Score < 0.0 || ms.Score > 1.0 {
		t.Errorf("Score = %f, out of [0,1]", ms.Score)
	}
}

func TestScoreVectorWeightOmittedWithoutEmbeddings(t *testing.T) {
	s := NewScorer()
	p := types.Profile{
		Name:     "Dev",
		Bio:      "react developer",
		Platform: types.PlatformGitHub,
		Tags:     []string{"react", "developer"},
	}

	withVec := s.Score("react developer", p, []float64{1, 0}, []float64{1, 0})
	withoutVec := s.Score("react developer", p, nil, nil)

	if withoutVec.Score >= withVec.Score {
		t.Errorf("omitting embeddings should lower the ceiling: without=%f with=%f",
			withoutVec.Score, withVec.Score)
	}
}

func TestScoreRanksTagAndBioOverlapFirst(t *testing.T) {
	s := NewScorer()
	query := "senior React developer who builds in public"

	strong := types.Profile{
		Name:     "Strong",
		Bio:      "senior react developer who builds devtools in public",
		Platform: types.PlatformGitHub,
		Tags:     []string{"react", "developer", "senior"},
	}
	weak := types.Profile{
		Name:     "Weak",
		Bio:      "photography enthusiast",
		Platform: types.PlatformGitHub,
		Tags:     []string{"photography"},
	}

	if s.Score(query, strong, nil, nil).Score <= s.Score(query, weak, nil, nil).Score {
		t.Error("profile with higher tag+bio overlap should outscore the weak one")
	}
}

func TestRecencySteps(t *testing.T) {
	s := NewScorer()
	now := time.Now()
	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"same day", 12 * time.Hour, 1.0},
		{"this week", 3 * 24 * time.Hour, 0.9},
		{"this month", 20 * 24 * time.Hour, 0.7},
		{"this quarter", 60 * 24 * time.Hour, 0.5},
		{"stale", 200 * 24 * time.Hour, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.recencyScore(now.Add(-tt.age))
			if got != tt.want {
				t.Errorf("recencyScore(%v ago) = %f, want %f", tt.age, got, tt.want)
			}
		})
	}

	if got := s.recencyScore(time.Time{}); got != 0.3 {
		t.Errorf("recencyScore(zero) = %f, want 0.3", got)
	}
}

func TestPlatformScoreHeuristic(t *testing.T) {
	s := NewScorer()
	tests := []struct {
		name     string
		query    string
		platform types.Platform
		want     float64
	}{
		{"github tech query", "software developer tools", types.PlatformGitHub, 0.9},
		{"github non-tech query", "gardening enthusiasts", types.PlatformGitHub, 0.3},
		{"linkedin business query", "b2b sales leaders", types.PlatformLinkedIn, 0.9},
		{"linkedin non-business query", "gardening enthusiasts", types.PlatformLinkedIn, 0.6},
		{"unknown platform", "anything", types.PlatformOther, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.platformScore(tt.query, tt.platform); got != tt.want {
				t.Errorf("platformScore = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScoreReasons(t *testing.T) {
	s := NewScorer()
	p := types.Profile{
		Name:        "Dev",
		Bio:         "senior react developer building open source software tools",
		Platform:    types.PlatformGitHub,
		Tags:        []string{"react", "developer"},
		LastUpdated: time.Now(),
	}
	vec := []float64{1, 2, 3}

	ms := s.Score("senior react developer building software", p, vec, vec)
	if len(ms.Reasons) == 0 {
		t.Fatal("expected reasons for a strong match")
	}
	joined := strings.Join(ms.Reasons, "; ")
	for _, want := range []string{"tag", "platform", "recently"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Reasons = %v, missing mention of %q", ms.Reasons, want)
		}
	}
}

func TestScoreNoReasonsForWeakMatch(t *testing.T) {
	s := NewScorer()
	p := types.Profile{
		Name:     "Weak",
		Bio:      "",
		Platform: types.PlatformGitHub,
		Tags:     nil,
	}
	ms := s.Score("gardening enthusiasts", p, nil, nil)
	if len(ms.Reasons) != 0 {
		t.Errorf("Reasons = %v, want none for a weak match", ms.Reasons)
	}
}
