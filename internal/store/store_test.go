// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lead-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(types.StoreConfig{DataDir: t.TempDir(), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProfile(name string, platform types.Platform, score float64, tags ...string) types.Profile {
	return types.Profile{
		ID:          "id-" + name,
		Name:        name,
		Username:    name,
		Bio:         "builds developer tools in Go",
		Platform:    platform,
		Tags:        tags,
		Score:       score,
		ProfileURL:  "https://example.com/" + name,
		LastUpdated: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpsertAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx,
		sampleProfile("ada", types.PlatformGitHub, 0.9, "go", "react"),
		sampleProfile("lin", types.PlatformTwitter, 0.4, "writer"),
	)
	if err != nil {
		t.Fatal(err)
	}

	profiles, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "ada" {
		t.Errorf("expected score-descending order, got %s first", profiles[0].Name)
	}
	if profiles[0].Tags[0] != "go" {
		t.Errorf("tags round trip failed: %v", profiles[0].Tags)
	}
}

func TestUpsertPreservesCreatedAtAndID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	original := sampleProfile("ada", types.PlatformGitHub, 0.5, "go")
	original.CreatedAt = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if err := s.Upsert(ctx, original); err != nil {
		t.Fatal(err)
	}

	updated := sampleProfile("ada", types.PlatformGitHub, 0.8, "go", "rust")
	updated.ID = "different-id"
	updated.Bio = "now writes rust"
	if err := s.Upsert(ctx, updated); err != nil {
		t.Fatal(err)
	}

	profiles, err := s.Query(ctx, Filter{Platform: types.PlatformGitHub})
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 {
		t.Fatalf("natural-key conflict should update in place, got %d rows", len(profiles))
	}
	got := profiles[0]
	if got.ID != "id-ada" {
		t.Errorf("id changed on upsert: %s", got.ID)
	}
	if !got.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("created_at changed on upsert: %v", got.CreatedAt)
	}
	if got.Bio != "now writes rust" || got.Score != 0.8 {
		t.Errorf("upsert did not replace mutable fields: %+v", got)
	}
}

func TestUpsertClampsScore(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := sampleProfile("ada", types.PlatformGitHub, 0, "go")
	p.Score = 3.5
	if err := s.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}

	profiles, err := s.Query(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if profiles[0].Score != 1.0 {
		t.Errorf("score = %v, want clamped 1.0", profiles[0].Score)
	}
}

func TestUpsertRejectsInvalidPlatform(t *testing.T) {
	s := testStore(t)
	p := sampleProfile("ada", types.Platform("myspace"), 0.5)
	if err := s.Upsert(context.Background(), p); err == nil {
		t.Fatal("expected an error for an invalid platform")
	}
}

func TestQueryFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx,
		sampleProfile("ada", types.PlatformGitHub, 0.9, "go", "react"),
		sampleProfile("lin", types.PlatformGitHub, 0.2, "design"),
		sampleProfile("maya", types.PlatformTwitter, 0.7, "react"),
	); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"by platform", Filter{Platform: types.PlatformTwitter}, []string{"maya"}},
		{"by min score", Filter{MinScore: 0.5}, []string{"ada", "maya"}},
		{"by tag", Filter{Tag: "react"}, []string{"ada", "maya"}},
		{"combined", Filter{Platform: types.PlatformGitHub, Tag: "react"}, []string{"ada"}},
		{"max results", Filter{MaxResults: 1}, []string{"ada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, err := s.Query(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, p := range profiles {
				names = append(names, p.Name)
			}
			if len(names) != len(tt.want) {
				t.Fatalf("got %v, want %v", names, tt.want)
			}
			for i := range tt.want {
				if names[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", names, tt.want)
				}
			}
		})
	}
}

func TestQueryFullText(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ada := sampleProfile("ada", types.PlatformGitHub, 0.9, "go")
	ada.Bio = "distributed systems and observability"
	lin := sampleProfile("lin", types.PlatformGitHub, 0.5, "design")
	lin.Bio = "illustration and typography"
	if err := s.Upsert(ctx, ada, lin); err != nil {
		t.Fatal(err)
	}

	profiles, err := s.Query(ctx, Filter{Text: "observability"})
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0].Name != "ada" {
		t.Fatalf("full-text query failed: %+v", profiles)
	}

	// FTS index must follow updates.
	ada.Bio = "now into typography too"
	if err := s.Upsert(ctx, ada); err != nil {
		t.Fatal(err)
	}
	profiles, err = s.Query(ctx, Filter{Text: "observability"})
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 0 {
		t.Fatalf("stale FTS entry survived an update: %+v", profiles)
	}
}

func TestListByPlatform(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx,
		sampleProfile("zoe", types.PlatformGitHub, 0.3, "go"),
		sampleProfile("ada", types.PlatformGitHub, 0.9, "go"),
		sampleProfile("maya", types.PlatformTwitter, 0.7, "react"),
	); err != nil {
		t.Fatal(err)
	}

	profiles, err := s.ListByPlatform(ctx, types.PlatformGitHub)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 2 || profiles[0].Name != "ada" || profiles[1].Name != "zoe" {
		t.Fatalf("expected github profiles ordered by name, got %+v", profiles)
	}
}

func TestStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx,
		sampleProfile("ada", types.PlatformGitHub, 0.9, "go"),
		sampleProfile("zoe", types.PlatformGitHub, 0.3, "go"),
		sampleProfile("maya", types.PlatformTwitter, 0.7, "react"),
	); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[types.PlatformGitHub] != 2 || stats[types.PlatformTwitter] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, sampleProfile("ada", types.PlatformGitHub, 0.9, "go")); err != nil {
		t.Fatal(err)
	}

	path, err := s.ExportYAML(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "export.yaml" {
		t.Errorf("unexpected export path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var exported []types.Profile
	if err := yaml.Unmarshal(data, &exported); err != nil {
		t.Fatal(err)
	}
	if len(exported) != 1 || exported[0].Name != "ada" {
		t.Fatalf("unexpected export contents: %+v", exported)
	}
}
