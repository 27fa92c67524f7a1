// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/lead-engine/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
}

type mockBackend struct {
	responses []string
	errs      []error
	calls     int
}

func (m *mockBackend) GenerateContent(_ context.Context, _ string) (string, error) {
	i := m.calls
	m.calls++
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var resp string
	if i < len(m.responses) {
		resp = m.responses[i]
	}
	return resp, err
}

func testProfile() types.Profile {
	return types.Profile{
		Name:     "Ada Example",
		Username: "ada",
		Bio:      "react developer building devtools in public",
		Platform: types.PlatformGitHub,
		Tags:     []string{"react", "devtools"},
	}
}

func TestEnrichValidResponse(t *testing.T) {
	backend := &mockBackend{responses: []string{
		`{"fitSummary": "Strong fit: ships React devtools.", "score": 0.85, "tags": ["react", "devtools", "oss"]}`,
	}}
	e := New(backend, 3, nil)

	enr := e.Enrich(context.Background(), "react developer", testProfile())
	if enr.FitSummary != "Strong fit: ships React devtools." {
		t.Errorf("FitSummary = %q", enr.FitSummary)
	}
	if enr.Score != 0.85 {
		t.Errorf("Score = %f, want 0.85", enr.Score)
	}
	if len(enr.Tags) != 3 {
		t.Errorf("Tags = %v", enr.Tags)
	}
}

func TestEnrichStripsCodeFence(t *testing.T) {
	backend := &mockBackend{responses: []string{
		"```json\n{\"fitSummary\": \"Fits.\", \"score\": 0.6, \"tags\": [\"go\"]}\n```",
	}}
	e := New(backend, 3, nil)

	enr := e.Enrich(context.Background(), "go developer", testProfile())
	if enr.FitSummary != "Fits." {
		t.Errorf("FitSummary = %q, fence should be stripped", enr.FitSummary)
	}
}

func TestEnrichMalformedJSONFallsBack(t *testing.T) {
	backend := &mockBackend{responses: []string{
		"I think this person is a great fit!",
		"I think this person is a great fit!",
		"I think this person is a great fit!",
		"I think this person is a great fit!",
	}}
	e := New(backend, 3, nil)
	p := testProfile()

	enr := e.Enrich(context.Background(), "react developer building devtools", p)

	// Deterministic fallback: canned sentence, no supplemental tags.
	if enr.FitSummary == "" {
		t.Fatal("fallback must produce a fit summary")
	}
	if !strings.Contains(enr.FitSummary, "Ada Example") {
		t.Errorf("FitSummary = %q, want canned sentence naming the profile", enr.FitSummary)
	}
	if enr.Tags != nil {
		t.Errorf("Tags = %v, fallback must not add tags", enr.Tags)
	}
	if enr.Score < 0.0 || enr.Score > 1.0 {
		t.Errorf("Score = %f, out of range", enr.Score)
	}
}

func TestEnrichMissingFieldFailsWhole(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"missing fitSummary", `{"score": 0.8, "tags": ["go"]}`},
		{"missing score", `{"fitSummary": "ok", "tags": ["go"]}`},
		{"missing tags", `{"fitSummary": "ok", "score": 0.8}`},
		{"mistyped score", `{"fitSummary": "ok", "score": "high", "tags": ["go"]}`},
		{"empty fitSummary", `{"fitSummary": "  ", "score": 0.8, "tags": ["go"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseResponse(tt.resp); err == nil {
				t.Errorf("parseResponse(%q) should fail: never partially trusted", tt.resp)
			}
		})
	}
}

func TestEnrichScoreClamped(t *testing.T) {
	backend := &mockBackend{responses: []string{
		`{"fitSummary": "Over-enthusiastic model.", "score": 3.7, "tags": ["go"]}`,
	}}
	e := New(backend, 3, nil)

	enr := e.Enrich(context.Background(), "go", testProfile())
	if enr.Score != 1.0 {
		t.Errorf("Score = %f, want clamp to 1.0", enr.Score)
	}
}

func TestEnrichRetriesThenSucceeds(t *testing.T) {
	backend := &mockBackend{
		errs: []error{fmt.Errorf("transient"), nil},
		responses: []string{
			"",
			`{"fitSummary": "Recovered.", "score": 0.5, "tags": ["go"]}`,
		},
	}
	e := New(backend, 3, nil)

	enr := e.Enrich(context.Background(), "go", testProfile())
	if enr.FitSummary != "Recovered." {
		t.Errorf("FitSummary = %q, want retried success", enr.FitSummary)
	}
	if backend.calls != 2 {
		t.Errorf("calls = %d, want 2", backend.calls)
	}
}

func TestEnrichNilBackendUsesHeuristic(t *testing.T) {
	e := New(nil, 3, nil)
	p := testProfile()

	enr := e.Enrich(context.Background(), "react developer building devtools in public", p)
	if enr.FitSummary == "" {
		t.Fatal("heuristic must produce a summary")
	}
	// Strong lexical and tag overlap should land in the upper band.
	if enr.Score <= 0.5 {
		t.Errorf("Score = %f, want above the 0.5 base for an overlapping profile", enr.Score)
	}
}

func TestApplyMergesTags(t *testing.T) {
	p := testProfile()
	Apply(&p, Enrichment{
		FitSummary: "Good fit.",
		Score:      0.9,
		Tags:       []string{"react", "oss", "typescript"},
	})

	want := []string{"react", "devtools", "oss", "typescript"}
	if !reflect.DeepEqual(p.Tags, want) {
		t.Errorf("Tags = %v, want union %v", p.Tags, want)
	}
	if p.Score != 0.9 {
		t.Errorf("Score = %f", p.Score)
	}
	if p.FitSummary != "Good fit." {
		t.Errorf("FitSummary = %q", p.FitSummary)
	}
}

func TestApplyFallbackKeepsOriginalTags(t *testing.T) {
	p := testProfile()
	original := append([]string(nil), p.Tags...)

	Apply(&p, heuristic("something unrelated", p))
	if !reflect.DeepEqual(p.Tags, original) {
		t.Errorf("Tags = %v, want unchanged %v", p.Tags, original)
	}
	if p.FitSummary == "" {
		t.Error("FitSummary must be the deterministic fallback sentence, not empty")
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	p := testProfile()
	a := heuristic("react developer", p)
	b := heuristic("react developer", p)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("heuristic not deterministic: %+v vs %+v", a, b)
	}
}

func TestClaudeBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"{\"fitSummary\":\"ok\",\"score\":0.4,\"tags\":[\"go\"]}"}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b := &ClaudeBackend{APIKey: "test-key", Client: ts.Client()}
	raw, err := b.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	enr, err := parseResponse(raw)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if enr.Score != 0.4 {
		t.Errorf("Score = %f", enr.Score)
	}
}

func TestClaudeBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b := &ClaudeBackend{APIKey: "test-key", Client: ts.Client()}
	if _, err := b.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}
