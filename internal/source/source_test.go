// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/lead-engine/internal/browser"
	"github.com/pdiddy/lead-engine/pkg/types"
)

// stubStrategy is a canned chain stage for exercising runChain.
type stubStrategy struct {
	stageName string
	profiles  []types.Profile
	err       error
	called    bool
}

func (s *stubStrategy) name() string { return s.stageName }

func (s *stubStrategy) fetch(_ context.Context, _ types.Query, _ int) ([]types.Profile, error) {
	s.called = true
	return s.profiles, s.err
}

func stubProfiles(n int) []types.Profile {
	profiles := make([]types.Profile, n)
	for i := range profiles {
		profiles[i] = newProfile(types.PlatformGitHub,
			fmt.Sprintf("user%d", i), "", "builds things", "https://github.com/user"+fmt.Sprint(i))
	}
	return profiles
}

func TestRunChainFirstNonEmptyWins(t *testing.T) {
	first := &stubStrategy{stageName: "scrape", err: errors.New("blocked")}
	second := &stubStrategy{stageName: "api", profiles: stubProfiles(2)}
	third := &stubStrategy{stageName: "contributors", profiles: stubProfiles(5)}

	profiles, err := runChain(context.Background(), nil, types.PlatformGitHub,
		[]strategy{first, second, third}, types.Query{}, 10)
	if err != nil {
		t.Fatalf("runChain returned error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles from the second stage, got %d", len(profiles))
	}
	if third.called {
		t.Error("third stage ran even though the second produced results")
	}
}

func TestRunChainEmptyStageAdvances(t *testing.T) {
	first := &stubStrategy{stageName: "scrape"}
	second := &stubStrategy{stageName: "api", profiles: stubProfiles(1)}

	profiles, err := runChain(context.Background(), nil, types.PlatformGitHub,
		[]strategy{first, second}, types.Query{}, 10)
	if err != nil {
		t.Fatalf("runChain returned error: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected the empty first stage to advance to the second, got %d profiles", len(profiles))
	}
}

func TestRunChainConfigErrorStopsChain(t *testing.T) {
	first := &stubStrategy{stageName: "api", err: &ConfigError{Platform: types.PlatformGitHub, Reason: "bad token"}}
	second := &stubStrategy{stageName: "contributors", profiles: stubProfiles(3)}

	_, err := runChain(context.Background(), nil, types.PlatformGitHub,
		[]strategy{first, second}, types.Query{}, 10)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if second.called {
		t.Error("chain advanced past a configuration error")
	}
}

func TestRunChainFinalStageErrorPropagates(t *testing.T) {
	first := &stubStrategy{stageName: "scrape", err: errors.New("blocked")}
	last := &stubStrategy{stageName: "api", err: &AcquireError{
		Platform: types.PlatformGitHub, Endpoint: "search/users", StatusCode: 500, Err: errors.New("unexpected status"),
	}}

	_, err := runChain(context.Background(), nil, types.PlatformGitHub,
		[]strategy{first, last}, types.Query{}, 10)

	var acqErr *AcquireError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected *AcquireError from the final stage, got %v", err)
	}
	if acqErr.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", acqErr.StatusCode)
	}
}

func TestRunChainAllEmptyReturnsNilNil(t *testing.T) {
	profiles, err := runChain(context.Background(), nil, types.PlatformGitHub,
		[]strategy{&stubStrategy{stageName: "scrape"}, &stubStrategy{stageName: "api"}},
		types.Query{}, 10)
	if err != nil {
		t.Fatalf("expected nil error when every stage is empty, got %v", err)
	}
	if profiles != nil {
		t.Fatalf("expected nil profiles, got %d", len(profiles))
	}
}

func TestRunChainTruncatesToLimit(t *testing.T) {
	stage := &stubStrategy{stageName: "api", profiles: stubProfiles(8)}
	profiles, err := runChain(context.Background(), nil, types.PlatformGitHub,
		[]strategy{stage}, types.Query{}, 3)
	if err != nil {
		t.Fatalf("runChain returned error: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("expected truncation to 3, got %d", len(profiles))
	}
}

func TestPositionScore(t *testing.T) {
	tests := []struct {
		i, total int
		want     float64
	}{
		{0, 5, 1.0},
		{4, 5, 0.1},
		{0, 1, 1.0},
		{2, 5, 0.55},
	}
	for _, tt := range tests {
		if got := positionScore(tt.i, tt.total); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("positionScore(%d, %d) = %v, want %v", tt.i, tt.total, got, tt.want)
		}
	}
}

func TestLikelyInactive(t *testing.T) {
	tests := []struct {
		bio                   string
		followers, publicRepo int
		want                  bool
	}{
		{"", 0, 0, true},
		{"writes Go", 0, 0, false},
		{"", 12, 0, false},
		{"", 0, 3, false},
	}
	for _, tt := range tests {
		if got := likelyInactive(tt.bio, tt.followers, tt.publicRepo); got != tt.want {
			t.Errorf("likelyInactive(%q, %d, %d) = %v, want %v", tt.bio, tt.followers, tt.publicRepo, got, tt.want)
		}
	}
}

func testQuery() types.Query {
	return types.Query{
		RawText:          "senior react developer",
		DetectedKeywords: []string{"react", "developer"},
		TargetPlatforms:  []types.Platform{types.PlatformGitHub},
		SortPreference:   types.SortFollowers,
		Filters:          []string{"in:bio react", "in:bio developer"},
	}
}

func TestGitHubAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/users"):
			if got := r.URL.Query().Get("sort"); got != "followers" {
				t.Errorf("sort = %q, want followers", got)
			}
			if q := r.URL.Query().Get("q"); !strings.Contains(q, "type:user") {
				t.Errorf("query %q missing type:user qualifier", q)
			}
			fmt.Fprint(w, `{"items":[
				{"login":"ada","type":"User","html_url":"https://github.com/ada"},
				{"login":"acme-inc","type":"Organization","html_url":"https://github.com/acme-inc"},
				{"login":"ghost","type":"User","html_url":"https://github.com/ghost"},
				{"login":"lin","type":"User","html_url":"https://github.com/lin"}]}`)
		case r.URL.Path == "/users/ada":
			fmt.Fprint(w, `{"login":"ada","name":"Ada Example","bio":"react developer","html_url":"https://github.com/ada",
				"followers":120,"following":10,"public_repos":30,"location":"London","updated_at":"2026-08-20T10:00:00Z"}`)
		case r.URL.Path == "/users/ghost":
			fmt.Fprint(w, `{"login":"ghost","name":"","bio":"","html_url":"https://github.com/ghost",
				"followers":0,"public_repos":0}`)
		case r.URL.Path == "/users/lin":
			fmt.Fprint(w, `{"login":"lin","name":"Lin Builder","bio":"frontend engineer","html_url":"https://github.com/lin",
				"followers":40,"public_repos":12,"updated_at":"2026-07-01T10:00:00Z"}`)
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	oldBase := githubAPIBase
	githubAPIBase = srv.URL
	defer func() { githubAPIBase = oldBase }()

	gh := NewGitHub(types.SourceConfig{GitHubToken: "tok"}, nil, nil)
	profiles, err := gh.FetchProfiles(context.Background(), testQuery(), 10)
	if err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles (org and inactive filtered), got %d", len(profiles))
	}
	if profiles[0].Username != "ada" || profiles[1].Username != "lin" {
		t.Errorf("unexpected result order: %s, %s", profiles[0].Username, profiles[1].Username)
	}
	if profiles[0].Score != 1.0 {
		t.Errorf("first profile prior score = %v, want 1.0", profiles[0].Score)
	}
	if profiles[1].Score >= profiles[0].Score {
		t.Errorf("position score not decaying: %v >= %v", profiles[1].Score, profiles[0].Score)
	}
	if profiles[0].Platform != types.PlatformGitHub {
		t.Errorf("platform = %s, want github", profiles[0].Platform)
	}
	if len(profiles[0].Tags) == 0 {
		t.Error("expected tags extracted from name and bio")
	}
}

func TestGitHubUnauthorizedSurfacesConfigError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	oldBase := githubAPIBase
	githubAPIBase = srv.URL
	defer func() { githubAPIBase = oldBase }()

	gh := NewGitHub(types.SourceConfig{GitHubToken: "expired"}, nil, nil)
	_, err := gh.FetchProfiles(context.Background(), testQuery(), 5)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError for HTTP 401, got %v", err)
	}
	if cfgErr.Platform != types.PlatformGitHub {
		t.Errorf("Platform = %s, want github", cfgErr.Platform)
	}
}

func TestGitHubContributorsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/users"):
			fmt.Fprint(w, `{"items":[]}`)
		case strings.HasPrefix(r.URL.Path, "/search/repositories"):
			fmt.Fprint(w, `{"items":[{"full_name":"acme/widgets"}]}`)
		case r.URL.Path == "/repos/acme/widgets/contributors":
			fmt.Fprint(w, `[{"login":"bot","type":"Bot"},{"login":"maya","type":"User"}]`)
		case r.URL.Path == "/users/maya":
			fmt.Fprint(w, `{"login":"maya","name":"Maya Dev","bio":"react maintainer","html_url":"https://github.com/maya",
				"followers":300,"public_repos":45,"updated_at":"2026-08-01T00:00:00Z"}`)
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	oldBase := githubAPIBase
	githubAPIBase = srv.URL
	defer func() { githubAPIBase = oldBase }()

	gh := NewGitHub(types.SourceConfig{}, nil, nil)
	profiles, err := gh.FetchProfiles(context.Background(), testQuery(), 5)
	if err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Username != "maya" {
		t.Fatalf("expected the contributor crawl to surface maya, got %+v", profiles)
	}
}

func TestTwitterAPIWithoutTokenIsConfigError(t *testing.T) {
	tw := NewTwitter(types.SourceConfig{}, nil, nil)
	_, err := tw.FetchProfiles(context.Background(), testQuery(), 5)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError without a bearer token, got %v", err)
	}
}

func TestTwitterAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer btok" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		fmt.Fprint(w, `{"data":[
			{"username":"ada_dev","name":"Ada","description":"react things","public_metrics":{"followers_count":900,"following_count":5}},
			{"username":"quiet","name":"Quiet","description":"","public_metrics":{"followers_count":0,"following_count":0}}]}`)
	}))
	defer srv.Close()

	oldBase := twitterAPIBase
	twitterAPIBase = srv.URL
	defer func() { twitterAPIBase = oldBase }()

	tw := NewTwitter(types.SourceConfig{TwitterBearerToken: "btok"}, nil, nil)
	profiles, err := tw.FetchProfiles(context.Background(), testQuery(), 5)
	if err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile after inactive filtering, got %d", len(profiles))
	}
	if profiles[0].Username != "ada_dev" || profiles[0].Followers != 900 {
		t.Errorf("unexpected profile: %+v", profiles[0])
	}
	if profiles[0].Platform != types.PlatformTwitter {
		t.Errorf("platform = %s, want twitter", profiles[0].Platform)
	}
}

func TestLinkedInWithoutBrowserReturnsEmpty(t *testing.T) {
	li := NewLinkedIn(types.SourceConfig{EnableScraping: true}, nil, nil)
	profiles, err := li.FetchProfiles(context.Background(), testQuery(), 5)
	if err != nil {
		t.Fatalf("expected nil error without a launcher, got %v", err)
	}
	if profiles != nil {
		t.Fatalf("expected no profiles without a launcher, got %d", len(profiles))
	}
}

// fakeSession records close calls so tests can assert the browser process
// is released on every exit path.
type fakeSession struct {
	rows        []scrapedUser
	navErr      error
	evalErr     error
	closed      bool
	navigatedTo string
}

func (s *fakeSession) Navigate(url string) error {
	s.navigatedTo = url
	return s.navErr
}

func (s *fakeSession) Evaluate(_ string, out any) error {
	if s.evalErr != nil {
		return s.evalErr
	}
	rows, ok := out.(*[]scrapedUser)
	if !ok {
		return fmt.Errorf("unexpected evaluate target %T", out)
	}
	*rows = s.rows
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeLauncher struct {
	session   *fakeSession
	launchErr error
}

func (l *fakeLauncher) Launch(_ context.Context) (browser.Session, error) {
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.session, nil
}

func TestGitHubScrapeFetch(t *testing.T) {
	session := &fakeSession{rows: []scrapedUser{
		{Username: "ada", Name: "Ada Example", Bio: "react developer", URL: "https://github.com/ada"},
		{Username: "navlink", Name: "", Bio: "", URL: "https://github.com/navlink"},
		{Username: "lin", Name: "Lin Builder", Bio: "frontend engineer", URL: "https://github.com/lin"},
	}}
	gh := NewGitHub(types.SourceConfig{EnableScraping: true}, &fakeLauncher{session: session}, nil)

	profiles, err := gh.FetchProfiles(context.Background(), testQuery(), 5)
	if err != nil {
		t.Fatalf("FetchProfiles returned error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles (bio-less row dropped), got %d", len(profiles))
	}
	if !strings.Contains(session.navigatedTo, "type=users") {
		t.Errorf("scrape navigated to %q, want a user search URL", session.navigatedTo)
	}
	if !session.closed {
		t.Error("browser session left open after a successful scrape")
	}
}

func TestScrapeClosesSessionOnError(t *testing.T) {
	session := &fakeSession{evalErr: errors.New("page layout changed")}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/search/users"):
			fmt.Fprint(w, `{"items":[{"login":"ada","type":"User","html_url":"https://github.com/ada"}]}`)
		case r.URL.Path == "/users/ada":
			fmt.Fprint(w, `{"login":"ada","name":"Ada Example","bio":"react developer","html_url":"https://github.com/ada",
				"followers":120,"public_repos":30,"updated_at":"2026-08-20T10:00:00Z"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	oldBase := githubAPIBase
	githubAPIBase = srv.URL
	defer func() { githubAPIBase = oldBase }()

	gh := NewGitHub(types.SourceConfig{EnableScraping: true}, &fakeLauncher{session: session}, nil)
	profiles, err := gh.FetchProfiles(context.Background(), testQuery(), 5)
	if err != nil {
		t.Fatalf("expected the chain to recover from the scrape failure, got %v", err)
	}
	if !session.closed {
		t.Fatal("browser session left open after a mid-scrape failure")
	}
	if len(profiles) != 1 || profiles[0].Username != "ada" {
		t.Fatalf("expected the API stage to take over, got %+v", profiles)
	}
}
