// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lead-engine/internal/browser"
	"github.com/pdiddy/lead-engine/internal/httputil"
	"github.com/pdiddy/lead-engine/pkg/types"
)

// API base URLs, package-level so tests can point them at httptest servers.
var (
	githubAPIBase = "https://api.github.com"
	githubWebBase = "https://github.com"
)

// GitHub fetches developer profiles from github.com. Its fallback chain
// is browser scrape (when enabled), then the user search API, then a
// repository-contributor crawl for queries user search cannot answer.
type GitHub struct {
	cfg      types.SourceConfig
	launcher browser.Launcher
	client   *http.Client
	logger   *zap.Logger
}

// NewGitHub builds a GitHub source. launcher may be nil, which disables
// the scrape stage regardless of cfg.EnableScraping.
func NewGitHub(cfg types.SourceConfig, launcher browser.Launcher, logger *zap.Logger) *GitHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GitHub{
		cfg:      cfg,
		launcher: launcher,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (g *GitHub) Platform() types.Platform { return types.PlatformGitHub }

// FetchProfiles runs the fallback chain for one query.
func (g *GitHub) FetchProfiles(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	var strategies []strategy
	if g.cfg.EnableScraping && g.launcher != nil {
		strategies = append(strategies, &githubScrape{source: g})
	}
	strategies = append(strategies,
		&githubAPI{source: g},
		&githubContributors{source: g},
	)
	return runChain(ctx, g.logger, types.PlatformGitHub, strategies, query, limit)
}

// FetchByUsernames refetches profiles by handle via the users API,
// skipping handles that have gone missing or inactive. Used by store
// refresh to bring persisted records up to date.
func (g *GitHub) FetchByUsernames(ctx context.Context, usernames []string) ([]types.Profile, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	return g.hydrate(ctx, usernames, len(usernames))
}

// doGet issues an authenticated GET against the GitHub API with retry on
// rate limiting. The caller owns the response body.
func (g *GitHub) doGet(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", g.cfg.UserAgent)
	}
	if g.cfg.GitHubToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.GitHubToken)
	}
	return httputil.DoWithRetry(ctx, g.client, req, 0)
}

// classifyStatus maps a non-200 API status to the right error type:
// credential rejection is a *ConfigError, everything else an *AcquireError.
func classifyStatus(platform types.Platform, endpoint string, status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &ConfigError{
			Platform: platform,
			Reason:   fmt.Sprintf("API rejected credentials at %s (HTTP %d)", endpoint, status),
		}
	}
	return &AcquireError{
		Platform:   platform,
		Endpoint:   endpoint,
		StatusCode: status,
		Err:        fmt.Errorf("unexpected status"),
	}
}

type githubSearchUsersResponse struct {
	Items []struct {
		Login   string `json:"login"`
		Type    string `json:"type"`
		HTMLURL string `json:"html_url"`
	} `json:"items"`
}

type githubUser struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	HTMLURL     string `json:"html_url"`
	Location    string `json:"location"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
	PublicRepos int    `json:"public_repos"`
	UpdatedAt   string `json:"updated_at"`
}

// githubAPI queries the official user search endpoint and hydrates each
// hit with a per-user lookup for bio and activity counters.
type githubAPI struct {
	source *GitHub
}

func (s *githubAPI) name() string { return "api" }

func (s *githubAPI) fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	q := strings.Join(query.Filters, " ") + " type:user"
	endpoint := fmt.Sprintf("%s/search/users?q=%s&per_page=%d",
		githubAPIBase, url.QueryEscape(q), limit)
	if query.SortPreference != "" {
		endpoint += "&sort=" + url.QueryEscape(string(query.SortPreference))
	}

	resp, err := s.source.doGet(ctx, endpoint)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, classifyStatus(types.PlatformGitHub, endpoint, resp.StatusCode)
	}

	var result githubSearchUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
	}

	var logins []string
	for _, item := range result.Items {
		// Organizations share the search index with users; skip them.
		if item.Type != "User" {
			continue
		}
		logins = append(logins, item.Login)
	}
	return s.source.hydrate(ctx, logins, limit)
}

// hydrate fetches full user records for a set of logins, dropping inactive
// accounts and assigning a position-based prior score to the rest.
func (g *GitHub) hydrate(ctx context.Context, logins []string, limit int) ([]types.Profile, error) {
	var profiles []types.Profile
	for _, login := range logins {
		if len(profiles) >= limit {
			break
		}
		endpoint := fmt.Sprintf("%s/users/%s", githubAPIBase, url.PathEscape(login))
		resp, err := g.doGet(ctx, endpoint)
		if err != nil {
			return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			statusErr := classifyStatus(types.PlatformGitHub, endpoint, resp.StatusCode)
			var cfgErr *ConfigError
			if errors.As(statusErr, &cfgErr) {
				return nil, statusErr
			}
			// A single missing user record is not worth failing the batch.
			g.logger.Debug("skipping user hydration failure",
				zap.String("login", login), zap.Int("status", resp.StatusCode))
			continue
		}

		var user githubUser
		err = json.NewDecoder(resp.Body).Decode(&user)
		resp.Body.Close()
		if err != nil {
			return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
		}
		if likelyInactive(user.Bio, user.Followers, user.PublicRepos) {
			continue
		}

		p := newProfile(types.PlatformGitHub, user.Login, user.Name, user.Bio, user.HTMLURL)
		p.AvatarURL = user.AvatarURL
		p.Location = user.Location
		p.Followers = user.Followers
		p.Following = user.Following
		p.PublicRepos = user.PublicRepos
		if t, err := time.Parse(time.RFC3339, user.UpdatedAt); err == nil {
			p.LastUpdated = t
		}
		profiles = append(profiles, p)
	}
	for i := range profiles {
		profiles[i].SetScore(positionScore(i, len(profiles)))
	}
	return profiles, nil
}

type githubSearchReposResponse struct {
	Items []struct {
		FullName string `json:"full_name"`
	} `json:"items"`
}

type githubContributor struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// githubContributors finds matching repositories and crawls their top
// contributors. It answers queries where user search is empty but the
// topic has active repositories.
type githubContributors struct {
	source *GitHub
}

func (s *githubContributors) name() string { return "contributors" }

const contributorRepoCount = 3

func (s *githubContributors) fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	// Repository search does not understand in:bio qualifiers; search on
	// the detected keywords (or raw text) instead.
	terms := strings.Join(query.DetectedKeywords, " ")
	if terms == "" {
		terms = query.RawText
	}
	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&per_page=%d",
		githubAPIBase, url.QueryEscape(terms), contributorRepoCount)

	resp, err := s.source.doGet(ctx, endpoint)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, classifyStatus(types.PlatformGitHub, endpoint, resp.StatusCode)
	}

	var repos githubSearchReposResponse
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
	}

	seen := make(map[string]bool)
	var logins []string
	for _, repo := range repos.Items {
		if len(logins) >= limit {
			break
		}
		contributors, err := s.contributors(ctx, repo.FullName, limit)
		if err != nil {
			var cfgErr *ConfigError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			s.source.logger.Debug("skipping repo contributor failure",
				zap.String("repo", repo.FullName), zap.Error(err))
			continue
		}
		for _, c := range contributors {
			if c.Type != "User" || seen[c.Login] {
				continue
			}
			seen[c.Login] = true
			logins = append(logins, c.Login)
			if len(logins) >= limit {
				break
			}
		}
	}
	return s.source.hydrate(ctx, logins, limit)
}

func (s *githubContributors) contributors(ctx context.Context, fullName string, limit int) ([]githubContributor, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contributors?per_page=%d", githubAPIBase, fullName, limit)
	resp, err := s.source.doGet(ctx, endpoint)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, classifyStatus(types.PlatformGitHub, endpoint, resp.StatusCode)
	}

	var contributors []githubContributor
	if err := json.NewDecoder(resp.Body).Decode(&contributors); err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: endpoint, Err: err}
	}
	return contributors, nil
}

// scrapedUser is the row shape the scrape script extracts from the user
// search results page.
type scrapedUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	URL      string `json:"url"`
}

// githubScrape drives a headless browser over the public user search
// page. It runs first because it needs no credentials and sees the same
// ranking a human visitor would.
type githubScrape struct {
	source *GitHub
}

func (s *githubScrape) name() string { return "scrape" }

// githubScrapeScript pulls username, display name, and bio out of the
// search result list. Selector details are deliberately loose: result
// rows are identified by their profile links rather than class names,
// which GitHub changes often.
const githubScrapeScript = `
(() => {
	const rows = [];
	const seen = new Set();
	for (const a of document.querySelectorAll('a[href^="/"]')) {
		const href = a.getAttribute('href') || '';
		if (!/^\/[A-Za-z0-9-]+$/.test(href)) continue;
		const username = href.slice(1);
		if (seen.has(username)) continue;
		const row = a.closest('div[data-testid], li, div.Box-sc-g0xbh4-0') || a.parentElement;
		if (!row) continue;
		seen.add(username);
		const nameEl = row.querySelector('h3, .search-title, span[class*="name"]');
		const bioEl = row.querySelector('p, span[class*="bio"], div[class*="description"]');
		rows.push({
			username: username,
			name: nameEl ? nameEl.textContent.trim() : '',
			bio: bioEl ? bioEl.textContent.trim() : '',
			url: 'https://github.com' + href,
		});
	}
	return rows;
})()
`

func (s *githubScrape) fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	session, err := s.source.launcher.Launch(ctx)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: "browser", Err: err}
	}
	defer session.Close()

	q := strings.Join(query.Filters, " ")
	pageURL := fmt.Sprintf("%s/search?q=%s&type=users", githubWebBase, url.QueryEscape(q))
	if err := session.Navigate(pageURL); err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: pageURL, Err: err}
	}

	var rows []scrapedUser
	if err := session.Evaluate(githubScrapeScript, &rows); err != nil {
		return nil, &AcquireError{Platform: types.PlatformGitHub, Endpoint: pageURL, Err: err}
	}

	var profiles []types.Profile
	for _, row := range rows {
		if len(profiles) >= limit {
			break
		}
		// Rows without a bio are navigation links the extractor caught,
		// or empty accounts; neither is a lead.
		if row.Bio == "" {
			continue
		}
		profiles = append(profiles, newProfile(types.PlatformGitHub, row.Username, row.Name, row.Bio, row.URL))
	}
	for i := range profiles {
		profiles[i].SetScore(positionScore(i, len(profiles)))
	}
	return profiles, nil
}
