// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
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

var (
	twitterAPIBase = "https://api.twitter.com"
	twitterWebBase = "https://twitter.com"
)

// Twitter fetches creator profiles from twitter.com: browser scrape when
// enabled, then the v2 user search API behind a bearer token.
type Twitter struct {
	cfg      types.SourceConfig
	launcher browser.Launcher
	client   *http.Client
	logger   *zap.Logger
}

func NewTwitter(cfg types.SourceConfig, launcher browser.Launcher, logger *zap.Logger) *Twitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Twitter{
		cfg:      cfg,
		launcher: launcher,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (t *Twitter) Platform() types.Platform { return types.PlatformTwitter }

func (t *Twitter) FetchProfiles(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	var strategies []strategy
	if t.cfg.EnableScraping && t.launcher != nil {
		strategies = append(strategies, &twitterScrape{source: t})
	}
	strategies = append(strategies, &twitterAPI{source: t})
	return runChain(ctx, t.logger, types.PlatformTwitter, strategies, query, limit)
}

// queryTerms strips platform-specific qualifiers like "in:bio" from the
// filters, leaving bare search terms other platforms can use.
func queryTerms(query types.Query) string {
	if len(query.DetectedKeywords) > 0 {
		return strings.Join(query.DetectedKeywords, " ")
	}
	var terms []string
	for _, f := range query.Filters {
		terms = append(terms, strings.TrimPrefix(f, "in:bio "))
	}
	return strings.Join(terms, " ")
}

type twitterSearchResponse struct {
	Data []struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Bio      string `json:"description"`
		Metrics  struct {
			Followers int `json:"followers_count"`
			Following int `json:"following_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// twitterAPI queries the v2 user search endpoint. Running without a
// bearer token is a configuration error, not an empty result.
type twitterAPI struct {
	source *Twitter
}

func (s *twitterAPI) name() string { return "api" }

func (s *twitterAPI) fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	if s.source.cfg.TwitterBearerToken == "" {
		return nil, &ConfigError{
			Platform: types.PlatformTwitter,
			Reason:   "no bearer token configured",
		}
	}

	endpoint := fmt.Sprintf("%s/2/users/search?query=%s&max_results=%d&user.fields=description,public_metrics",
		twitterAPIBase, url.QueryEscape(queryTerms(query)), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformTwitter, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.source.cfg.TwitterBearerToken)
	if s.source.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.source.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, s.source.client, req, 0)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformTwitter, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, classifyStatus(types.PlatformTwitter, endpoint, resp.StatusCode)
	}

	var result twitterSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &AcquireError{Platform: types.PlatformTwitter, Endpoint: endpoint, Err: err}
	}

	var profiles []types.Profile
	for _, user := range result.Data {
		if len(profiles) >= limit {
			break
		}
		if likelyInactive(user.Bio, user.Metrics.Followers, 0) {
			continue
		}
		p := newProfile(types.PlatformTwitter, user.Username, user.Name, user.Bio,
			twitterWebBase+"/"+user.Username)
		p.Followers = user.Metrics.Followers
		p.Following = user.Metrics.Following
		profiles = append(profiles, p)
	}
	for i := range profiles {
		profiles[i].SetScore(positionScore(i, len(profiles)))
	}
	return profiles, nil
}

// twitterScrape drives a headless browser over the people search page.
type twitterScrape struct {
	source *Twitter
}

func (s *twitterScrape) name() string { return "scrape" }

const twitterScrapeScript = `
(() => {
	const rows = [];
	const seen = new Set();
	for (const cell of document.querySelectorAll('[data-testid="UserCell"]')) {
		const link = cell.querySelector('a[href^="/"]');
		if (!link) continue;
		const username = (link.getAttribute('href') || '').replace(/^\//, '');
		if (!username || seen.has(username)) continue;
		seen.add(username);
		const spans = cell.querySelectorAll('span');
		const bioEl = cell.querySelector('[data-testid="UserDescription"]');
		rows.push({
			username: username,
			name: spans.length ? spans[0].textContent.trim() : '',
			bio: bioEl ? bioEl.textContent.trim() : '',
			url: 'https://twitter.com/' + username,
		});
	}
	return rows;
})()
`

func (s *twitterScrape) fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	session, err := s.source.launcher.Launch(ctx)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformTwitter, Endpoint: "browser", Err: err}
	}
	defer session.Close()

	pageURL := fmt.Sprintf("%s/search?q=%s&f=user", twitterWebBase, url.QueryEscape(queryTerms(query)))
	if err := session.Navigate(pageURL); err != nil {
		return nil, &AcquireError{Platform: types.PlatformTwitter, Endpoint: pageURL, Err: err}
	}

	var rows []scrapedUser
	if err := session.Evaluate(twitterScrapeScript, &rows); err != nil {
		return nil, &AcquireError{Platform: types.PlatformTwitter, Endpoint: pageURL, Err: err}
	}

	var profiles []types.Profile
	for _, row := range rows {
		if len(profiles) >= limit {
			break
		}
		if row.Bio == "" {
			continue
		}
		profiles = append(profiles, newProfile(types.PlatformTwitter, row.Username, row.Name, row.Bio, row.URL))
	}
	for i := range profiles {
		profiles[i].SetScore(positionScore(i, len(profiles)))
	}
	return profiles, nil
}
