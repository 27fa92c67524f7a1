// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/pdiddy/lead-engine/internal/browser"
	"github.com/pdiddy/lead-engine/pkg/types"
)

var linkedinWebBase = "https://www.linkedin.com"

// LinkedIn fetches professional profiles from linkedin.com. There is no
// public search API, so the adapter is scrape-only: without a browser
// launcher (or with scraping disabled) it returns no profiles and no
// error, and the pipeline continues with other platforms.
type LinkedIn struct {
	cfg      types.SourceConfig
	launcher browser.Launcher
	logger   *zap.Logger
}

func NewLinkedIn(cfg types.SourceConfig, launcher browser.Launcher, logger *zap.Logger) *LinkedIn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkedIn{cfg: cfg, launcher: launcher, logger: logger}
}

func (l *LinkedIn) Platform() types.Platform { return types.PlatformLinkedIn }

func (l *LinkedIn) FetchProfiles(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	if !l.cfg.EnableScraping || l.launcher == nil {
		l.logger.Debug("linkedin adapter has no scrape stage available, skipping")
		return nil, nil
	}
	return runChain(ctx, l.logger, types.PlatformLinkedIn,
		[]strategy{&linkedinScrape{source: l}}, query, limit)
}

const linkedinScrapeScript = `
(() => {
	const rows = [];
	const seen = new Set();
	for (const link of document.querySelectorAll('a[href*="/in/"]')) {
		const m = (link.getAttribute('href') || '').match(/\/in\/([^/?#]+)/);
		if (!m || seen.has(m[1])) continue;
		const card = link.closest('li, div.entity-result, div[class*="search-result"]');
		if (!card) continue;
		seen.add(m[1]);
		const nameEl = card.querySelector('span[aria-hidden="true"], span.name');
		const bioEl = card.querySelector('div[class*="summary"], p[class*="subline"], div[class*="primary-subtitle"]');
		rows.push({
			username: m[1],
			name: nameEl ? nameEl.textContent.trim() : '',
			bio: bioEl ? bioEl.textContent.trim() : '',
			url: 'https://www.linkedin.com/in/' + m[1],
		});
	}
	return rows;
})()
`

type linkedinScrape struct {
	source *LinkedIn
}

func (s *linkedinScrape) name() string { return "scrape" }

func (s *linkedinScrape) fetch(ctx context.Context, query types.Query, limit int) ([]types.Profile, error) {
	session, err := s.source.launcher.Launch(ctx)
	if err != nil {
		return nil, &AcquireError{Platform: types.PlatformLinkedIn, Endpoint: "browser", Err: err}
	}
	defer session.Close()

	pageURL := fmt.Sprintf("%s/search/results/people/?keywords=%s",
		linkedinWebBase, url.QueryEscape(queryTerms(query)))
	if err := session.Navigate(pageURL); err != nil {
		return nil, &AcquireError{Platform: types.PlatformLinkedIn, Endpoint: pageURL, Err: err}
	}

	var rows []scrapedUser
	if err := session.Evaluate(linkedinScrapeScript, &rows); err != nil {
		return nil, &AcquireError{Platform: types.PlatformLinkedIn, Endpoint: pageURL, Err: err}
	}

	var profiles []types.Profile
	for _, row := range rows {
		if len(profiles) >= limit {
			break
		}
		if row.Bio == "" {
			continue
		}
		p := newProfile(types.PlatformLinkedIn, row.Username, row.Name, row.Bio, row.URL)
		profiles = append(profiles, p)
	}
	for i := range profiles {
		profiles[i].SetScore(positionScore(i, len(profiles)))
	}
	return profiles, nil
}
