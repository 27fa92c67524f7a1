// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser wraps headless-Chrome automation behind a small
// launcher/session interface so scrape strategies can be tested with
// fakes. A Session owns an OS browser process: it must be closed on
// every exit path, including error paths, or the process leaks.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single scoped browser instance.
type Session interface {
	// Navigate loads url and waits for the document body.
	Navigate(url string) error

	// Evaluate runs a JavaScript expression on the current page and
	// unmarshals its JSON result into out.
	Evaluate(script string, out any) error

	// Close releases the browser process. Safe to call more than once.
	Close() error
}

const defaultTimeout = 30 * time.Second

// Chrome launches headless Chrome via chromedp.
type Chrome struct {
	// Timeout bounds each navigation or evaluation (default 30s).
	Timeout time.Duration
}

// Launch starts a browser process. The returned session is bound to ctx:
// cancelling ctx tears the browser down as well.
func (c *Chrome) Launch(ctx context.Context) (Session, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions starts the process now, so Launch fails fast
	// when Chrome is unavailable instead of at first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &chromeSession{
		ctx:     browserCtx,
		timeout: timeout,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	timeout time.Duration
	cancels []context.CancelFunc
}

func (s *chromeSession) Navigate(url string) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) Evaluate(script string, out any) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluating page script: %w", err)
	}
	return nil
}

func (s *chromeSession) Close() error {
	for _, cancel := range s.cancels {
		cancel()
	}
	return nil
}
