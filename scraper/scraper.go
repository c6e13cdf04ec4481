package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/xcommunity/config"
	"github.com/use-agent/xcommunity/extractor"
	"github.com/use-agent/xcommunity/models"
)

// Scraper visits one community page per call using a leased browser context.
// It is safe for concurrent use.
type Scraper struct {
	pool      *Pool
	extractor *extractor.Extractor
	cfg       config.ScraperConfig
}

// New creates a Scraper.
func New(pool *Pool, ex *extractor.Extractor, cfg config.ScraperConfig) *Scraper {
	return &Scraper{pool: pool, extractor: ex, cfg: cfg}
}

// Stats returns the pool state.
func (s *Scraper) Stats() models.PoolStats {
	return s.pool.Stats()
}

// Scrape renders targetURL and extracts the community avatar and name.
//
// Lifecycle:
//
//  1. Deadline        – hard bound on the whole visit
//  2. Lease           – isolated browser context from the pool
//  3. Open page       – stealth/headers/blocking installed before navigation
//  4. Navigate        – until DOMContentLoaded, bounded by NavigationTimeout
//  5. Heading wait    – best effort, a timeout only logs
//  6. Snapshot        – rendered HTML + current location
//  7. Extract         – ordered matchers over the snapshot
//
// The page is closed and then the context is released on every return path.
func (s *Scraper) Scrape(ctx context.Context, targetURL string) (*extractor.Result, error) {
	// ── 1. Deadline ─────────────────────────────────────────────────
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	// ── 2. Lease a browser context ──────────────────────────────────
	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrPoolExhausted) {
			return nil, models.NewScrapeError(models.ErrCodePoolExhausted, "no browser available", err)
		}
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open browser context", err)
	}
	defer lease.Release()

	// ── 3. Open page ────────────────────────────────────────────────
	page, err := lease.NewPage(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("cleanup: failed to close page", "error", closeErr)
		}
	}()

	// ── 4. Navigate ─────────────────────────────────────────────────
	navCtx, navCancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	err = page.Navigate(navCtx, targetURL)
	navCancel()
	if err != nil {
		return nil, categorizeError(err, "navigation to community page failed")
	}

	// ── 5. Best-effort heading wait ─────────────────────────────────
	waitCtx, waitCancel := context.WithTimeout(ctx, s.cfg.HeadingTimeout)
	err = page.WaitElement(waitCtx, extractor.HeadingQuery)
	waitCancel()
	if err != nil {
		slog.Warn("heading not found, continuing with partial data",
			"url", targetURL,
			"code", models.ErrCodeElementWaitTimeout,
			"error", err,
		)
	}

	// ── 6. Snapshot ─────────────────────────────────────────────────
	rawHTML, location, err := page.Snapshot(ctx)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to read rendered page", err)
	}
	if location == "" {
		location = targetURL
	}

	// ── 7. Extract ──────────────────────────────────────────────────
	res, err := s.extractor.Extract(rawHTML, location)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to evaluate page", err)
	}
	return res, nil
}

// categorizeError wraps raw navigation errors into typed ScrapeErrors so the
// API layer can map them to HTTP responses.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeNavigationTimeout, "navigation timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeNavigation, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

// Shutdown closes the launcher, logging how long it took.
func Shutdown(l Launcher) {
	start := time.Now()
	slog.Info("scraper shutting down: closing browser")
	if err := l.Close(); err != nil {
		slog.Warn("scraper shutdown: browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete", "took", time.Since(start).Round(time.Millisecond).String())
}
