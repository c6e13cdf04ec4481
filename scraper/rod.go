package scraper

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/xcommunity/config"
	"github.com/use-agent/xcommunity/models"
	"github.com/ysmood/gson"
)

// RodLauncher runs one Chrome process and opens an incognito browser
// context per session.
type RodLauncher struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	scraperCfg config.ScraperConfig
}

// NewRodLauncher launches headless Chrome and connects to it.
func NewRodLauncher(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*RodLauncher, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &RodLauncher{
		launcher:   l,
		browser:    browser,
		scraperCfg: scraperCfg,
	}, nil
}

// Launch opens an incognito context. The context is not bound to ctx so
// that it can still be disposed after the request deadline has passed.
func (r *RodLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := r.browser.Incognito()
	if err != nil {
		return nil, err
	}
	return &rodSession{browser: b, cfg: r.scraperCfg}, nil
}

// Close disconnects and kills Chrome to prevent zombie processes.
func (r *RodLauncher) Close() error {
	err := r.browser.Close()
	r.launcher.Kill()
	return err
}

type rodSession struct {
	browser *rod.Browser
	cfg     config.ScraperConfig
}

// NewPage opens a tab with stealth, headers and resource blocking installed.
// All three must be in place before the first navigation.
func (s *rodSession) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if s.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	if s.cfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": s.cfg.AcceptLanguage}),
		}.Call(page)
	}

	return &rodPage{
		page:   page,
		router: setupHijack(page, s.cfg.BlockedResourceTypes),
	}, nil
}

// Close disposes the incognito context and every page still open in it.
func (s *rodSession) Close() error {
	return s.browser.Close()
}

type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter
}

// Navigate registers the DOMContentLoaded waiter before navigating so the
// event cannot be missed.
func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pc := p.page.Context(ctx)
	wait := pc.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := pc.Navigate(url); err != nil {
		return err
	}
	wait()
	return ctx.Err()
}

func (p *rodPage) WaitElement(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return err
}

func (p *rodPage) Snapshot(ctx context.Context) (string, string, error) {
	pc := p.page.Context(ctx)
	rawHTML, err := pc.HTML()
	if err != nil {
		return "", "", err
	}
	return rawHTML, evalStringOrEmpty(pc, `() => window.location.href`), nil
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
