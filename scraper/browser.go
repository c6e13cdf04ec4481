package scraper

import "context"

// Launcher owns the browser process and hands out isolated sessions.
type Launcher interface {
	// Launch opens a fresh isolated browser context.
	Launch(ctx context.Context) (Session, error)

	// Close shuts the browser process down.
	Close() error
}

// Session is one isolated browser context. Nothing (cookies, cache,
// storage) is shared between sessions.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab. Every blocking method is bounded by ctx.
type Page interface {
	// Navigate loads url and returns once the DOM is ready.
	Navigate(ctx context.Context, url string) error

	// WaitElement blocks until selector matches an element.
	WaitElement(ctx context.Context, selector string) error

	// Snapshot returns the rendered HTML and the current location.
	Snapshot(ctx context.Context) (html, location string, err error)

	Close() error
}
