// Package extractor pulls the community avatar and display name out of a
// rendered page snapshot. It never touches the network or the filesystem.
package extractor

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Image host and DOM anchors used by community pages.
const (
	ImageHost          = "pbs.twimg.com"
	AvatarTestID       = "communityAvatar"
	PrimaryColumnQuery = `div[data-testid="primaryColumn"]`
	HeadingQuery       = "h2"
)

// Result is what a page yields. An empty field means it was not found.
type Result struct {
	ImageURL      string
	CommunityName string
}

// Extractor applies ordered image strategies (first match wins) and a single
// name strategy to a document.
type Extractor struct {
	images []ImageMatcher
	name   TextMatcher
}

// New builds an Extractor from explicit strategies.
func New(name TextMatcher, images ...ImageMatcher) *Extractor {
	return &Extractor{images: images, name: name}
}

// Default returns the extractor for community pages.
func Default() *Extractor {
	heading, err := NewScopedHeading(PrimaryColumnQuery, HeadingQuery)
	if err != nil {
		panic(err)
	}
	return New(heading,
		SrcContains(ImageHost),
		AltContains("community"),
		TestID(AvatarTestID),
	)
}

// Extract parses rawHTML and runs the strategies. pageURL is used to resolve
// relative image sources the way a browser's img.src does.
func (e *Extractor) Extract(rawHTML, pageURL string) (*Result, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extractor: parse document: %w", err)
	}
	return e.ExtractDocument(goquery.NewDocumentFromNode(root), pageURL), nil
}

// ExtractDocument runs the strategies against an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document, pageURL string) *Result {
	res := &Result{}

	for _, m := range e.images {
		src, ok := m.MatchImage(doc)
		if !ok {
			continue
		}
		res.ImageURL = resolve(pageURL, src)
		slog.Debug("extractor: image matched", "strategy", m.Name(), "src", res.ImageURL)
		break
	}

	if e.name != nil {
		if name, ok := e.name.MatchText(doc); ok {
			res.CommunityName = name
		}
	}

	return res
}

// resolve makes src absolute against base. Unparseable input is returned
// unchanged.
func resolve(base, src string) string {
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return src
	}
	u, err := b.Parse(src)
	if err != nil {
		return src
	}
	return u.String()
}
