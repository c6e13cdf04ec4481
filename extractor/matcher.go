package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ImageMatcher is one strategy for locating the community avatar.
type ImageMatcher interface {
	// Name identifies the strategy in logs.
	Name() string

	// MatchImage returns the raw src of the image it found, if any.
	MatchImage(doc *goquery.Document) (string, bool)
}

// TextMatcher is one strategy for locating a piece of text.
type TextMatcher interface {
	Name() string
	MatchText(doc *goquery.Document) (string, bool)
}

// selectorMatcher takes the src of the first element matching a compiled
// selector. An element without a src is a miss; later elements matching the
// same selector are not considered.
type selectorMatcher struct {
	name string
	sel  cascadia.Selector
}

// NewSelectorMatcher compiles css into an ImageMatcher.
func NewSelectorMatcher(name, css string) (ImageMatcher, error) {
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("extractor: compile %q: %w", css, err)
	}
	return &selectorMatcher{name: name, sel: sel}, nil
}

func mustSelectorMatcher(name, css string) ImageMatcher {
	m, err := NewSelectorMatcher(name, css)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *selectorMatcher) Name() string { return m.name }

func (m *selectorMatcher) MatchImage(doc *goquery.Document) (string, bool) {
	first := doc.FindMatcher(m.sel).First()
	if first.Length() == 0 {
		return "", false
	}
	src, _ := first.Attr("src")
	src = strings.TrimSpace(src)
	return src, src != ""
}

// SrcContains matches an <img> whose src references host.
func SrcContains(host string) ImageMatcher {
	return mustSelectorMatcher("src-contains:"+host, fmt.Sprintf(`img[src*=%q]`, host))
}

// AltContains matches an <img> whose alt text contains text.
func AltContains(text string) ImageMatcher {
	return mustSelectorMatcher("alt-contains:"+text, fmt.Sprintf(`img[alt*=%q]`, text))
}

// TestID matches an <img> carrying the given data-testid.
func TestID(id string) ImageMatcher {
	return mustSelectorMatcher("testid:"+id, fmt.Sprintf(`img[data-testid=%q]`, id))
}

// ScopedHeading finds the first container, then the first heading inside it,
// and returns the heading's trimmed text.
type ScopedHeading struct {
	container cascadia.Selector
	heading   cascadia.Selector
	name      string
}

// NewScopedHeading compiles the container and heading selectors.
func NewScopedHeading(container, heading string) (*ScopedHeading, error) {
	c, err := cascadia.Compile(container)
	if err != nil {
		return nil, fmt.Errorf("extractor: compile %q: %w", container, err)
	}
	h, err := cascadia.Compile(heading)
	if err != nil {
		return nil, fmt.Errorf("extractor: compile %q: %w", heading, err)
	}
	return &ScopedHeading{container: c, heading: h, name: container + " " + heading}, nil
}

func (s *ScopedHeading) Name() string { return s.name }

func (s *ScopedHeading) MatchText(doc *goquery.Document) (string, bool) {
	scope := doc.FindMatcher(s.container).First()
	if scope.Length() == 0 {
		return "", false
	}
	h := scope.FindMatcher(s.heading).First()
	if h.Length() == 0 {
		return "", false
	}
	text := strings.TrimSpace(h.Text())
	return text, text != ""
}
