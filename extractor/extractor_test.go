package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://x.com/i/communities/12345"

func TestExtract_CommunityPage(t *testing.T) {
	doc := `<html><body>
		<img src="https://pbs.twimg.com/a.jpg">
		<div data-testid="primaryColumn"><h2>Test Community</h2></div>
	</body></html>`

	res, err := Default().Extract(doc, pageURL)
	require.NoError(t, err)
	assert.Equal(t, "https://pbs.twimg.com/a.jpg", res.ImageURL)
	assert.Equal(t, "Test Community", res.CommunityName)
}

func TestExtract_ImagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "host match beats alt and testid",
			html: `<img data-testid="communityAvatar" src="/testid.png">
				<img alt="community banner" src="/alt.png">
				<img src="https://pbs.twimg.com/host.jpg">`,
			want: "https://pbs.twimg.com/host.jpg",
		},
		{
			name: "alt used when host absent",
			html: `<img data-testid="communityAvatar" src="https://cdn.example/testid.png">
				<img alt="the community avatar" src="https://cdn.example/alt.png">`,
			want: "https://cdn.example/alt.png",
		},
		{
			name: "testid used last",
			html: `<img alt="profile" src="https://cdn.example/other.png">
				<img data-testid="communityAvatar" src="https://cdn.example/testid.png">`,
			want: "https://cdn.example/testid.png",
		},
		{
			name: "first element of a selector wins",
			html: `<img src="https://pbs.twimg.com/first.jpg"><img src="https://pbs.twimg.com/second.jpg">`,
			want: "https://pbs.twimg.com/first.jpg",
		},
		{
			name: "alt match with empty src falls through",
			html: `<img alt="community" src="">
				<img data-testid="communityAvatar" src="https://cdn.example/testid.png">`,
			want: "https://cdn.example/testid.png",
		},
		{
			name: "relative src resolved against page",
			html: `<img alt="community" src="/media/avatar.png">`,
			want: "https://x.com/media/avatar.png",
		},
		{
			name: "nothing matches",
			html: `<img alt="logo" src="https://cdn.example/logo.png">`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Default().Extract(tt.html, pageURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ImageURL)
		})
	}
}

func TestExtract_CommunityName(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"trimmed", `<div data-testid="primaryColumn"><h2>
			Gophers  </h2></div>`, "Gophers"},
		{"nested text", `<div data-testid="primaryColumn"><section><h2><span>Go</span> <span>Devs</span></h2></section></div>`, "Go Devs"},
		{"first heading in container", `<div data-testid="primaryColumn"><h2>One</h2><h2>Two</h2></div>`, "One"},
		{"heading outside container ignored", `<h2>Outside</h2><div data-testid="primaryColumn"><p>none</p></div>`, ""},
		{"no container", `<h2>Orphan</h2>`, ""},
		{"whitespace only", `<div data-testid="primaryColumn"><h2>   </h2></div>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Default().Extract(tt.html, pageURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.CommunityName)
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	doc := `<img alt="community" src="https://cdn.example/a.png"><div data-testid="primaryColumn"><h2>A</h2></div>`
	e := Default()

	first, err := e.Extract(doc, pageURL)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := e.Extract(doc, pageURL)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewSelectorMatcher_InvalidSelector(t *testing.T) {
	_, err := NewSelectorMatcher("bad", "img[")
	assert.Error(t, err)

	_, err = NewScopedHeading("div[", "h2")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://x.com/a.png", resolve("https://x.com/i/communities/1", "/a.png"))
	assert.Equal(t, "https://pbs.twimg.com/a.jpg", resolve("https://x.com/", "https://pbs.twimg.com/a.jpg"))
	assert.Equal(t, "/a.png", resolve("", "/a.png"))
}
