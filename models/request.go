package models

import "strings"

// CommunityPathMarker identifies a community page URL.
const CommunityPathMarker = "x.com/i/communities/"

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// CommunityURL is the community page to scrape. Required.
	CommunityURL string `json:"communityURL"`
}

// Valid reports whether the request names a community page.
func (r *ScrapeRequest) Valid() bool {
	return r.CommunityURL != "" && strings.Contains(r.CommunityURL, CommunityPathMarker)
}
