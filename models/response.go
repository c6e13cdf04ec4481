package models

// CommunityResponse is the 200 response for POST /scrape. Absent fields are
// serialized as JSON null.
type CommunityResponse struct {
	ImageURL      *string `json:"imageUrl"`
	CommunityName *string `json:"communityName"`
}

// NewCommunityResponse builds a response, treating empty strings as absent.
func NewCommunityResponse(imageURL, communityName string) CommunityResponse {
	return CommunityResponse{
		ImageURL:      optional(imageURL),
		CommunityName: optional(communityName),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string      `json:"status"` // "healthy" or "degraded"
	Uptime  string      `json:"uptime"`
	Pool    PoolStats   `json:"pool"`
	System  SystemStats `json:"system"`
	Version string      `json:"version"`
}

// SystemStats reports host resource usage. Chrome shares the host, so
// memory pressure is the usual cause of failed page loads.
type SystemStats struct {
	MemUsedPercent float64 `json:"memUsedPercent"`
	Goroutines     int     `json:"goroutines"`
}

// PoolStats reports the state of the browser context pool.
type PoolStats struct {
	Size   int `json:"size"`
	Active int `json:"active"`
}
