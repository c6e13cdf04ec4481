package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the xcommunity API request model.
type scrapeRequest struct {
	CommunityURL string `json:"communityURL"`
}

// scrapeResponse mirrors both the success and error bodies of POST /scrape.
type scrapeResponse struct {
	ImageURL      *string `json:"imageUrl"`
	CommunityName *string `json:"communityName"`
	Error         string  `json:"error"`
}

func main() {
	apiURL := os.Getenv("XC_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"xcommunity",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_community",
		mcp.WithDescription("Fetch an X (Twitter) community page in a headless browser and return the community name and a link to its downloaded avatar image."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Community URL, e.g. https://x.com/i/communities/1234567890"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeCommunity(newAPIClient(apiURL)))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newAPIClient returns a resty client bound to the xcommunity API.
func newAPIClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(120 * time.Second).
		SetHeader("Content-Type", "application/json")
}

func handleScrapeCommunity(client *resty.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var sr scrapeResponse
		resp, err := client.R().
			SetContext(ctx).
			SetBody(scrapeRequest{CommunityURL: url}).
			SetResult(&sr).
			SetError(&sr).
			Post("/scrape")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}

		if resp.StatusCode() != http.StatusOK {
			errMsg := sr.Error
			if errMsg == "" {
				errMsg = resp.Status()
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatResult(client.BaseURL, sr)), nil
	}
}

// formatResult renders the scrape result as plain text. Relative image
// references are made absolute against the API base URL.
func formatResult(apiURL string, sr scrapeResponse) string {
	name := "(not found)"
	if sr.CommunityName != nil {
		name = *sr.CommunityName
	}
	image := "(not found)"
	if sr.ImageURL != nil {
		image = *sr.ImageURL
		if strings.HasPrefix(image, "/") {
			image = apiURL + image
		}
	}
	return fmt.Sprintf("Community: %s\nImage: %s", name, image)
}
