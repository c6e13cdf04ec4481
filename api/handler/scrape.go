package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xcommunity/api/middleware"
	"github.com/use-agent/xcommunity/extractor"
	"github.com/use-agent/xcommunity/models"
)

// Client-facing error messages.
const (
	MsgInvalidURL        = "Invalid X community URL"
	MsgScrapeFailed      = "Failed to fetch image and name: "
	MsgRequestProcessing = "Request processing error: "
)

// CommunityScraper renders a community page and extracts its metadata.
type CommunityScraper interface {
	Scrape(ctx context.Context, url string) (*extractor.Result, error)
}

// ImagePersister stores a remote image and returns its public path.
type ImagePersister interface {
	Persist(ctx context.Context, imageURL string) (string, error)
}

// Scrape returns a handler for POST /scrape.
//
// Orchestration flow:
//  1. Decode & validate body (400 before any browser work).
//  2. Scraper.Scrape → remote image URL + community name.
//  3. ImagePersister.Persist → local /images/... reference (when an image was found).
//  4. Respond 200 with the possibly partial result.
func Scrape(sc CommunityScraper, images ImagePersister) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := middleware.RequestIDFrom(c)

		// ── 1. Parse & validate ─────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			slog.Error("request processing error", "request_id", reqID, "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: MsgRequestProcessing + err.Error(),
			})
			return
		}
		if !req.Valid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: MsgInvalidURL})
			return
		}

		slog.Info("starting scrape", "request_id", reqID, "url", req.CommunityURL)

		// ── 2. Scrape ───────────────────────────────────────────────
		res, err := sc.Scrape(c.Request.Context(), req.CommunityURL)
		if err != nil {
			respondScrapeError(c, reqID, err)
			return
		}

		// ── 3. Persist image ────────────────────────────────────────
		imageRef := ""
		if res.ImageURL != "" {
			imageRef, err = images.Persist(c.Request.Context(), res.ImageURL)
			if err != nil {
				respondScrapeError(c, reqID, err)
				return
			}
		}

		// ── 4. Respond ──────────────────────────────────────────────
		slog.Info("scraped data",
			"request_id", reqID,
			"imageUrl", imageRef,
			"sourceImageUrl", res.ImageURL,
			"communityName", res.CommunityName,
			"took_ms", time.Since(start).Milliseconds(),
		)
		c.JSON(http.StatusOK, models.NewCommunityResponse(imageRef, res.CommunityName))
	}
}

// respondScrapeError logs the failure with its code and writes the generic
// client message. Codes never leave the server.
func respondScrapeError(c *gin.Context, reqID string, err error) {
	code := models.CodeOf(err)
	slog.Error("error during scraping", "request_id", reqID, "code", code, "error", err)

	detail := err.Error()
	var se *models.ScrapeError
	if errors.As(err, &se) {
		detail = se.Detail()
	}

	status := http.StatusInternalServerError
	if code == models.ErrCodePoolExhausted {
		status = http.StatusServiceUnavailable
		c.Header("Retry-After", "5")
	}
	c.JSON(status, models.ErrorResponse{Error: MsgScrapeFailed + detail})
}
