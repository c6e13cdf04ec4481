package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xcommunity/imagestore"
	"github.com/use-agent/xcommunity/models"
)

// ImageOpener reads stored images.
type ImageOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, imagestore.ObjectInfo, error)
}

// Image returns a handler for GET /images/:name that streams a stored image
// from whichever backend is configured.
func Image(store ImageOpener) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		rc, info, err := store.Open(c.Request.Context(), name)
		if errors.Is(err, imagestore.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "image not found"})
			return
		}
		if err != nil {
			slog.Error("image read failed", "name", name, "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "image read failed"})
			return
		}
		defer rc.Close()

		contentType := info.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
			"Cache-Control": "public, max-age=86400",
		})
	}
}
