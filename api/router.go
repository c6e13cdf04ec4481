package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xcommunity/api/handler"
	"github.com/use-agent/xcommunity/api/middleware"
	"github.com/use-agent/xcommunity/config"
)

// Scraper is what the router needs from the page scraper.
type Scraper interface {
	handler.CommunityScraper
	handler.PoolReporter
}

// ImageStore is what the router needs from the image store.
type ImageStore interface {
	handler.ImagePersister
	handler.ImageOpener
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	RequestID → Recovery → Logger → CORS
//
// Global middleware also runs on the 404 chain, so preflight requests for
// any path are answered by CORS without a dedicated OPTIONS route.
func NewRouter(sc Scraper, store ImageStore, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.GET("/health", handler.Health(sc, handler.HostStats, startTime))
	r.POST("/scrape", handler.Scrape(sc, store))
	r.GET(cfg.Storage.PublicPrefix+"/:name", handler.Image(store))

	return r
}
