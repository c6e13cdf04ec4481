package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/xcommunity/config"
	"github.com/use-agent/xcommunity/extractor"
	"github.com/use-agent/xcommunity/imagestore"
	"github.com/use-agent/xcommunity/models"
)

type stubScraper struct{ result *extractor.Result }

func (s stubScraper) Scrape(context.Context, string) (*extractor.Result, error) {
	return s.result, nil
}

func (s stubScraper) Stats() models.PoolStats { return models.PoolStats{Size: 4} }

type stubStore struct{}

func (stubStore) Persist(context.Context, string) (string, error) {
	return "/images/community_1700000000000.jpg", nil
}

func (stubStore) Open(_ context.Context, name string) (io.ReadCloser, imagestore.ObjectInfo, error) {
	if name != "community_1700000000000.jpg" {
		return nil, imagestore.ObjectInfo{}, imagestore.ErrNotFound
	}
	return io.NopCloser(strings.NewReader("jpg")), imagestore.ObjectInfo{Size: 3, ContentType: "image/jpeg"}, nil
}

func newTestRouter() *gin.Engine {
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: gin.TestMode},
		Storage: config.StorageConfig{PublicPrefix: "/images"},
	}
	sc := stubScraper{result: &extractor.Result{
		ImageURL:      "https://pbs.twimg.com/a.jpg",
		CommunityName: "Go Devs",
	}}
	return NewRouter(sc, stubStore{}, cfg, time.Now())
}

func TestRouter_ScrapeThenServeImage(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/scrape",
		strings.NewReader(`{"communityURL":"https://x.com/i/communities/1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"imageUrl":"/images/community_1700000000000.jpg","communityName":"Go Devs"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/community_1700000000000.jpg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpg", w.Body.String())
}

func TestRouter_Preflight(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/scrape", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pool":{"size":4,"active":0}`)
}

func TestRouter_UnknownImage(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/other.jpg", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
