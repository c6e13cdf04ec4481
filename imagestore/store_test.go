package imagestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/xcommunity/config"
	"github.com/use-agent/xcommunity/models"
)

var refPattern = regexp.MustCompile(`^/images/community_\d+\.jpg$`)

func newLocalStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	backend, err := NewLocalBackend(dir)
	require.NoError(t, err)
	fetcher := NewHTTPFetcher(config.DownloadConfig{Timeout: 5 * time.Second, MaxBytes: 1 << 10}, "")
	return NewStore(backend, fetcher, "/images/"), dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPersist_WritesImageAndReturnsLocalReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		io.WriteString(w, "jpeg-bytes")
	}))
	defer srv.Close()

	store, dir := newLocalStore(t)
	ref, err := store.Persist(context.Background(), srv.URL+"/a.jpg?name=orig")
	require.NoError(t, err)
	assert.Regexp(t, refPattern, ref)

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/images/")))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestPersist_HTTPErrorIsDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	store, dir := newLocalStore(t)
	_, err := store.Persist(context.Background(), srv.URL+"/missing.jpg")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeDownload, models.CodeOf(err))
	assert.Empty(t, listDir(t, dir))
}

func TestPersist_BrokenStreamLeavesNoPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "500")
		io.WriteString(w, "only-part")
	}))
	defer srv.Close()

	store, dir := newLocalStore(t)
	_, err := store.Persist(context.Background(), srv.URL+"/a.png")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeDownload, models.CodeOf(err))
	assert.Empty(t, listDir(t, dir))
}

func TestPersist_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 4<<10))
	}))
	defer srv.Close()

	store, dir := newLocalStore(t)
	_, err := store.Persist(context.Background(), srv.URL+"/big.jpg")
	require.Error(t, err)
	assert.Empty(t, listDir(t, dir))
}

func TestPersist_ExistingNameIsNotOverwritten(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "new")
	}))
	defer srv.Close()

	store, dir := newLocalStore(t)
	fixed := time.UnixMilli(1700000000000)
	store.namer.now = func() time.Time { return fixed }

	taken := filepath.Join(dir, "community_1700000000000.jpg")
	require.NoError(t, os.WriteFile(taken, []byte("old"), 0o644))

	ref, err := store.Persist(context.Background(), srv.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/images/community_1700000000001.jpg", ref)

	old, err := os.ReadFile(taken)
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestStore_Open(t *testing.T) {
	store, dir := newLocalStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "community_1.png"), []byte("png"), 0o644))

	rc, info, err := store.Open(context.Background(), "community_1.png")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	_, _, err = store.Open(context.Background(), "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = store.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Sweep(t *testing.T) {
	store, dir := newLocalStore(t)
	old := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("community_%d.jpg", i))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		if i < 2 {
			require.NoError(t, os.Chtimes(p, old, old))
		}
	}

	n, err := store.Sweep(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"community_2.jpg"}, listDir(t, dir))
}

func TestLocalBackend_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewLocalBackend(dir)
	require.NoError(t, err)

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}
