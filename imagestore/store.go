// Package imagestore downloads community avatars and keeps them under a
// public path.
package imagestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/xcommunity/models"
)

// maxNameAttempts bounds retries when a backend reports a name conflict,
// e.g. another process writing into the same directory.
const maxNameAttempts = 5

// Store persists remote images into a Backend and hands out public paths.
type Store struct {
	backend      Backend
	fetcher      Fetcher
	namer        *Namer
	publicPrefix string
}

// NewStore creates a Store. publicPrefix is the path images are served
// under, e.g. "/images".
func NewStore(backend Backend, fetcher Fetcher, publicPrefix string) *Store {
	return &Store{
		backend:      backend,
		fetcher:      fetcher,
		namer:        NewNamer(NamePrefix),
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
	}
}

// Persist downloads imageURL, streams it into the backend under a fresh
// name and returns the public reference path.
func (s *Store) Persist(ctx context.Context, imageURL string) (string, error) {
	ext := Extension(imageURL)

	dl, err := s.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeDownload, "image download failed", err)
	}
	defer dl.Body.Close()

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := s.namer.Next(ext)
		err = s.backend.Create(ctx, name, dl.Body)
		if errors.Is(err, ErrExists) {
			slog.Debug("imagestore: name taken, retrying", "name", name)
			continue
		}
		if err != nil {
			return "", models.NewScrapeError(models.ErrCodeDownload, "image download failed", err)
		}
		slog.Info("image stored", "name", name, "source", imageURL, "contentType", dl.ContentType)
		return s.publicPrefix + "/" + name, nil
	}
	return "", models.NewScrapeError(models.ErrCodeDownload, "image download failed", errors.New("could not allocate a unique image name"))
}

// Open returns a stored image by name.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	if !validName(name) {
		return nil, ObjectInfo{}, ErrNotFound
	}
	return s.backend.Open(ctx, name)
}

// Sweep removes images older than maxAge.
func (s *Store) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.backend.Sweep(ctx, time.Now().Add(-maxAge))
}

// StartRetention runs Sweep every interval until ctx is done. A zero maxAge
// keeps images forever and starts nothing.
func (s *Store) StartRetention(ctx context.Context, maxAge, interval time.Duration) {
	if maxAge <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Sweep(ctx, maxAge)
				if err != nil {
					slog.Warn("imagestore: retention sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("imagestore: retention sweep", "removed", n, "maxAge", maxAge.String())
				}
			}
		}
	}()
}
