package imagestore

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrExists is returned by Create when the name is already taken.
	ErrExists = errors.New("image already exists")

	// ErrNotFound is returned by Open for an unknown name.
	ErrNotFound = errors.New("image not found")
)

// ObjectInfo describes a stored image.
type ObjectInfo struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Backend is a flat namespace of image blobs.
type Backend interface {
	// Create streams r into a new image. It never overwrites: an existing
	// name yields ErrExists before r is read. A failed stream leaves nothing
	// behind.
	Create(ctx context.Context, name string, r io.Reader) error

	// Open returns the image body. The caller must close it.
	Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)

	// Sweep deletes images last modified before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}
