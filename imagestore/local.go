package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// LocalBackend keeps images as files in one flat directory.
type LocalBackend struct {
	dir string
}

// NewLocalBackend creates dir if it does not exist.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create directory %s: %w", dir, err)
	}
	return &LocalBackend{dir: dir}, nil
}

// Dir returns the backing directory.
func (b *LocalBackend) Dir() string { return b.dir }

func (b *LocalBackend) Create(ctx context.Context, name string, r io.Reader) error {
	p := filepath.Join(b.dir, name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("imagestore: create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		b.removePartial(p)
		return fmt.Errorf("imagestore: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		b.removePartial(p)
		return fmt.Errorf("imagestore: close %s: %w", name, err)
	}
	return nil
}

func (b *LocalBackend) removePartial(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("imagestore: failed to remove partial file", "path", p, "error", err)
	}
}

func (b *LocalBackend) Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	f, err := os.Open(filepath.Join(b.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ObjectInfo{}, ErrNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrNotFound
	}
	return f, ObjectInfo{
		Name:        name,
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		ModTime:     st.ModTime(),
	}, nil
}

func (b *LocalBackend) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return 0, fmt.Errorf("imagestore: list %s: %w", b.dir, err)
	}
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, e.Name())); err != nil {
			slog.Warn("imagestore: sweep failed to remove file", "name", e.Name(), "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
