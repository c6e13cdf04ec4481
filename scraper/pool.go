package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/xcommunity/models"
	"golang.org/x/sync/semaphore"
)

// ErrPoolExhausted is returned when no browser context frees up within the
// acquire timeout.
var ErrPoolExhausted = errors.New("browser pool exhausted")

// Pool bounds the number of browser contexts open at once. Each Acquire
// opens a fresh isolated session; Release disposes it and frees the slot.
type Pool struct {
	launcher Launcher
	sem      *semaphore.Weighted
	size     int
	wait     time.Duration
	active   atomic.Int32
}

// NewPool creates a pool of size slots. A caller waits at most wait for a
// slot; a zero wait rejects immediately when the pool is full.
func NewPool(l Launcher, size int, wait time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		launcher: l,
		sem:      semaphore.NewWeighted(int64(size)),
		size:     size,
		wait:     wait,
	}
}

// Acquire leases a session. The caller must Release it.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if !p.sem.TryAcquire(1) {
		if p.wait <= 0 {
			return nil, ErrPoolExhausted
		}
		waitCtx, cancel := context.WithTimeout(ctx, p.wait)
		err := p.sem.Acquire(waitCtx, 1)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrPoolExhausted
		}
	}

	sess, err := p.launcher.Launch(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	p.active.Add(1)
	return &Lease{Session: sess, pool: p}, nil
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() models.PoolStats {
	return models.PoolStats{
		Size:   p.size,
		Active: int(p.active.Load()),
	}
}

// Lease is a checked-out session.
type Lease struct {
	Session
	pool *Pool
	once sync.Once
}

// Release closes the session and returns the slot. Calling it more than
// once is a no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		if err := l.Session.Close(); err != nil {
			slog.Warn("cleanup: failed to close browser context", "error", err)
		} else {
			slog.Debug("browser context closed")
		}
		l.pool.active.Add(-1)
		l.pool.sem.Release(1)
	})
}
