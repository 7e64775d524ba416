// Package seocache memoizes the SEO dataset snapshot behind a TTL so that
// every request does not refetch the spreadsheet. The snapshot is shared,
// read-mostly state: it is only ever replaced wholesale, never mutated, so
// readers need no locking once they hold a pointer.
package seocache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"insightd/internal/domain"
)

// DefaultTTL is how long a snapshot is considered fresh.
const DefaultTTL = 5 * time.Minute

var errLoadInProgress = errors.New("dataset load already in progress")

// Loader fetches the full dataset from the remote tabular source.
type Loader interface {
	Fetch(ctx context.Context) (*domain.Snapshot, error)
}

// Cache owns the current snapshot. Get within the TTL window returns the
// cached snapshot without issuing a fetch; on expiry exactly one caller
// performs the reload while concurrent callers keep reading the previous
// snapshot (brief staleness traded for simplicity).
type Cache struct {
	loader Loader
	ttl    time.Duration
	logger *slog.Logger

	mu         sync.Mutex
	snap       *domain.Snapshot
	refreshing bool
}

// New builds a snapshot cache. A non-positive ttl falls back to DefaultTTL.
func New(loader Loader, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{loader: loader, ttl: ttl, logger: logger}
}

// Get returns the current snapshot and whether it is stale. The first call
// loads synchronously. After TTL expiry the triggering caller refreshes in
// place; callers arriving while that refresh is in flight get the previous
// snapshot flagged stale. A failed refresh keeps serving the old snapshot.
func (c *Cache) Get(ctx context.Context) (*domain.Snapshot, bool, error) {
	c.mu.Lock()

	if c.snap != nil && time.Since(c.snap.FetchedAt) < c.ttl {
		snap := c.snap
		c.mu.Unlock()
		return snap, false, nil
	}

	if c.refreshing {
		snap := c.snap
		c.mu.Unlock()
		if snap == nil {
			// First load still in flight elsewhere; report unavailable
			// rather than stacking fetches.
			return nil, false, domain.ErrUpstream("seo", errLoadInProgress)
		}
		return snap, true, nil
	}

	c.refreshing = true
	prev := c.snap
	c.mu.Unlock()

	snap, err := c.loader.Fetch(ctx)

	c.mu.Lock()
	c.refreshing = false
	if err != nil {
		c.mu.Unlock()
		if prev != nil {
			c.logger.Warn("snapshot refresh failed, serving stale data", "error", err)
			return prev, true, nil
		}
		return nil, false, err
	}
	c.snap = snap
	c.mu.Unlock()

	return snap, false, nil
}

// ForceRefresh fetches a new snapshot unconditionally, replacing the cached
// one on success. Used by the scheduled pre-warm.
func (c *Cache) ForceRefresh(ctx context.Context) error {
	snap, err := c.loader.Fetch(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

// Age returns how old the current snapshot is, or -1 when nothing is loaded.
func (c *Cache) Age() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return -1
	}
	return time.Since(c.snap.FetchedAt)
}
