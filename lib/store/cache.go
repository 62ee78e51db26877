// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kavishworks45-design/mulerepo/lib/catalog"
	"github.com/kavishworks45-design/mulerepo/lib/clock"
)

// DefaultCacheTTL is how long a listing snapshot is served before the
// cache refreshes from upstream.
const DefaultCacheTTL = 5 * time.Minute

// Lister produces the full catalog listing. *Store implements it.
type Lister interface {
	ListAll(ctx context.Context) ([]catalog.Project, error)
}

// Snapshot is one cached listing.
type Snapshot struct {
	// Projects is the listing, newest first.
	Projects []catalog.Project `cbor:"projects"`

	// CapturedAt is when the listing was fetched from upstream.
	CapturedAt time.Time `cbor:"capturedAt"`

	// Stale marks a snapshot that outlived its TTL or was explicitly
	// invalidated but is being served anyway because no fresh listing
	// is available.
	Stale bool `cbor:"stale"`
}

// ListingCache serves catalog listings with a TTL. Within the TTL
// every read is a lock-free-ish snapshot copy; past it the next read
// refreshes from upstream. A failed refresh serves the last good
// snapshot marked stale instead of failing the read — the catalog
// degrades, it does not disappear.
type ListingCache struct {
	lister Lister
	clock  clock.Clock
	logger *slog.Logger
	ttl    time.Duration

	mu       sync.RWMutex
	snapshot *Snapshot

	// refreshMu single-flights upstream refreshes: concurrent expired
	// reads line up here and all but the first reuse its result.
	refreshMu sync.Mutex
}

// NewListingCache creates a cache over the given lister. A zero ttl
// uses DefaultCacheTTL.
func NewListingCache(lister Lister, clk clock.Clock, logger *slog.Logger, ttl time.Duration) *ListingCache {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &ListingCache{
		lister: lister,
		clock:  clk,
		logger: logger,
		ttl:    ttl,
	}
}

// Get returns the current listing snapshot, refreshing from upstream
// when the cached one is missing, expired, or invalidated. Set force
// to bypass the TTL and refresh unconditionally.
func (cache *ListingCache) Get(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		if snapshot := cache.current(); snapshot != nil {
			return snapshot, nil
		}
	}

	cache.refreshMu.Lock()
	defer cache.refreshMu.Unlock()

	// Re-check under the refresh lock: another caller may have just
	// refreshed while we waited.
	if !force {
		if snapshot := cache.current(); snapshot != nil {
			return snapshot, nil
		}
	}

	projects, err := cache.lister.ListAll(ctx)
	if err != nil {
		cache.mu.Lock()
		last := cache.snapshot
		if last != nil {
			last.Stale = true
		}
		cache.mu.Unlock()

		if last != nil {
			cache.logger.Warn("listing refresh failed, serving stale snapshot",
				"error", err,
				"capturedAt", last.CapturedAt,
			)
			return copySnapshot(last), nil
		}
		return nil, err
	}

	fresh := &Snapshot{
		Projects:   projects,
		CapturedAt: cache.clock.Now(),
	}
	cache.mu.Lock()
	cache.snapshot = fresh
	cache.mu.Unlock()
	return copySnapshot(fresh), nil
}

// current returns a copy of the cached snapshot if it is still live,
// nil if missing, stale, or past its TTL.
func (cache *ListingCache) current() *Snapshot {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	if cache.snapshot == nil || cache.snapshot.Stale {
		return nil
	}
	if cache.clock.Now().Sub(cache.snapshot.CapturedAt) >= cache.ttl {
		return nil
	}
	return copySnapshot(cache.snapshot)
}

// Invalidate marks the cached snapshot stale so the next read
// refreshes. Called after every successful write: the listing changed
// upstream and the cache knows it.
func (cache *ListingCache) Invalidate() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.snapshot != nil {
		cache.snapshot.Stale = true
	}
}

// Seed installs a previously persisted snapshot, marked stale so it
// only serves if the first refresh after startup fails.
func (cache *ListingCache) Seed(snapshot *Snapshot) {
	if snapshot == nil {
		return
	}
	seeded := copySnapshot(snapshot)
	seeded.Stale = true

	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.snapshot = seeded
}

// Current returns a copy of whatever snapshot the cache holds, live or
// stale, without touching upstream. Nil when the cache is empty.
func (cache *ListingCache) Current() *Snapshot {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.snapshot == nil {
		return nil
	}
	return copySnapshot(cache.snapshot)
}

func copySnapshot(snapshot *Snapshot) *Snapshot {
	copied := *snapshot
	copied.Projects = make([]catalog.Project, len(snapshot.Projects))
	copy(copied.Projects, snapshot.Projects)
	return &copied
}
