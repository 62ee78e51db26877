// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "sync"

// etagEntry holds a cached response for a URL.
type etagEntry struct {
	etag string
	body []byte
}

// etagCache stores ETag → response body mappings for conditional GET
// requests. When a GET response includes an ETag header, the response
// body is cached. On subsequent GETs to the same URL, the
// If-None-Match header is sent. If GitHub returns 304 Not Modified,
// the cached body is used instead of consuming rate limit quota.
//
// This matters for the catalog read paths: tree listings and marker
// blobs are re-fetched on every cache refresh but rarely change, so
// most refreshes cost no quota at all.
//
// Blob URLs embed the content SHA, so the set of distinct URLs grows
// without bound over the life of the process. The cache is capped at
// maxETagEntries and cleared wholesale when full: live entries
// repopulate on the next refresh, and the bookkeeping stays trivial.
type etagCache struct {
	mu      sync.Mutex
	entries map[string]etagEntry
}

// maxETagEntries caps the cache. Sized for a few thousand projects'
// worth of marker blobs plus the handful of repo and tree URLs.
const maxETagEntries = 4096

func newETagCache() *etagCache {
	return &etagCache{entries: make(map[string]etagEntry)}
}

// get returns the cached ETag for a URL, or empty string if not
// cached.
func (cache *etagCache) get(url string) string {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.entries[url].etag
}

// body returns the cached response body for a URL, or nil if not
// cached.
func (cache *etagCache) body(url string) []byte {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.entries[url].body
}

// put stores an ETag and response body for a URL.
func (cache *etagCache) put(url string, etag string, body []byte) {
	if etag == "" {
		return
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if _, exists := cache.entries[url]; !exists && len(cache.entries) >= maxETagEntries {
		cache.entries = make(map[string]etagEntry)
	}
	cache.entries[url] = etagEntry{etag: etag, body: body}
}

// size returns the number of cached entries.
func (cache *etagCache) size() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return len(cache.entries)
}
