package cache

import (
	"time"
)

// CacheEntry represents a cached page response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag"`

	// LastModified for conditional requests (If-Modified-Since)
	LastModified time.Time `json:"last_modified"`

	// Expires is when the entry stops being fresh
	Expires time.Time `json:"expires"`

	// ContentType of the cached body
	ContentType string `json:"content_type"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true once the entry is no longer fresh.
func (e *CacheEntry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the remaining freshness lifetime, or 0 if already stale.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// CanRevalidate reports whether a conditional request can be made for the entry.
func (e *CacheEntry) CanRevalidate() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}
