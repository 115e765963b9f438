// Package cache provides a Redis-backed cache for paged source responses.
//
// Entries are kept in Redis past their freshness lifetime for a revalidation
// window. A fresh entry is served without touching the network; a stale one
// that carries an ETag or Last-Modified is revalidated with a conditional
// request, and a 304 answer refreshes its lifetime.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.PageKey("api.artic.edu/api/v1/artworks", 3, 12)
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from source
//	case entry.IsExpired():
//		cache.AddConditionalHeaders(req, entry)
//	default:
//		resp := cache.EntryToResponse(entry)
//	}
//
// # Storing Responses
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if err := manager.Set(ctx, key, entry); err != nil {
//		return err
//	}
//
// # Freshness
//
// Freshness comes from Cache-Control max-age, then Expires, then DefaultTTL.
// Responses marked no-store are never cached.
//
// # Metrics
//
//   - pagesel_cache_hits_total{state="fresh|stale"}
//   - pagesel_cache_misses_total
//   - pagesel_cache_revalidated_total
//   - pagesel_cache_errors_total{operation}
package cache
