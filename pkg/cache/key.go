package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// KeyPrefix namespaces all cache keys in Redis.
const KeyPrefix = "pagesel"

// CacheKey identifies a cached page response.
type CacheKey struct {
	// Endpoint is the source host and path (e.g., "api.artic.edu/api/v1/artworks")
	Endpoint string

	// QueryParams are the request query parameters (page, limit, fields, ...)
	QueryParams url.Values
}

// PageKey builds the key for one page of an endpoint.
func PageKey(endpoint string, page, limit int) CacheKey {
	return CacheKey{
		Endpoint: endpoint,
		QueryParams: url.Values{
			"page":  []string{strconv.Itoa(page)},
			"limit": []string{strconv.Itoa(limit)},
		},
	}
}

// KeyFromURL builds the key for a request URL.
func KeyFromURL(u *url.URL) CacheKey {
	return CacheKey{
		Endpoint:    u.Host + u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: pagesel:endpoint:query1=val1:query2=val2
//
// Example:
//
//	pagesel:api.artic.edu/api/v1/artworks:limit=12:page=3
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			values := append([]string(nil), k.QueryParams[key]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
