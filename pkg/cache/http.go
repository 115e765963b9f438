package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the freshness lifetime when the response carries no caching headers.
const DefaultTTL = 5 * time.Minute

// ResponseToEntry converts an HTTP response to a CacheEntry.
// The response body is restored after reading. Returns a nil entry for
// responses marked no-store.
func ResponseToEntry(resp *http.Response) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	expires, store := Freshness(resp.Header, now)
	if !store {
		return nil, nil
	}

	entry := &CacheEntry{
		Data:        body,
		ETag:        resp.Header.Get("ETag"),
		Expires:     expires,
		ContentType: resp.Header.Get("Content-Type"),
		CachedAt:    now,
	}

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// Freshness computes when a response stops being fresh. Cache-Control wins
// over Expires. The second return value is false for no-store responses.
func Freshness(headers http.Header, now time.Time) (time.Time, bool) {
	if cc := headers.Get("Cache-Control"); cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.TrimSpace(strings.ToLower(directive))
			switch {
			case directive == "no-store":
				return time.Time{}, false
			case directive == "no-cache":
				return now, true
			case strings.HasPrefix(directive, "max-age="):
				if secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age=")); err == nil && secs >= 0 {
					return now.Add(time.Duration(secs) * time.Second), true
				}
			}
		}
	}

	if expiresStr := headers.Get("Expires"); expiresStr != "" {
		expires, err := http.ParseTime(expiresStr)
		if err != nil {
			// invalid Expires means already expired
			return now, true
		}
		if expires.Before(now) {
			return now, true
		}
		return expires, true
	}

	return now.Add(DefaultTTL), true
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since headers
// to the request if the cache entry supports conditional requests.
func AddConditionalHeaders(req *http.Request, entry *CacheEntry) {
	if entry == nil || req == nil {
		return
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}

// EntryToResponse rebuilds a 200 OK response from a cache entry.
func EntryToResponse(entry *CacheEntry) *http.Response {
	header := http.Header{}
	if entry.ContentType != "" {
		header.Set("Content-Type", entry.ContentType)
	}
	if entry.ETag != "" {
		header.Set("ETag", entry.ETag)
	}
	header.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
	}
}
