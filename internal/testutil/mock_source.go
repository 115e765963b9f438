// Package testutil provides testing utilities for the paged data source.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// SourcePath is the listing path served by MockSource.
const SourcePath = "/api/v1/artworks"

// MockResponse overrides the answer for one page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSource is a configurable paged listing server with records whose ids
// run 1..Total in order.
type MockSource struct {
	server *httptest.Server
	mu     sync.RWMutex

	total     int
	overrides map[int]MockResponse
	delays    map[int]time.Duration
	etag      string

	// Tracking
	requestCount     int
	conditionalCount int
	pagesRequested   []int
	lastHeader       http.Header
}

// NewMockSource starts a mock source with total records.
func NewMockSource(total int) *MockSource {
	m := &MockSource{
		total:     total,
		overrides: make(map[int]MockResponse),
		delays:    make(map[int]time.Duration),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the listing endpoint URL.
func (m *MockSource) URL() string {
	return m.server.URL + SourcePath
}

// Close shuts down the mock server.
func (m *MockSource) Close() {
	m.server.Close()
}

// SetTotal changes the dataset size.
func (m *MockSource) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetPageResponse overrides the answer for a page number.
func (m *MockSource) SetPageResponse(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = resp
}

// FailPage makes a page answer with status.
func (m *MockSource) FailPage(page, status int) {
	m.SetPageResponse(page, MockResponse{
		StatusCode: status,
		Body:       `{"error": "failure injected"}`,
	})
}

// ClearPage removes an override for a page.
func (m *MockSource) ClearPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, page)
}

// DelayPage makes successful answers for page wait d first.
func (m *MockSource) DelayPage(page int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[page] = d
}

// EnableETag makes the server send etag and answer 304 to matching
// If-None-Match requests.
func (m *MockSource) EnableETag(etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etag = etag
}

// Reset clears all tracking counters.
func (m *MockSource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.pagesRequested = nil
	m.lastHeader = nil
}

// RequestCount returns the number of requests made to the server.
func (m *MockSource) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockSource) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// PagesRequested returns requested page numbers in arrival order.
func (m *MockSource) PagesRequested() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.pagesRequested...)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockSource) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader.Clone()
}

func (m *MockSource) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != SourcePath {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 12
	}

	m.mu.Lock()
	m.requestCount++
	m.pagesRequested = append(m.pagesRequested, page)
	m.lastHeader = r.Header.Clone()
	conditional := r.Header.Get("If-None-Match") != ""
	if conditional {
		m.conditionalCount++
	}
	override, hasOverride := m.overrides[page]
	delay := m.delays[page]
	total := m.total
	etag := m.etag
	m.mu.Unlock()

	if hasOverride {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for k, v := range override.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			_, _ = w.Write([]byte(override.Body))
		}
		return
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if etag != "" {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "max-age=0")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(PageBody(page, limit, total))
}

// PageBody builds the listing response for a page of a dataset whose ids run
// 1..total.
func PageBody(page, limit, total int) map[string]any {
	data := make([]map[string]any, 0, limit)
	for id := (page-1)*limit + 1; id <= page*limit && id <= total; id++ {
		data = append(data, map[string]any{
			"id":              id,
			"title":           fmt.Sprintf("Artwork %d", id),
			"place_of_origin": "Nowhere",
			"artist_display":  "Unknown",
			"inscriptions":    nil,
			"date_start":      1900,
			"date_end":        1901,
		})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return map[string]any{
		"data": data,
		"pagination": map[string]any{
			"total":        total,
			"limit":        limit,
			"offset":       (page - 1) * limit,
			"total_pages":  totalPages,
			"current_page": page,
		},
	}
}
