// Package metrics provides the Prometheus registry and handler for paged-select.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, selection) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by paged-select.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - pagesel_requests_total{status} (Counter): Page requests by HTTP status, "cache", "cooldown" or "network_error"
//   - pagesel_request_duration_seconds (Histogram): Page request duration
//   - pagesel_fetch_errors_total{class} (Counter): Failed fetches by class (client, server, rate_limit, network, decode)
//   - pagesel_shared_fetches_total (Counter): Loads answered by an identical in-flight request
//
// Cache Metrics (pkg/cache):
//   - pagesel_cache_hits_total{state} (Counter): Cache hits by freshness (fresh, stale)
//   - pagesel_cache_misses_total (Counter): Cache misses
//   - pagesel_cache_revalidated_total (Counter): Stale entries revalidated with 304 Not Modified
//   - pagesel_cache_errors_total{operation} (Counter): Cache operation errors
//
// Cooldown Metrics (pkg/ratelimit):
//   - pagesel_cooldowns_total (Counter): Cooldowns recorded from 429 responses
//   - pagesel_cooldown_blocks_total (Counter): Requests held back by an active cooldown
//
// Selection Metrics (pkg/selection):
//   - pagesel_selection_size (Gauge): Selected records after the last change
//   - pagesel_bulk_select_total{result} (Counter): Bulk selections by result (success, failure, superseded, noop)
//   - pagesel_bulk_select_pages_fetched (Histogram): Pages fetched per bulk selection
//   - pagesel_stale_responses_total{operation} (Counter): Results dropped as superseded (navigate, toggle, select_first)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(pagesel_cache_hits_total[5m])) /
//   (sum(rate(pagesel_cache_hits_total[5m])) + sum(rate(pagesel_cache_misses_total[5m])))
//
//   # Bulk Selection Failure Rate
//   rate(pagesel_bulk_select_total{result="failure"}[5m]) / rate(pagesel_bulk_select_total[5m])
//
//   # Fetch Error Rate by Class
//   sum by (class) (rate(pagesel_fetch_errors_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(pagesel_request_duration_seconds_bucket[5m]))
