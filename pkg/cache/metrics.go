package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by freshness state
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesel_cache_hits_total",
			Help: "Total number of page cache hits",
		},
		[]string{"state"}, // "fresh", "stale"
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagesel_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// Revalidated tracks 304 Not Modified answers to conditional requests
	Revalidated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagesel_cache_revalidated_total",
			Help: "Total number of stale entries revalidated with 304 Not Modified",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesel_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
