package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks lookups that found a fresh entry
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_cache_hits_total",
			Help: "Total number of TMDB response cache hits",
		},
	)

	// StaleHits tracks lookups that found an entry past its freshness lifetime
	StaleHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_cache_stale_hits_total",
			Help: "Total number of stale TMDB cache entries kept for revalidation",
		},
	)

	// CacheMisses tracks lookups without a stored entry
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_cache_misses_total",
			Help: "Total number of TMDB response cache misses",
		},
	)

	// NotModifiedResponses tracks 304 answers served from the cache
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_304_responses_total",
			Help: "Total number of TMDB 304 Not Modified responses",
		},
	)

	// ConditionalRequestsSent tracks requests carrying validators
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmdb_conditional_requests_total",
			Help: "Total number of conditional requests sent to TMDB",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
