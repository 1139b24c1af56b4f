// Package metrics documents the Prometheus metrics exported by the sitemap
// generator and ships them to a Pushgateway at the end of a batch run.
// All metrics are defined in their respective packages (pagination, client,
// cache, ratelimit, generator) via promauto and land in the default registry.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Gatherer is the gatherer pushed by Push. Every package registers its
// metrics with the default registry through promauto.
var Gatherer = prometheus.DefaultGatherer

// DefaultJob is the Pushgateway job label for sitemap runs.
const DefaultJob = "tmdb_sitemap"

// Push sends the current value of every registered metric to the Pushgateway
// at url, replacing metrics previously pushed under job.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return fmt.Errorf("pushgateway url is required")
	}
	if job == "" {
		job = DefaultJob
	}

	if err := push.New(url, job).Gatherer(Gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// Pagination Metrics (pkg/pagination):
//   - tmdb_pages_total{status} (Counter): page fetches by outcome (success, failed, canceled)
//   - tmdb_pages_in_flight (Gauge): page fetches currently awaiting a response
//   - tmdb_page_duration_seconds (Histogram): page fetch duration, delay excluded
//
// Request Metrics (pkg/client):
//   - tmdb_requests_total{endpoint, status} (Counter): requests by path and HTTP status
//   - tmdb_request_duration_seconds{endpoint} (Histogram): request duration by path
//   - tmdb_errors_total{class} (Counter): errors by class (client, server, rate_limit, network)
//
// Cache Metrics (pkg/cache):
//   - tmdb_cache_hits_total (Counter): cache lookups that found a fresh entry
//   - tmdb_cache_stale_hits_total (Counter): cache lookups that found a stale entry to revalidate
//   - tmdb_cache_misses_total (Counter): cache lookups without an entry
//   - tmdb_304_responses_total (Counter): 304 Not Modified responses served from cache
//   - tmdb_conditional_requests_total (Counter): requests sent with If-None-Match/If-Modified-Since
//   - tmdb_cache_errors_total{operation} (Counter): cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - tmdb_rate_limit_wait_seconds (Histogram): time spent waiting on the request limiter
//
// Generator Metrics (pkg/generator):
//   - sitemap_entries (Gauge): URL entries in the last written sitemap
//   - sitemap_last_success_timestamp_seconds (Gauge): time of the last successful write
//
// Example Prometheus Queries:
//
//   # Page failure ratio of the last run
//   tmdb_pages_total{status="failed"} / sum(tmdb_pages_total)
//
//   # Revalidation rate
//   tmdb_304_responses_total / sum(tmdb_requests_total)
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(tmdb_page_duration_seconds_bucket[5m]))
