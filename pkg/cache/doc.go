// Package cache stores TMDB listing responses in Redis so repeated sitemap
// runs can revalidate pages with conditional requests instead of downloading
// unchanged bodies again.
//
// The cache never short-circuits a request: every page is still requested
// exactly once per run. A stored entry, fresh or stale, only adds
// If-None-Match or If-Modified-Since to that request, and a 304 answer is
// served from the stored body.
//
// # Basic Usage
//
//	manager := cache.NewManager(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
//
//	key := cache.KeyFromURL(req.URL)
//	entry, err := manager.Get(ctx, key)
//	if err == nil && cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Expiry
//
// An entry is fresh for the response's Cache-Control max-age, else until its
// Expires header, else DefaultTTL. Redis keeps it for that lifetime plus the
// stale retention window (DefaultStaleRetention, see WithStaleRetention), so
// a job that runs once a day still finds yesterday's validators. Entries
// without an ETag or Last-Modified are dropped once stale.
//
// # Metrics
//
//   - tmdb_cache_hits_total
//   - tmdb_cache_stale_hits_total
//   - tmdb_cache_misses_total
//   - tmdb_304_responses_total
//   - tmdb_conditional_requests_total
//   - tmdb_cache_errors_total{operation}
package cache
