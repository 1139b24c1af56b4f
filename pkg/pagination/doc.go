// Package pagination provides bounded concurrent fetching of numbered pages.
//
// A BatchFetcher requests pages 1..TotalPages of a listing endpoint through a
// worker pool of at most MaxConcurrency goroutines. Each worker sleeps
// RequestDelay before every request, so with several workers the delays
// overlap and the effective request rate is roughly
// MaxConcurrency / RequestDelay.
//
// Example usage:
//
//	cfg := pagination.DefaultConfig()
//	fetcher := pagination.NewBatchFetcher[tmdb.Media](listFetcher, cfg)
//	items, summary := fetcher.FetchAllPages(ctx, endpoint)
//
// The batch fetcher:
//   - Issues exactly one fetch per page, never retrying
//   - Treats failed, timed-out or panicking pages as empty and logs them
//   - Never cancels sibling pages because one page failed
//   - Returns items flattened in page-number order
package pagination
