package pagination

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/tmdb-sitemap/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page fetching.
var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmdb_pages_total",
		Help: "Total page fetches by outcome (success, failed, canceled)",
	}, []string{"status"})

	pagesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tmdb_pages_in_flight",
		Help: "Number of page fetches currently awaiting a response",
	})

	pageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tmdb_page_duration_seconds",
		Help:    "Duration of a single page fetch in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
	})
)

// progressEvery controls how often fetch progress is logged.
const progressEvery = 10

// Config holds batch fetcher configuration
type Config struct {
	// TotalPages is the number of pages to fetch, starting at page 1
	TotalPages int
	// MaxConcurrency is the maximum number of page fetches in flight
	MaxConcurrency int
	// RequestDelay is slept by each task before its request
	RequestDelay time.Duration
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns the defaults for TMDB popular listings: 35 pages,
// 5 workers and a 250ms per-request delay (about 20 requests per second).
func DefaultConfig() Config {
	return Config{
		TotalPages:     35,
		MaxConcurrency: 5,
		RequestDelay:   250 * time.Millisecond,
		Timeout:        15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TotalPages <= 0 {
		c.TotalPages = def.TotalPages
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = def.MaxConcurrency
	}
	if c.RequestDelay < 0 {
		c.RequestDelay = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// PageFetcher fetches the items of a single page.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, endpoint string, page int) ([]T, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, endpoint string, page int) ([]T, error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, endpoint string, page int) ([]T, error) {
	return f(ctx, endpoint, page)
}

// Summary describes the outcome of one batch run.
type Summary struct {
	Endpoint     string
	TotalPages   int
	FetchedPages int
	FailedPages  []int
	Items        int
	Duration     time.Duration
}

// Degraded reports whether any page failed.
func (s Summary) Degraded() bool {
	return len(s.FailedPages) > 0
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config.withDefaults(),
	}
}

// Config returns the effective configuration.
func (bf *BatchFetcher[T]) Config() Config {
	return bf.config
}

// FetchAll fetches every page of endpoint and returns the flattened items.
func FetchAll[T any](ctx context.Context, fetcher PageFetcher[T], endpoint string, config Config) []T {
	items, _ := NewBatchFetcher(fetcher, config).FetchAllPages(ctx, endpoint)
	return items
}

// FetchAllPages fetches pages 1..TotalPages of endpoint using a worker pool.
// Failed pages contribute no items; the returned slice is in page order and
// never nil.
func (bf *BatchFetcher[T]) FetchAllPages(ctx context.Context, endpoint string) ([]T, Summary) {
	start := time.Now()
	totalPages := bf.config.TotalPages

	workers := bf.config.MaxConcurrency
	if workers > totalPages {
		workers = totalPages
	}

	log.Info().
		Str("endpoint", endpoint).
		Int("total_pages", totalPages).
		Int("workers", workers).
		Dur("request_delay", bf.config.RequestDelay).
		Msg("Starting parallel page fetch")

	// One slot per page; each worker writes only the slots of pages it claimed.
	pages := make([][]T, totalPages)
	failed := make([]bool, totalPages)

	pageQueue := make(chan int, totalPages)
	for page := 1; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, endpoint, pageQueue, pages, failed, &completed, &wg, i)
	}
	wg.Wait()

	summary := Summary{
		Endpoint:   endpoint,
		TotalPages: totalPages,
	}
	total := 0
	for i := range pages {
		total += len(pages[i])
	}
	items := make([]T, 0, total)
	for i := range pages {
		if failed[i] {
			summary.FailedPages = append(summary.FailedPages, i+1)
			continue
		}
		summary.FetchedPages++
		items = append(items, pages[i]...)
	}
	summary.Items = len(items)
	summary.Duration = time.Since(start)

	event := log.Info()
	if summary.Degraded() {
		event = log.Warn().Ints("failed_pages", summary.FailedPages)
	}
	event.
		Str("endpoint", endpoint).
		Int("pages", summary.FetchedPages).
		Int("total", totalPages).
		Int("items", summary.Items).
		Dur("duration", summary.Duration).
		Msg("Fetch complete")

	return items, summary
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, endpoint string, pageQueue <-chan int, pages [][]T, failed []bool, completed *atomic.Int64, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		// Keep draining after cancellation so every page is accounted for.
		if ctx.Err() != nil {
			failed[pageNum-1] = true
			pagesTotal.WithLabelValues("canceled").Inc()
			bf.progress(endpoint, completed.Add(1))
			continue
		}

		items, err := bf.fetchPage(ctx, endpoint, pageNum)
		if err != nil {
			log.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")
			failed[pageNum-1] = true
			pagesTotal.WithLabelValues("failed").Inc()
		} else {
			pages[pageNum-1] = items
			pagesTotal.WithLabelValues("success").Inc()
		}

		pagesProcessed++
		bf.progress(endpoint, completed.Add(1))
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

// fetchPage runs one page task: the per-request delay, then a single fetch
// bounded by the page timeout. A panic in the fetcher is returned as an error.
func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, endpoint string, pageNum int) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("panic fetching page %d: %v", pageNum, r)
		}
	}()

	if bf.config.RequestDelay > 0 {
		if err := ratelimit.Sleep(ctx, bf.config.RequestDelay); err != nil {
			return nil, err
		}
	}

	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	pagesInFlight.Inc()
	defer pagesInFlight.Dec()
	timer := prometheus.NewTimer(pageDuration)
	defer timer.ObserveDuration()

	items, err = bf.fetcher.FetchPage(pageCtx, endpoint, pageNum)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (bf *BatchFetcher[T]) progress(endpoint string, done int64) {
	if done%progressEvery != 0 {
		return
	}
	log.Info().
		Str("endpoint", endpoint).
		Int64("fetched", done).
		Int("total", bf.config.TotalPages).
		Float64("progress_pct", float64(done)/float64(bf.config.TotalPages)*100).
		Msg("Fetch progress")
}
