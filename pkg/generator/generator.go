// Package generator runs the sitemap batch job: it fetches the popular movie
// and TV listings, turns every title into a detail-page entry and writes the
// XML sitemap.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/tmdb-sitemap/pkg/logging"
	"github.com/Sternrassler/tmdb-sitemap/pkg/pagination"
	"github.com/Sternrassler/tmdb-sitemap/pkg/sitemap"
	"github.com/Sternrassler/tmdb-sitemap/pkg/slug"
	"github.com/Sternrassler/tmdb-sitemap/pkg/tmdb"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	sitemapEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sitemap_entries",
		Help: "Number of URL entries in the last generated sitemap",
	})

	sitemapLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sitemap_last_success_timestamp_seconds",
		Help: "Unix time of the last successful sitemap write",
	})
)

// Default site and output location.
const (
	DefaultHostname   = "https://coolmoviez.lol"
	DefaultOutputPath = "./public/sitemap.xml"
)

// Config holds the generator configuration.
type Config struct {
	Hostname   string
	OutputPath string

	APIBase  string
	Language string

	// Kinds lists the popular listings to include, in sitemap order.
	Kinds []tmdb.MediaType

	Pagination pagination.Config

	// StaticPages are written before any title entry.
	StaticPages    []sitemap.Entry
	ItemChangeFreq sitemap.ChangeFreq
	ItemPriority   float64

	// MinItems below which the sitemap is reported as degraded (0 disables).
	MinItems int
}

// DefaultStaticPages returns the home and discover pages.
func DefaultStaticPages() []sitemap.Entry {
	return []sitemap.Entry{
		{URL: "/", ChangeFreq: sitemap.Daily, Priority: 1.0},
		{URL: "/discover", ChangeFreq: sitemap.Daily, Priority: 0.8},
	}
}

// DefaultKinds returns the movie and TV listings.
func DefaultKinds() []tmdb.MediaType {
	return []tmdb.MediaType{tmdb.MediaTypeMovie, tmdb.MediaTypeTV}
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Hostname:       DefaultHostname,
		OutputPath:     DefaultOutputPath,
		APIBase:        tmdb.DefaultAPIBase,
		Language:       tmdb.DefaultLanguage,
		Kinds:          DefaultKinds(),
		Pagination:     pagination.DefaultConfig(),
		StaticPages:    DefaultStaticPages(),
		ItemChangeFreq: sitemap.Weekly,
		ItemPriority:   0.7,
	}
}

// Result summarizes one run.
type Result struct {
	RunID       string
	Movies      int
	TVShows     int
	Entries     int
	Skipped     int
	FailedPages map[tmdb.MediaType][]int
	Duration    time.Duration
}

// Degraded reports whether any listing page failed.
func (r Result) Degraded() bool {
	for _, pages := range r.FailedPages {
		if len(pages) > 0 {
			return true
		}
	}
	return false
}

// Generator produces the sitemap from TMDB listings.
type Generator struct {
	client tmdb.Getter
	config Config
	logger zerolog.Logger
}

// New creates a generator. Zero config fields take DefaultConfig values;
// a nil StaticPages slice means the default pages, an empty one means none.
func New(client tmdb.Getter, cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Hostname == "" {
		cfg.Hostname = def.Hostname
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = def.OutputPath
	}
	if cfg.APIBase == "" {
		cfg.APIBase = def.APIBase
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = def.Kinds
	}
	if cfg.StaticPages == nil {
		cfg.StaticPages = def.StaticPages
	}
	if cfg.ItemChangeFreq == "" {
		cfg.ItemChangeFreq = def.ItemChangeFreq
	}
	if cfg.ItemPriority == 0 {
		cfg.ItemPriority = def.ItemPriority
	}

	return &Generator{
		client: client,
		config: cfg,
		logger: logging.NewLogger("generator"),
	}
}

type listing struct {
	kind    tmdb.MediaType
	items   []tmdb.Media
	summary pagination.Summary
}

// Run fetches the configured listings in parallel and writes the sitemap.
// Listing failures only shrink the sitemap; the returned error is limited to
// an invalid hostname, an invalid static page or a failed write.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := g.logger.With().Str("run_id", runID).Logger()

	sm, err := sitemap.New(g.config.Hostname)
	if err != nil {
		return Result{RunID: runID}, err
	}

	logger.Info().
		Str("hostname", g.config.Hostname).
		Interface("kinds", g.config.Kinds).
		Msg("Starting sitemap run")

	listings := make([]*listing, 0, len(g.config.Kinds))
	for _, kind := range g.config.Kinds {
		listings = append(listings, &listing{kind: kind})
	}

	// Fetch errors are absorbed per page, so the group never fails.
	var eg errgroup.Group
	for _, l := range listings {
		eg.Go(func() error {
			endpoint := tmdb.PopularEndpoint(g.config.APIBase, l.kind, g.config.Language)
			fetcher := pagination.NewBatchFetcher[tmdb.Media](tmdb.NewListFetcher(g.client, l.kind), g.config.Pagination)
			l.items, l.summary = fetcher.FetchAllPages(ctx, endpoint)
			return nil
		})
	}
	_ = eg.Wait()

	result := Result{
		RunID:       runID,
		FailedPages: make(map[tmdb.MediaType][]int),
	}
	for _, l := range listings {
		switch l.kind {
		case tmdb.MediaTypeMovie:
			result.Movies += len(l.items)
		case tmdb.MediaTypeTV:
			result.TVShows += len(l.items)
		}
	}

	for _, page := range g.config.StaticPages {
		if err := sm.Add(page); err != nil {
			return result, fmt.Errorf("static page %q: %w", page.URL, err)
		}
	}

	seen := make(map[string]struct{})
	for _, l := range listings {
		if len(l.summary.FailedPages) > 0 {
			result.FailedPages[l.kind] = l.summary.FailedPages
		}
		for _, item := range l.items {
			if item.ID <= 0 {
				result.Skipped++
				continue
			}
			path := slug.DetailPath(string(l.kind), item.ID, item.DisplayName())
			key := fmt.Sprintf("%s/%d", l.kind, item.ID)
			if _, dup := seen[key]; dup {
				result.Skipped++
				continue
			}
			seen[key] = struct{}{}

			if err := sm.Add(sitemap.Entry{
				URL:        path,
				ChangeFreq: g.config.ItemChangeFreq,
				Priority:   g.config.ItemPriority,
			}); err != nil {
				logger.Warn().
					Err(err).
					Str("kind", string(l.kind)).
					Int("id", item.ID).
					Msg("Skipping sitemap entry")
				result.Skipped++
			}
		}
	}

	itemEntries := sm.Len() - len(g.config.StaticPages)
	if g.config.MinItems > 0 && itemEntries < g.config.MinItems {
		logger.Error().
			Int("items", itemEntries).
			Int("min_items", g.config.MinItems).
			Interface("failed_pages", result.FailedPages).
			Msg("Degraded sitemap: fewer items than expected")
	}

	if err := sm.WriteFile(g.config.OutputPath); err != nil {
		return result, fmt.Errorf("write sitemap: %w", err)
	}

	result.Entries = sm.Len()
	result.Duration = time.Since(start)
	sitemapEntries.Set(float64(result.Entries))
	sitemapLastSuccess.SetToCurrentTime()

	logger.Info().
		Str("output", g.config.OutputPath).
		Int("entries", result.Entries).
		Int("movies", result.Movies).
		Int("tv_shows", result.TVShows).
		Int("skipped", result.Skipped).
		Dur("duration", result.Duration).
		Msg("Sitemap generated")

	return result, nil
}
