// Command sitemap-gen fetches the popular TMDB movie and TV listings and
// writes the site's XML sitemap. It is configured entirely through the
// environment (see internal/config); SITEMAP_CONFIG may name a config file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/tmdb-sitemap/internal/config"
	"github.com/Sternrassler/tmdb-sitemap/pkg/cache"
	"github.com/Sternrassler/tmdb-sitemap/pkg/client"
	"github.com/Sternrassler/tmdb-sitemap/pkg/generator"
	"github.com/Sternrassler/tmdb-sitemap/pkg/logging"
	"github.com/Sternrassler/tmdb-sitemap/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redisPingTimeout = 5 * time.Second
	pushTimeout      = 10 * time.Second
)

func main() {
	os.Exit(execute())
}

func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv(config.EnvConfigFile))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	logging.Setup(cfg.LoggingConfig())

	if _, err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Sitemap generation failed")
		return 1
	}
	return 0
}

// run executes one batch job. Only configuration, write and hostname
// failures are returned; fetch failures shrink the sitemap instead.
func run(ctx context.Context, cfg config.Config) (generator.Result, error) {
	logger := logging.NewLogger("sitemap-gen")

	var respCache client.ResponseCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, continuing without cache")
		} else {
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
			respCache = cache.NewManager(redisClient, cfg.CacheOptions()...)
		}
	}

	tmdbClient, err := client.New(cfg.ClientConfig(respCache))
	if err != nil {
		return generator.Result{}, err
	}

	logger.Info().
		Str("hostname", cfg.Sitemap.Hostname).
		Str("output", cfg.Sitemap.Output).
		Int("pages", cfg.Sitemap.Pages).
		Int("concurrency", cfg.Sitemap.Concurrency).
		Dur("request_delay", cfg.Sitemap.RequestDelay).
		Bool("cache", respCache != nil).
		Msg("Generating sitemap")

	result, runErr := generator.New(tmdbClient, cfg.GeneratorConfig()).Run(ctx)

	if cfg.Metrics.Pushgateway != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		if err := metrics.Push(pushCtx, cfg.Metrics.Pushgateway, cfg.Metrics.Job); err != nil {
			logger.Warn().Err(err).Str("pushgateway", cfg.Metrics.Pushgateway).Msg("Failed to push metrics")
		}
		cancel()
	}

	return result, runErr
}
