// Package config loads and validates the generator configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/tmdb-sitemap/pkg/cache"
	"github.com/Sternrassler/tmdb-sitemap/pkg/client"
	"github.com/Sternrassler/tmdb-sitemap/pkg/generator"
	"github.com/Sternrassler/tmdb-sitemap/pkg/logging"
	"github.com/Sternrassler/tmdb-sitemap/pkg/metrics"
	"github.com/Sternrassler/tmdb-sitemap/pkg/pagination"
	"github.com/Sternrassler/tmdb-sitemap/pkg/tmdb"
	"github.com/spf13/viper"
)

// EnvConfigFile names the environment variable holding an optional config
// file path.
const EnvConfigFile = "SITEMAP_CONFIG"

// ErrMissingToken is returned when no TMDB token is configured.
var ErrMissingToken = errors.New("tmdb.token (TMDB_TOKEN) is required")

// Config captures all configuration knobs. Every key can be set from the
// environment by upper-casing it and replacing dots with underscores, e.g.
// sitemap.request_delay -> SITEMAP_REQUEST_DELAY.
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Sitemap SitemapConfig `mapstructure:"sitemap"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// TMDBConfig configures API access.
type TMDBConfig struct {
	Token     string        `mapstructure:"token"`
	APIBase   string        `mapstructure:"api_base"`
	Language  string        `mapstructure:"language"`
	UserAgent string        `mapstructure:"user_agent"`
	// RateLimit is an extra ceiling above the fetchers' own pacing
	// (sitemap.concurrency / sitemap.request_delay per listing).
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SitemapConfig configures the batch job.
type SitemapConfig struct {
	Hostname     string        `mapstructure:"hostname"`
	Output       string        `mapstructure:"output"`
	Kinds        []string      `mapstructure:"kinds"`
	Pages        int           `mapstructure:"pages"`
	Concurrency  int           `mapstructure:"concurrency"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	PageTimeout  time.Duration `mapstructure:"page_timeout"`
	MinItems     int           `mapstructure:"min_items"`
}

// RedisConfig enables the response cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// StaleRetention keeps entries past their freshness lifetime so the next
	// run can revalidate them.
	StaleRetention time.Duration `mapstructure:"stale_retention"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// MetricsConfig enables pushing metrics after a run when Pushgateway is set.
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := generator.DefaultConfig()

	v.SetDefault("tmdb.token", "")
	v.SetDefault("tmdb.api_base", tmdb.DefaultAPIBase)
	v.SetDefault("tmdb.language", tmdb.DefaultLanguage)
	v.SetDefault("tmdb.user_agent", client.DefaultUserAgent)
	v.SetDefault("tmdb.rate_limit", float64(client.DefaultRateLimit))
	v.SetDefault("tmdb.burst", client.DefaultBurst)
	v.SetDefault("tmdb.timeout", 30*time.Second)
	v.SetDefault("sitemap.hostname", def.Hostname)
	v.SetDefault("sitemap.output", def.OutputPath)
	v.SetDefault("sitemap.kinds", kindNames(def.Kinds))
	v.SetDefault("sitemap.pages", def.Pagination.TotalPages)
	v.SetDefault("sitemap.concurrency", def.Pagination.MaxConcurrency)
	v.SetDefault("sitemap.request_delay", def.Pagination.RequestDelay)
	v.SetDefault("sitemap.page_timeout", def.Pagination.Timeout)
	v.SetDefault("sitemap.min_items", 0)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stale_retention", cache.DefaultStaleRetention)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.job", metrics.DefaultJob)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.TMDB.Token == "" {
		return ErrMissingToken
	}
	if c.TMDB.RateLimit < 0 {
		return fmt.Errorf("tmdb.rate_limit must be >= 0")
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be > 0")
	}
	u, err := url.Parse(c.Sitemap.Hostname)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("sitemap.hostname must be an absolute http(s) URL, got %q", c.Sitemap.Hostname)
	}
	if c.Sitemap.Output == "" {
		return fmt.Errorf("sitemap.output must be set")
	}
	if _, err := c.mediaTypes(); err != nil {
		return err
	}
	if c.Sitemap.Pages <= 0 {
		return fmt.Errorf("sitemap.pages must be > 0")
	}
	if c.Sitemap.Concurrency <= 0 {
		return fmt.Errorf("sitemap.concurrency must be > 0")
	}
	if c.Sitemap.RequestDelay < 0 {
		return fmt.Errorf("sitemap.request_delay must be >= 0")
	}
	if c.Sitemap.PageTimeout <= 0 {
		return fmt.Errorf("sitemap.page_timeout must be > 0")
	}
	if c.Sitemap.MinItems < 0 {
		return fmt.Errorf("sitemap.min_items must be >= 0")
	}
	if c.Redis.StaleRetention < 0 {
		return fmt.Errorf("redis.stale_retention must be >= 0")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not a valid level", c.Log.Level)
	}
	return nil
}

// ClientConfig maps the tmdb section onto the HTTP client configuration.
func (c Config) ClientConfig(cache client.ResponseCache) client.Config {
	return client.Config{
		Token:     c.TMDB.Token,
		UserAgent: c.TMDB.UserAgent,
		RateLimit: c.TMDB.RateLimit,
		Burst:     c.TMDB.Burst,
		Timeout:   c.TMDB.Timeout,
		Cache:     cache,
	}
}

// GeneratorConfig maps the sitemap section onto the generator configuration.
func (c Config) GeneratorConfig() generator.Config {
	cfg := generator.DefaultConfig()
	cfg.Hostname = c.Sitemap.Hostname
	cfg.OutputPath = c.Sitemap.Output
	cfg.APIBase = c.TMDB.APIBase
	cfg.Language = c.TMDB.Language
	cfg.MinItems = c.Sitemap.MinItems
	if kinds, err := c.mediaTypes(); err == nil {
		cfg.Kinds = kinds
	}
	cfg.Pagination = pagination.Config{
		TotalPages:     c.Sitemap.Pages,
		MaxConcurrency: c.Sitemap.Concurrency,
		RequestDelay:   c.Sitemap.RequestDelay,
		Timeout:        c.Sitemap.PageTimeout,
	}
	return cfg
}

// CacheOptions maps the redis section onto cache manager options.
func (c Config) CacheOptions() []cache.Option {
	return []cache.Option{cache.WithStaleRetention(c.Redis.StaleRetention)}
}

// mediaTypes parses sitemap.kinds. Entries may be comma separated, as in
// SITEMAP_KINDS=movie,tv.
func (c Config) mediaTypes() ([]tmdb.MediaType, error) {
	var kinds []tmdb.MediaType
	seen := make(map[tmdb.MediaType]bool)
	for _, raw := range c.Sitemap.Kinds {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			kind, err := tmdb.ParseMediaType(name)
			if err != nil {
				return nil, fmt.Errorf("sitemap.kinds: %w", err)
			}
			if seen[kind] {
				return nil, fmt.Errorf("sitemap.kinds: %q listed twice", kind)
			}
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("sitemap.kinds must name at least one of movie, tv")
	}
	return kinds, nil
}

func kindNames(kinds []tmdb.MediaType) []string {
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return names
}

// LoggingConfig maps the log section onto the logging setup.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Log.Level),
		Pretty: c.Log.Pretty,
	}
}
