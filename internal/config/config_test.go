package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/tmdb-sitemap/pkg/logging"
	"github.com/Sternrassler/tmdb-sitemap/pkg/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TMDB_TOKEN", "env-token")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.TMDB.Token)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.APIBase)
	assert.Equal(t, "en-US", cfg.TMDB.Language)
	assert.Equal(t, 48.0, cfg.TMDB.RateLimit)
	assert.Equal(t, 10, cfg.TMDB.Burst)
	assert.Equal(t, 30*time.Second, cfg.TMDB.Timeout)
	assert.Equal(t, "https://coolmoviez.lol", cfg.Sitemap.Hostname)
	assert.Equal(t, "./public/sitemap.xml", cfg.Sitemap.Output)
	assert.Equal(t, []string{"movie", "tv"}, cfg.Sitemap.Kinds)
	assert.Equal(t, 35, cfg.Sitemap.Pages)
	assert.Equal(t, 5, cfg.Sitemap.Concurrency)
	assert.Equal(t, 250*time.Millisecond, cfg.Sitemap.RequestDelay)
	assert.Equal(t, 15*time.Second, cfg.Sitemap.PageTimeout)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 7*24*time.Hour, cfg.Redis.StaleRetention)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Pushgateway)
	assert.Equal(t, "tmdb_sitemap", cfg.Metrics.Job)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TMDB_TOKEN", "env-token")
	t.Setenv("SITEMAP_HOSTNAME", "https://example.org")
	t.Setenv("SITEMAP_PAGES", "10")
	t.Setenv("SITEMAP_CONCURRENCY", "2")
	t.Setenv("SITEMAP_REQUEST_DELAY", "1s")
	t.Setenv("SITEMAP_KINDS", "tv")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_STALE_RETENTION", "48h")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.org", cfg.Sitemap.Hostname)
	assert.Equal(t, 10, cfg.Sitemap.Pages)
	assert.Equal(t, 2, cfg.Sitemap.Concurrency)
	assert.Equal(t, time.Second, cfg.Sitemap.RequestDelay)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Redis.StaleRetention)
	assert.Equal(t, []tmdb.MediaType{tmdb.MediaTypeTV}, cfg.GeneratorConfig().Kinds)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
tmdb:
  token: file-token
  language: de-DE
  rate_limit: 20
sitemap:
  hostname: https://filmfreunde.example
  output: /tmp/out/sitemap.xml
  pages: 5
  request_delay: 100ms
  min_items: 50
redis:
  addr: localhost:6379
  db: 3
metrics:
  pushgateway: http://pushgateway:9091
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.TMDB.Token)
	assert.Equal(t, "de-DE", cfg.TMDB.Language)
	assert.Equal(t, 20.0, cfg.TMDB.RateLimit)
	assert.Equal(t, 5, cfg.Sitemap.Pages)
	assert.Equal(t, 100*time.Millisecond, cfg.Sitemap.RequestDelay)
	assert.Equal(t, 50, cfg.Sitemap.MinItems)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.Pushgateway)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tmdb:\n  token: file-token\n"), 0o600))
	t.Setenv("TMDB_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.TMDB.Token)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("TMDB_TOKEN", "env-token")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TMDB_TOKEN", "")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		t.Setenv("TMDB_TOKEN", "token")
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative hostname", func(c *Config) { c.Sitemap.Hostname = "coolmoviez.lol" }},
		{"empty output", func(c *Config) { c.Sitemap.Output = "" }},
		{"zero pages", func(c *Config) { c.Sitemap.Pages = 0 }},
		{"zero concurrency", func(c *Config) { c.Sitemap.Concurrency = 0 }},
		{"negative delay", func(c *Config) { c.Sitemap.RequestDelay = -time.Second }},
		{"zero page timeout", func(c *Config) { c.Sitemap.PageTimeout = 0 }},
		{"negative min items", func(c *Config) { c.Sitemap.MinItems = -1 }},
		{"unknown kind", func(c *Config) { c.Sitemap.Kinds = []string{"movie", "person"} }},
		{"duplicate kind", func(c *Config) { c.Sitemap.Kinds = []string{"movie,movie"} }},
		{"no kinds", func(c *Config) { c.Sitemap.Kinds = nil }},
		{"negative stale retention", func(c *Config) { c.Redis.StaleRetention = -time.Hour }},
		{"negative rate limit", func(c *Config) { c.TMDB.RateLimit = -1 }},
		{"zero timeout", func(c *Config) { c.TMDB.Timeout = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMappings(t *testing.T) {
	t.Setenv("TMDB_TOKEN", "token")
	t.Setenv("SITEMAP_PAGES", "7")
	t.Setenv("SITEMAP_CONCURRENCY", "3")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	cc := cfg.ClientConfig(nil)
	assert.Equal(t, "token", cc.Token)
	assert.Equal(t, 48.0, cc.RateLimit)
	assert.Equal(t, 10, cc.Burst)
	assert.Nil(t, cc.Cache)
	assert.Len(t, cfg.CacheOptions(), 1)

	gc := cfg.GeneratorConfig()
	assert.Equal(t, 7, gc.Pagination.TotalPages)
	assert.Equal(t, 3, gc.Pagination.MaxConcurrency)
	assert.Equal(t, 250*time.Millisecond, gc.Pagination.RequestDelay)
	assert.Equal(t, "https://api.themoviedb.org/3", gc.APIBase)
	assert.Len(t, gc.StaticPages, 2)
	assert.Equal(t, []tmdb.MediaType{tmdb.MediaTypeMovie, tmdb.MediaTypeTV}, gc.Kinds)

	assert.Equal(t, logging.LevelWarn, cfg.LoggingConfig().Level)
}
