package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultStaleRetention keeps stale entries long enough for a daily job to
// revalidate them on its next run.
const DefaultStaleRetention = 7 * 24 * time.Hour

var (
	// ErrCacheMiss is returned when no entry is stored under a key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned for entries that cannot be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Option configures a Manager.
type Option func(*Manager)

// WithStaleRetention sets how long entries survive past their freshness
// lifetime. Zero drops entries as soon as they are stale.
func WithStaleRetention(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.retention = d
		}
	}
}

// Manager stores TMDB responses in Redis.
type Manager struct {
	redis     *redis.Client
	retention time.Duration
}

// NewManager creates a Redis-backed cache manager.
func NewManager(redisClient *redis.Client, opts ...Option) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	m := &Manager{
		redis:     redisClient,
		retention: DefaultStaleRetention,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StaleRetention returns the configured retention window.
func (m *Manager) StaleRetention() time.Duration {
	return m.retention
}

// Get returns the entry stored under key, fresh or stale. Callers check
// IsExpired; a stale entry is still good for a conditional request.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	case err != nil:
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	entry := new(Entry)
	if err := json.Unmarshal(raw, entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}

	if entry.IsExpired() {
		StaleHits.Inc()
	} else {
		CacheHits.Inc()
	}
	return entry, nil
}

// Set stores entry for its freshness lifetime plus the retention window.
// Entries with nothing left to live for are skipped.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}

	ttl := entry.StorageTTL(m.retention)
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("encode entry %s: %w", key, err)
	}

	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry stored under key.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// UpdateTTL marks the entry under key as revalidated after a 304 and stores
// it with the new freshness lifetime.
func (m *Manager) UpdateTTL(ctx context.Context, key Key, newExpires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}

	entry.Revalidated(newExpires)
	return m.Set(ctx, key, entry)
}
