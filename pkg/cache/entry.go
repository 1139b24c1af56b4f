package cache

import (
	"net/http"
	"time"
)

// Entry is a stored TMDB response together with the validators needed to
// revalidate it.
type Entry struct {
	Data       []byte      `json:"data"`
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`

	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`

	// Expires ends the freshness lifetime. A stale entry stays in Redis for
	// the manager's retention window so the next run can revalidate it.
	Expires time.Time `json:"expires"`

	CachedAt      time.Time `json:"cached_at"`
	RevalidatedAt time.Time `json:"revalidated_at,omitempty"`
}

// IsExpired reports whether the freshness lifetime is over.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the remaining freshness lifetime, 0 once stale.
func (e *Entry) TTL() time.Duration {
	if ttl := time.Until(e.Expires); ttl > 0 {
		return ttl
	}
	return 0
}

// Revalidatable reports whether the entry carries an ETag or Last-Modified
// validator.
func (e *Entry) Revalidatable() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}

// StorageTTL is how long Redis keeps the entry: the remaining freshness plus
// retention. Entries without validators are useless once stale, so they only
// live for their freshness lifetime.
func (e *Entry) StorageTTL(retention time.Duration) time.Duration {
	if !e.Revalidatable() || retention < 0 {
		retention = 0
	}
	return e.TTL() + retention
}

// Revalidated records a 304 answer and moves the freshness lifetime to
// expires.
func (e *Entry) Revalidated(expires time.Time) {
	e.Expires = expires
	e.RevalidatedAt = time.Now()
}
