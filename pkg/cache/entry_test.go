package cache

import (
	"testing"
	"time"
)

func TestEntry_Freshness(t *testing.T) {
	tests := []struct {
		name        string
		expires     time.Time
		wantExpired bool
		wantMinTTL  time.Duration
		wantMaxTTL  time.Duration
	}{
		{
			name:       "fresh for max-age 300",
			expires:    time.Now().Add(300 * time.Second),
			wantMinTTL: 299 * time.Second,
			wantMaxTTL: 300 * time.Second,
		},
		{
			name:        "stale since yesterday's run",
			expires:     time.Now().Add(-24 * time.Hour),
			wantExpired: true,
		},
		{
			name:        "zero expiry",
			wantExpired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if ttl := entry.TTL(); ttl < tt.wantMinTTL || ttl > tt.wantMaxTTL {
				t.Errorf("TTL() = %v, want within [%v, %v]", ttl, tt.wantMinTTL, tt.wantMaxTTL)
			}
		})
	}
}

func TestEntry_Revalidatable(t *testing.T) {
	var nilEntry *Entry
	if nilEntry.Revalidatable() {
		t.Error("nil entry must not be revalidatable")
	}
	if (&Entry{}).Revalidatable() {
		t.Error("entry without validators must not be revalidatable")
	}
	if !(&Entry{ETag: `W/"movie-popular-1"`}).Revalidatable() {
		t.Error("entry with ETag must be revalidatable")
	}
	if !(&Entry{LastModified: time.Now().Add(-time.Hour)}).Revalidatable() {
		t.Error("entry with Last-Modified must be revalidatable")
	}
}

func TestEntry_StorageTTL(t *testing.T) {
	const retention = 48 * time.Hour

	tests := []struct {
		name    string
		entry   *Entry
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "fresh with etag keeps freshness plus retention",
			entry:   &Entry{ETag: `"v1"`, Expires: time.Now().Add(time.Minute)},
			wantMin: retention + 59*time.Second,
			wantMax: retention + time.Minute,
		},
		{
			name:    "stale with etag keeps retention",
			entry:   &Entry{ETag: `"v1"`, Expires: time.Now().Add(-time.Hour)},
			wantMin: retention,
			wantMax: retention,
		},
		{
			name:    "fresh without validators keeps freshness only",
			entry:   &Entry{Expires: time.Now().Add(time.Minute)},
			wantMin: 59 * time.Second,
			wantMax: time.Minute,
		},
		{
			name:    "stale without validators is dropped",
			entry:   &Entry{Expires: time.Now().Add(-time.Hour)},
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.entry.StorageTTL(retention)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("StorageTTL() = %v, want within [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEntry_Revalidated(t *testing.T) {
	entry := &Entry{ETag: `"v1"`, Expires: time.Now().Add(-time.Hour)}
	expires := time.Now().Add(5 * time.Minute)

	entry.Revalidated(expires)

	if entry.IsExpired() {
		t.Error("entry must be fresh after revalidation")
	}
	if !entry.Expires.Equal(expires) {
		t.Errorf("Expires = %v, want %v", entry.Expires, expires)
	}
	if entry.RevalidatedAt.IsZero() {
		t.Error("RevalidatedAt not recorded")
	}
}
