package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "tmdb"

// secretParams never become part of a cache key.
var secretParams = map[string]bool{
	"api_key": true,
}

// Key identifies a cached TMDB response.
type Key struct {
	// Endpoint is the request path (e.g., "/3/movie/popular")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "2"})
	QueryParams url.Values
}

// KeyFromURL builds the key of a request URL.
func KeyFromURL(u *url.URL) Key {
	if u == nil {
		return Key{}
	}
	return Key{
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: tmdb:endpoint:query1=val1:query2=val2
//
// Example:
//
//	tmdb:3/movie/popular:language=en-US:page=2
func (k Key) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			if secretParams[strings.ToLower(key)] {
				continue
			}
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
