package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when neither Cache-Control nor Expires is usable
	DefaultTTL = 5 * time.Minute
)

// ResponseToEntry converts an HTTP response to an Entry.
// The response body is read and restored for the caller.
func ResponseToEntry(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := &Entry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   time.Now(),
		Expires:    ExpiryFromHeaders(resp.Header),
	}

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// EntryToResponse rebuilds an HTTP 200 response from a cached entry.
func EntryToResponse(entry *Entry, req *http.Request) *http.Response {
	header := entry.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
		Request:       req,
	}
}

// ExpiryFromHeaders derives the expiry time from Cache-Control max-age, then the
// Expires header, falling back to now + DefaultTTL.
func ExpiryFromHeaders(headers http.Header) time.Time {
	now := time.Now()

	if maxAge, ok := parseMaxAge(headers.Get("Cache-Control")); ok {
		return now.Add(maxAge)
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(DefaultTTL)
	}

	if expires.Before(now) {
		return now
	}

	return expires
}

// parseMaxAge extracts max-age from a Cache-Control header. no-store and
// no-cache yield a zero lifetime.
func parseMaxAge(cacheControl string) (time.Duration, bool) {
	if cacheControl == "" {
		return 0, false
	}

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store" || directive == "no-cache":
			return 0, true
		case strings.HasPrefix(directive, "max-age="):
			seconds, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
			if err != nil || seconds < 0 {
				return 0, false
			}
			return time.Duration(seconds) * time.Second, true
		}
	}
	return 0, false
}

// ShouldMakeConditionalRequest reports whether a request can carry
// validators from entry. Fresh and stale entries both qualify.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	return entry.Revalidatable()
}

// Storable reports whether a response may be stored at all. Only no-store
// forbids it; no-cache responses are kept for revalidation.
func Storable(headers http.Header) bool {
	for _, directive := range strings.Split(headers.Get("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-store") {
			return false
		}
	}
	return true
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since headers
// to the request. ETag wins when both are known.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}
