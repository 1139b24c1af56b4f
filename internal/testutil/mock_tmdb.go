// Package testutil provides testing utilities for the TMDB sitemap generator.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock TMDB page response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockTMDB is a configurable mock of TMDB's paginated list endpoints. Every
// request path is served; the page is read from the "page" query parameter.
type MockTMDB struct {
	server *httptest.Server

	mu        sync.Mutex
	token     string
	delay     time.Duration
	pages     map[string]map[int]MockResponse
	bodies    map[string]func(page int) string
	etags     bool
	counts    map[string]map[int]int
	inFlight  int
	maxFlight int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	UnauthorizedCount int
	LastRequestHeader http.Header
}

// NewMockTMDB creates a new mock TMDB server. Without configuration every page
// answers 200 with a single result whose id equals the page number.
func NewMockTMDB() *MockTMDB {
	mock := &MockTMDB{
		pages:  make(map[string]map[int]MockResponse),
		bodies: make(map[string]func(page int) string),
		counts: make(map[string]map[int]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockTMDB) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTMDB) Close() {
	m.server.Close()
}

// RequireToken makes the server answer 401 unless the request carries
// "Authorization: Bearer <token>".
func (m *MockTMDB) RequireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// SetDelay delays every response, which keeps requests in flight long enough
// to observe concurrency.
func (m *MockTMDB) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// EnableETags makes 200 responses carry a per-page ETag and answers matching
// If-None-Match requests with 304.
func (m *MockTMDB) EnableETags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etags = true
}

// SetBody replaces the generated body for every page of path.
func (m *MockTMDB) SetBody(path string, body func(page int) string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[path] = body
}

// SetPageResponse overrides the response for one page of path.
func (m *MockTMDB) SetPageResponse(path string, page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages[path] == nil {
		m.pages[path] = make(map[int]MockResponse)
	}
	m.pages[path][page] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockTMDB) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockTMDB) GetConditionalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConditionalCount
}

// PageRequests returns how often each page of path was requested.
func (m *MockTMDB) PageRequests(path string) map[int]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]int, len(m.counts[path]))
	for page, n := range m.counts[path] {
		out[page] = n
	}
	return out
}

// MaxInFlight returns the highest number of concurrently served requests.
func (m *MockTMDB) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxFlight
}

func (m *MockTMDB) serve(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.ConditionalCount++
	}
	if m.counts[r.URL.Path] == nil {
		m.counts[r.URL.Path] = make(map[int]int)
	}
	m.counts[r.URL.Path][page]++
	m.inFlight++
	if m.inFlight > m.maxFlight {
		m.maxFlight = m.inFlight
	}

	token := m.token
	delay := m.delay
	etags := m.etags
	override, hasOverride := m.pages[r.URL.Path][page]
	bodyFn := m.bodies[r.URL.Path]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json;charset=utf-8")

	if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
		m.mu.Lock()
		m.UnauthorizedCount++
		m.mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key.","success":false}`))
		return
	}

	if hasOverride {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for key, value := range override.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	if etags {
		etag := fmt.Sprintf(`W/"%s-%d"`, strings.Trim(r.URL.Path, "/"), page)
		w.Header().Set("Cache-Control", "public, max-age=300")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	body := PageBody(page, page)
	if bodyFn != nil {
		body = bodyFn(page)
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// PageBody renders a TMDB list page whose results carry the given ids.
func PageBody(page int, ids ...int) string {
	results := make([]string, 0, len(ids))
	for _, id := range ids {
		results = append(results, fmt.Sprintf(`{"id":%d,"title":"Title %d","name":"Name %d"}`, id, id, id))
	}
	return fmt.Sprintf(`{"page":%d,"results":[%s],"total_pages":500,"total_results":10000}`,
		page, strings.Join(results, ","))
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status_code":11,"status_message":"Internal error: Something went wrong, contact TMDb.","success":false}`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status_code":25,"status_message":"Your request count (#) is over the allowed limit of (40).","success":false}`,
		Headers: map[string]string{
			"Content-Type": "application/json;charset=utf-8",
			"Retry-After":  "1",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body lacks a results list.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"page":1,"total_pages":500}`,
		Headers:    map[string]string{"Content-Type": "application/json;charset=utf-8"},
	}
}
