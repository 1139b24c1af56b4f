// Package sitemap builds sitemaps.org XML sitemaps.
package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Namespace is the sitemaps.org urlset namespace.
	Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

	// MaxURLs is the protocol limit of URLs per sitemap file.
	MaxURLs = 50000
)

var (
	// ErrTooManyURLs is returned by Add once MaxURLs entries are present.
	ErrTooManyURLs = errors.New("sitemap URL limit reached")

	// ErrInvalidEntry is returned by Add for entries that fail validation.
	ErrInvalidEntry = errors.New("invalid sitemap entry")
)

// ChangeFreq is the sitemaps.org changefreq value.
type ChangeFreq string

const (
	Always  ChangeFreq = "always"
	Hourly  ChangeFreq = "hourly"
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
	Yearly  ChangeFreq = "yearly"
	Never   ChangeFreq = "never"
)

// Valid reports whether c is empty or one of the protocol values.
func (c ChangeFreq) Valid() bool {
	switch c {
	case "", Always, Hourly, Daily, Weekly, Monthly, Yearly, Never:
		return true
	}
	return false
}

// Priority renders with a single decimal, e.g. 1.0 or 0.7.
type Priority float64

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 1, 64)), nil
}

// Entry is one URL of the sitemap. URL may be relative to the hostname.
type Entry struct {
	URL        string
	ChangeFreq ChangeFreq
	Priority   float64
	LastMod    time.Time
}

// Validate checks the entry against the protocol.
func (e Entry) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidEntry)
	}
	if !e.ChangeFreq.Valid() {
		return fmt.Errorf("%w: changefreq %q", ErrInvalidEntry, e.ChangeFreq)
	}
	if e.Priority < 0 || e.Priority > 1 {
		return fmt.Errorf("%w: priority %.2f out of [0,1]", ErrInvalidEntry, e.Priority)
	}
	return nil
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlXML `xml:"url"`
}

type urlXML struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   Priority   `xml:"priority"`
}

// Sitemap accumulates entries for a single host. It is not safe for
// concurrent use.
type Sitemap struct {
	base *url.URL
	urls []urlXML
}

// New creates a sitemap whose relative entry URLs resolve against hostname.
func New(hostname string) (*Sitemap, error) {
	base, err := url.Parse(hostname)
	if err != nil {
		return nil, fmt.Errorf("parse hostname: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("hostname %q must be an absolute http(s) URL", hostname)
	}
	return &Sitemap{base: base}, nil
}

// Add validates e, resolves its URL and appends it.
func (s *Sitemap) Add(e Entry) error {
	if len(s.urls) >= MaxURLs {
		return ErrTooManyURLs
	}
	if err := e.Validate(); err != nil {
		return err
	}

	ref, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	u := urlXML{
		Loc:        s.base.ResolveReference(ref).String(),
		ChangeFreq: e.ChangeFreq,
		Priority:   Priority(e.Priority),
	}
	if !e.LastMod.IsZero() {
		u.LastMod = e.LastMod.UTC().Format("2006-01-02")
	}
	s.urls = append(s.urls, u)
	return nil
}

// Len returns the number of entries.
func (s *Sitemap) Len() int {
	return len(s.urls)
}

// WriteTo writes the UTF-8 XML document with two-space indentation.
func (s *Sitemap) WriteTo(w io.Writer) (int64, error) {
	doc := urlset{Xmlns: Namespace, URLs: s.urls}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal sitemap: %w", err)
	}

	var total int64
	for _, chunk := range [][]byte{[]byte(xml.Header), body, []byte("\n")} {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteFile writes the sitemap to path, creating parent directories. The
// file is replaced atomically so readers never observe a partial sitemap.
func (s *Sitemap) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sitemap-*.xml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := s.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write sitemap: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync sitemap: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close sitemap: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod sitemap: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename sitemap: %w", err)
	}
	return nil
}
