// Package slug derives URL-safe title slugs and the detail-page paths built
// from them.
package slug

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[\s_-]+`)
)

// CleanTitle lower-cases title, strips everything but ASCII word characters,
// whitespace and hyphens, joins runs of whitespace, underscores and hyphens
// with a single hyphen, and trims hyphens at both ends. Percent-encoded input
// is decoded first when it is a valid escape sequence.
//
//	CleanTitle("The Matrix: Reloaded!") == "the-matrix-reloaded"
func CleanTitle(title string) string {
	if title == "" {
		return ""
	}
	if strings.Contains(title, "%") {
		if decoded, err := url.PathUnescape(title); err == nil {
			title = decoded
		}
	}

	s := strings.ToLower(title)
	s = nonWord.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// DetailPath returns the site path of a title's detail page, e.g.
// "/details/movie/603-the-matrix". The slug part is omitted when the title
// has no sluggable characters.
func DetailPath(kind string, id int, title string) string {
	s := CleanTitle(title)
	if s == "" {
		return fmt.Sprintf("/details/%s/%d", kind, id)
	}
	return fmt.Sprintf("/details/%s/%d-%s", kind, id, s)
}

// ParseDetailID extracts the numeric id from a detail path segment such as
// "603-the-matrix".
func ParseDetailID(segment string) (int, error) {
	head, _, _ := strings.Cut(segment, "-")
	id, err := strconv.Atoi(head)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid detail segment %q", segment)
	}
	return id, nil
}
