package tmdb

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultAPIBase is the TMDB v3 API root.
	DefaultAPIBase = "https://api.themoviedb.org/3"

	// DefaultLanguage is the listing language.
	DefaultLanguage = "en-US"
)

// PopularEndpoint builds the popular listing URL for kind, missing only the
// page parameter.
func PopularEndpoint(apiBase string, kind MediaType, language string) string {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if language == "" {
		language = DefaultLanguage
	}
	return strings.TrimRight(apiBase, "/") + "/" + string(kind) + "/popular?language=" + url.QueryEscape(language)
}

// PageURL appends the page parameter to an endpoint base.
func PageURL(endpointBase string, page int) string {
	sep := "&"
	if !strings.Contains(endpointBase, "?") {
		sep = "?"
	} else if strings.HasSuffix(endpointBase, "?") || strings.HasSuffix(endpointBase, "&") {
		sep = ""
	}
	return endpointBase + sep + "page=" + strconv.Itoa(page)
}
