package tmdb

import "fmt"

// MediaType identifies a TMDB title kind.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType validates s as a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(s) {
	case MediaTypeMovie, MediaTypeTV:
		return MediaType(s), nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// Media is one result of a TMDB list endpoint. Movies carry Title and
// ReleaseDate, TV shows carry Name and FirstAirDate.
type Media struct {
	ID               int       `json:"id"`
	Title            string    `json:"title,omitempty"`
	Name             string    `json:"name,omitempty"`
	OriginalTitle    string    `json:"original_title,omitempty"`
	OriginalName     string    `json:"original_name,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`
	MediaType        MediaType `json:"media_type,omitempty"`
	PosterPath       string    `json:"poster_path,omitempty"`
	BackdropPath     string    `json:"backdrop_path,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	FirstAirDate     string    `json:"first_air_date,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	Adult            bool      `json:"adult,omitempty"`
	VoteAverage      float64   `json:"vote_average,omitempty"`
	VoteCount        int       `json:"vote_count,omitempty"`
	Popularity       float64   `json:"popularity,omitempty"`
}

// DisplayName returns the title used for slugs: Title for movies and Name for
// TV shows, falling back to the other field and then the original names.
func (m Media) DisplayName() string {
	candidates := []string{m.Title, m.Name, m.OriginalTitle, m.OriginalName}
	if m.MediaType == MediaTypeTV {
		candidates = []string{m.Name, m.Title, m.OriginalName, m.OriginalTitle}
	}
	for _, s := range candidates {
		if s != "" {
			return s
		}
	}
	return ""
}
