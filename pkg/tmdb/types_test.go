package tmdb

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedia_DisplayName(t *testing.T) {
	tests := []struct {
		name  string
		media Media
		want  string
	}{
		{"movie title", Media{Title: "The Matrix", Name: "ignored"}, "The Matrix"},
		{"tv name", Media{Name: "Breaking Bad"}, "Breaking Bad"},
		{"original title fallback", Media{OriginalTitle: "Le Samouraï"}, "Le Samouraï"},
		{"original name fallback", Media{OriginalName: "종이의 집"}, "종이의 집"},
		{"tv prefers name", Media{MediaType: MediaTypeTV, Title: "ignored", Name: "Severance"}, "Severance"},
		{"tv falls back to title", Media{MediaType: MediaTypeTV, Title: "Shōgun"}, "Shōgun"},
		{"empty", Media{ID: 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.media.DisplayName())
		})
	}
}

func TestParseMediaType(t *testing.T) {
	kind, err := ParseMediaType("movie")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeMovie, kind)

	kind, err = ParseMediaType("tv")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeTV, kind)

	_, err = ParseMediaType("person")
	assert.Error(t, err)
}

func TestMedia_Decode(t *testing.T) {
	body := `[
		{"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "vote_average": 8.2, "genre_ids": [28, 878]},
		{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20"}
	]`

	var results []Media
	require.NoError(t, json.Unmarshal([]byte(body), &results))

	require.Len(t, results, 2)
	assert.Equal(t, 603, results[0].ID)
	assert.Equal(t, "The Matrix", results[0].DisplayName())
	assert.Equal(t, []int{28, 878}, results[0].GenreIDs)
	assert.InDelta(t, 8.2, results[0].VoteAverage, 0.001)
	assert.Equal(t, "Breaking Bad", results[1].DisplayName())
}
