package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrMalformedResponse is returned when a list body cannot be decoded or has
// no results list.
var ErrMalformedResponse = errors.New("malformed list response")

// Getter performs one GET request. *client.Client implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// ListFetcher fetches single pages of a TMDB list endpoint.
type ListFetcher struct {
	client Getter
	kind   MediaType
}

// NewListFetcher creates a fetcher whose results are tagged with kind when
// the response omits media_type.
func NewListFetcher(client Getter, kind MediaType) *ListFetcher {
	return &ListFetcher{client: client, kind: kind}
}

// listBody distinguishes a missing results key from an empty list.
type listBody struct {
	Results *[]Media `json:"results"`
}

// FetchPage requests one page of endpoint and returns its results.
func (f *ListFetcher) FetchPage(ctx context.Context, endpoint string, page int) ([]Media, error) {
	resp, err := f.client.Get(ctx, PageURL(endpoint, page))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d for page %d", resp.StatusCode, page)
	}

	var body listBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrMalformedResponse, page, err)
	}
	if body.Results == nil {
		return nil, fmt.Errorf("%w: page %d: missing results", ErrMalformedResponse, page)
	}

	results := *body.Results
	if f.kind != "" {
		for i := range results {
			if results[i].MediaType == "" {
				results[i].MediaType = f.kind
			}
		}
	}
	return results, nil
}
