// Package tmdb models The Movie Database listing responses and fetches
// single pages of the popular movie and TV listings.
//
// ListFetcher satisfies pagination.PageFetcher[Media]:
//
//	endpoint := tmdb.PopularEndpoint(tmdb.DefaultAPIBase, tmdb.MediaTypeMovie, "en-US")
//	movies := pagination.FetchAll[tmdb.Media](ctx, tmdb.NewListFetcher(c, tmdb.MediaTypeMovie), endpoint, cfg)
package tmdb
