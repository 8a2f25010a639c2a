package interfaces

import (
	"context"
	"io"

	"newsfeed-canon/core/domain"
)

// HTTPClient defines the interface for raw HTTP requests.
// The oracle client posts through it; tests swap in a func-field mock.
type HTTPClient interface {
	// Get performs an HTTP GET request to the specified URL.
	Get(ctx context.Context, url string) (Response, error)

	// Post performs an HTTP POST request with a JSON body.
	// The body should be closed by the caller after use.
	Post(ctx context.Context, url string, body io.Reader) (Response, error)
}

// Response defines the interface for HTTP responses.
type Response interface {
	// StatusCode returns the HTTP status code of the response.
	StatusCode() int

	// Body returns the response body as an io.ReadCloser.
	// The caller is responsible for closing the body when done.
	Body() io.ReadCloser

	// Header returns the value of the specified header.
	// Header names are case-insensitive.
	Header(key string) string
}

// Fetcher retrieves a document for one URL.
// Implementations apply a bounded timeout, follow redirects and return a
// FetchFailureError for transport errors and non-2xx statuses.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.RawDocument, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*domain.RawDocument, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	return f(ctx, url)
}
