// ABOUTME: Document fetcher built on the standard client
// ABOUTME: Sends browser-like headers, follows redirects and classifies the fetched body

package standard

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"

	"newsfeed-canon/core/domain"
	coreerrors "newsfeed-canon/core/errors"
)

// maxDocumentBytes caps how much of a page is read
const maxDocumentBytes = 10 << 20

var browserHeaders = http.Header{
	"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,application/rss+xml;q=0.9,*/*;q=0.8"},
	"Accept-Language": {"en-US,en;q=0.9"},
	"Cache-Control":   {"no-cache"},
}

// Fetcher implements interfaces.Fetcher
type Fetcher struct {
	client *StandardHTTPClient
}

// NewFetcher wraps a client as a document fetcher
func NewFetcher(client *StandardHTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch retrieves url and returns its body. Transport errors and non-2xx
// statuses come back as FetchFailureError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	resp, err := f.client.do(ctx, http.MethodGet, url, browserHeaders)
	if err != nil {
		return nil, &coreerrors.FetchFailureError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &coreerrors.FetchFailureError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, &coreerrors.FetchFailureError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	contentType := resp.Header.Get("Content-Type")
	kind := domain.SniffKind(contentType, body)
	if kind == domain.DocumentKindArticleHTML {
		body = toUTF8(body, contentType)
	}

	return &domain.RawDocument{
		URL:        url,
		FinalURL:   finalURL,
		Kind:       kind,
		Body:       body,
		StatusCode: resp.StatusCode,
	}, nil
}

// toUTF8 transcodes an HTML body using the Content-Type charset, a meta
// declaration or content sniffing. Feeds and sitemaps keep their bytes; the
// XML decoders honor the encoding in the prolog.
func toUTF8(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}
