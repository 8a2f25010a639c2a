package discovery

import (
	"context"
	"net/http"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
)

// mockFetcher serves fixed bodies by URL and fails for anything else
type mockFetcher struct {
	pages map[string]string
	calls []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	m.calls = append(m.calls, url)
	body, ok := m.pages[url]
	if !ok {
		return nil, &errors.FetchFailureError{URL: url, StatusCode: http.StatusNotFound}
	}
	return &domain.RawDocument{
		URL:        url,
		FinalURL:   url,
		Kind:       domain.SniffKind("", []byte(body)),
		Body:       []byte(body),
		StatusCode: http.StatusOK,
	}, nil
}
