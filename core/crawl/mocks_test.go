package crawl

import (
	"context"
	"net/http"
	"sync"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
)

// mockFetcher serves fixed bodies by URL
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string

	// onFetch runs before the page is served
	onFetch func(ctx context.Context, url string)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	if m.onFetch != nil {
		m.onFetch(ctx, url)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	body, ok := m.pages[url]
	if !ok {
		return nil, &errors.FetchFailureError{URL: url, StatusCode: http.StatusNotFound}
	}
	return &domain.RawDocument{URL: url, FinalURL: url, Body: []byte(body), StatusCode: http.StatusOK}, nil
}

// mockStore is an in-memory ArticleStore with a unique url key
type mockStore struct {
	mu       sync.Mutex
	articles map[string]*domain.CanonicalArticle

	existsFunc func(ctx context.Context, url string) (bool, error)
	saveFunc   func(ctx context.Context, a *domain.CanonicalArticle) (*domain.CanonicalArticle, error)
}

func newMockStore() *mockStore {
	return &mockStore{articles: map[string]*domain.CanonicalArticle{}}
}

func (m *mockStore) Exists(ctx context.Context, url string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, url)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.articles[url]
	return ok, nil
}

func (m *mockStore) Save(ctx context.Context, a *domain.CanonicalArticle) (*domain.CanonicalArticle, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[a.URL]; ok {
		return nil, errors.ErrDuplicateArticle
	}
	m.articles[a.URL] = a
	return a, nil
}

func (m *mockStore) get(url string) *domain.CanonicalArticle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.articles[url]
}

func (m *mockStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.articles)
}

// mockHints is a static HintSource
type mockHints map[string]*domain.SourceConfig

func (m mockHints) Hints(code string) (*domain.SourceConfig, bool) {
	cfg, ok := m[code]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// mockSentiment is a mock implementation of the SentimentAnalyzer interface
type mockSentiment struct {
	sentimentFunc func(ctx context.Context, text string) (float64, string, error)
}

func (m *mockSentiment) SentimentOf(ctx context.Context, text string) (float64, string, error) {
	return m.sentimentFunc(ctx, text)
}
