package config

import (
	"context"
	"net/http"
	"sync"
	"time"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/interfaces"
)

// mockCache is an in-memory Cache that records TTLs
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration

	getFunc func(ctx context.Context, key string) ([]byte, error)
	setFunc func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFunc != nil {
		return m.setFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// mockOracle is a mock implementation of the ConfigOracle interface
type mockOracle struct {
	generateFunc func(ctx context.Context, sourceCode string, hints *domain.SourceConfig, samples interfaces.HTMLSamples) (string, error)
	calls        int
	lastSamples  interfaces.HTMLSamples
}

func (m *mockOracle) GenerateConfig(ctx context.Context, sourceCode string, hints *domain.SourceConfig, samples interfaces.HTMLSamples) (string, error) {
	m.calls++
	m.lastSamples = samples
	if m.generateFunc != nil {
		return m.generateFunc(ctx, sourceCode, hints, samples)
	}
	return "", nil
}

// mockFetcher serves fixed bodies by URL
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
	return &domain.RawDocument{URL: url, FinalURL: url, Body: []byte(body), StatusCode: http.StatusOK}, nil
}
