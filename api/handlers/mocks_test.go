package handlers

import (
	"context"
	"time"

	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/workers"
)

type mockJobQueue struct {
	submitFunc func(job *workers.CrawlJob) (string, error)
	cancelFunc func(id string) int
	statusFunc func(id string) (*workers.JobState, bool)
	submitted  []*workers.CrawlJob
}

func (m *mockJobQueue) Submit(job *workers.CrawlJob) (string, error) {
	m.submitted = append(m.submitted, job)
	if m.submitFunc != nil {
		return m.submitFunc(job)
	}
	return "job-1", nil
}

func (m *mockJobQueue) Cancel(id string) int {
	if m.cancelFunc != nil {
		return m.cancelFunc(id)
	}
	return 0
}

func (m *mockJobQueue) Status(id string) (*workers.JobState, bool) {
	if m.statusFunc != nil {
		return m.statusFunc(id)
	}
	return nil, false
}

type mockSources map[string]*domain.SourceConfig

func (m mockSources) Codes() []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	return codes
}

func (m mockSources) Hints(code string) (*domain.SourceConfig, bool) {
	cfg, ok := m[code]
	return cfg, ok
}

type mockArticles struct {
	listFunc func(ctx context.Context, source string, start, end time.Time) ([]*domain.CanonicalArticle, error)
}

func (m *mockArticles) ListBetween(ctx context.Context, source string, start, end time.Time) ([]*domain.CanonicalArticle, error) {
	return m.listFunc(ctx, source, start, end)
}

type mockLogger struct{}

func (mockLogger) Debug(string, map[string]interface{}) {}
func (mockLogger) Info(string, map[string]interface{})  {}
func (mockLogger) Warn(string, map[string]interface{})  {}
func (mockLogger) Error(string, map[string]interface{}) {}
