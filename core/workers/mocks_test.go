package workers

import (
	"context"
	"sync"
	"time"

	"newsfeed-canon/core/crawl"
)

// mockRunner is a mock implementation of the Runner interface
type mockRunner struct {
	mu           sync.Mutex
	crawlAllFunc func(ctx context.Context, codes []string, parallelism int) ([]*crawl.Report, error)
	rangeFunc    func(ctx context.Context, codes []string, parallelism int, start, end time.Time) ([]*crawl.Report, error)
	calls        int
}

func (m *mockRunner) CrawlAll(ctx context.Context, codes []string, parallelism int) ([]*crawl.Report, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.crawlAllFunc != nil {
		return m.crawlAllFunc(ctx, codes, parallelism)
	}
	reports := make([]*crawl.Report, len(codes))
	for i, code := range codes {
		reports[i] = &crawl.Report{SourceCode: code, Mode: crawl.ModeLatest}
	}
	return reports, nil
}

func (m *mockRunner) CrawlAllRange(ctx context.Context, codes []string, parallelism int, start, end time.Time) ([]*crawl.Report, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.rangeFunc != nil {
		return m.rangeFunc(ctx, codes, parallelism, start, end)
	}
	return nil, nil
}

// blockingRun waits for the job context and reports it as cancelled
func blockingRun(started chan<- struct{}) func(ctx context.Context, codes []string, parallelism int) ([]*crawl.Report, error) {
	return func(ctx context.Context, codes []string, parallelism int) ([]*crawl.Report, error) {
		started <- struct{}{}
		<-ctx.Done()
		return []*crawl.Report{{SourceCode: codes[0], Cancelled: true}}, ctx.Err()
	}
}
