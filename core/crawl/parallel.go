package crawl

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"newsfeed-canon/core/errors"
)

// DefaultParallelism is the number of sources crawled at once when none is given.
const DefaultParallelism = 2

// CrawlAll crawls the latest articles of every source, up to parallelism at a time.
// A failing source never stops the others; its error is recorded on its report.
// Reports are returned in the order of sourceCodes.
func (e *Engine) CrawlAll(ctx context.Context, sourceCodes []string, parallelism int) ([]*Report, error) {
	return e.runAll(ctx, sourceCodes, parallelism, func(ctx context.Context, code string) (*Report, error) {
		return e.CrawlLatest(ctx, code)
	})
}

// CrawlAllRange is CrawlAll for a publish-time window.
func (e *Engine) CrawlAllRange(ctx context.Context, sourceCodes []string, parallelism int, start, end time.Time) ([]*Report, error) {
	if start.After(end) {
		return nil, &errors.ValidationError{Field: "start", Message: "start must not be after end"}
	}
	return e.runAll(ctx, sourceCodes, parallelism, func(ctx context.Context, code string) (*Report, error) {
		return e.CrawlRange(ctx, code, start, end)
	})
}

func (e *Engine) runAll(ctx context.Context, sourceCodes []string, parallelism int, run func(context.Context, string) (*Report, error)) ([]*Report, error) {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	reports := make([]*Report, len(sourceCodes))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, code := range sourceCodes {
		i, code := i, code
		g.Go(func() error {
			if ctx.Err() != nil {
				reports[i] = &Report{SourceCode: code, Cancelled: true}
				return nil
			}
			report, err := run(ctx, code)
			if report == nil {
				report = &Report{SourceCode: code}
			}
			if err != nil {
				report.Error = err.Error()
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()
	return reports, ctx.Err()
}
