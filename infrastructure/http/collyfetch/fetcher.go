// ABOUTME: Alternate document fetcher built on gocolly/colly
// ABOUTME: Selected with FETCHER=colly; one collector per fetch keeps calls independent

package collyfetch

import (
	"context"
	"net/http"
	"time"

	"github.com/gocolly/colly"

	"newsfeed-canon/core/domain"
	coreerrors "newsfeed-canon/core/errors"
)

// Options configures the colly fetcher
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
}

// Fetcher implements interfaces.Fetcher with colly
type Fetcher struct {
	opts Options
}

// NewFetcher creates a colly-backed fetcher
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Fetcher{opts: opts}
}

func (f *Fetcher) collector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = !f.opts.RespectRobots
	c.SetRequestTimeout(f.opts.Timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	return c
}

// Fetch visits url once. Colly has no context support, so cancellation is
// only honored before the request starts.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, &coreerrors.FetchFailureError{URL: url, Err: err}
	}

	var (
		doc     *domain.RawDocument
		failure error
		status  int
	)

	c := f.collector()
	c.OnResponse(func(r *colly.Response) {
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		doc = &domain.RawDocument{
			URL:        url,
			FinalURL:   r.Request.URL.String(),
			Kind:       domain.SniffKind(contentType, r.Body),
			Body:       r.Body,
			StatusCode: r.StatusCode,
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		failure = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil && failure == nil {
		failure = err
	}

	if failure != nil || doc == nil {
		if status == 0 && failure == nil {
			status = http.StatusNoContent
		}
		return nil, &coreerrors.FetchFailureError{URL: url, StatusCode: status, Err: failure}
	}
	if doc.StatusCode < 200 || doc.StatusCode >= 300 {
		return nil, &coreerrors.FetchFailureError{URL: url, StatusCode: doc.StatusCode}
	}
	return doc, nil
}
