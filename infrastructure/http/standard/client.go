// ABOUTME: Standard HTTP client implementation with bounded retries and per-host politeness
// ABOUTME: Backs both the raw HTTPClient interface and the document Fetcher

package standard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsfeed-canon/core/interfaces"
)

const defaultUserAgent = "newsfeed-canon/1.0"

// Options configures a StandardHTTPClient
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	Retries     int
	RatePerHost float64
	Robots      *RobotsChecker
	// Logger, when set, logs every outgoing request at debug level
	Logger interfaces.Logger
}

// StandardHTTPClient implements the HTTPClient interface using the standard library
type StandardHTTPClient struct {
	client    *http.Client
	userAgent string
	retries   int
	limiter   *HostLimiter
	robots    *RobotsChecker
}

// NewStandardHTTPClient creates a client with the given timeout and default options
func NewStandardHTTPClient(timeout time.Duration) *StandardHTTPClient {
	return NewWithOptions(Options{Timeout: timeout, Retries: 2})
}

// NewWithOptions creates a client from explicit options
func NewWithOptions(opts Options) *StandardHTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	var transport http.RoundTripper = http.DefaultTransport
	if opts.Logger != nil {
		transport = &LoggingRoundTripper{Transport: transport, Logger: opts.Logger}
	}
	return &StandardHTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after %d redirects", len(via))
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		retries:   opts.Retries,
		limiter:   NewHostLimiter(opts.RatePerHost),
		robots:    opts.Robots,
	}
}

// Get performs an HTTP GET request, retrying transport errors and 5xx responses
func (c *StandardHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return wrapResponse(resp), nil
}

// Post performs a single HTTP POST request with a JSON body
func (c *StandardHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	return wrapResponse(resp), nil
}

// do sends a bodiless request with bounded retries and exponential backoff
func (c *StandardHTTPClient) do(ctx context.Context, method, url string, header http.Header) (*http.Response, error) {
	if c.robots != nil && !c.robots.Allowed(ctx, url, c.userAgent) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", url)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			// 100ms, 200ms, 400ms ...
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		// Success and 4xx are final
		if resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt == c.retries {
			return resp, nil
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil, lastErr
}

// httpResponse implements the Response interface
type httpResponse struct {
	statusCode int
	body       io.ReadCloser
	headers    http.Header
}

func wrapResponse(resp *http.Response) *httpResponse {
	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       resp.Body,
		headers:    resp.Header,
	}
}

// StatusCode returns the HTTP status code
func (r *httpResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the response body
func (r *httpResponse) Body() io.ReadCloser {
	return r.body
}

// Header returns the value of the specified header
func (r *httpResponse) Header(key string) string {
	return r.headers.Get(key)
}
