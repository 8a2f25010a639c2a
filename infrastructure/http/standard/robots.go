// ABOUTME: robots.txt checks for crawler fetches using temoto/robotstxt
// ABOUTME: Robots files are cached per host; unreachable robots files allow everything

package standard

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be fetched
type RobotsChecker struct {
	client *http.Client
	mu     sync.Mutex
	hosts  map[string]*robotstxt.RobotsData
}

// NewRobotsChecker creates a checker that fetches robots.txt with the given timeout
func NewRobotsChecker(timeout time.Duration) *RobotsChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RobotsChecker{
		client: &http.Client{Timeout: timeout},
		hosts:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether agent may fetch rawURL
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL, agent string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	data := r.robotsFor(ctx, u)
	if data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, agent)
}

func (r *RobotsChecker) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	data, ok := r.hosts[key]
	r.mu.Unlock()
	if ok {
		return data
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err == nil {
		var resp *http.Response
		resp, err = r.client.Do(req)
		if err == nil {
			data, err = robotstxt.FromResponse(resp)
			resp.Body.Close()
		}
	}
	if err != nil {
		data = nil
	}

	r.mu.Lock()
	r.hosts[key] = data
	r.mu.Unlock()
	return data
}
