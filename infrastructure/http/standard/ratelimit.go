// ABOUTME: Per-host request pacing for crawler fetches
// ABOUTME: One token bucket per host so parallel sources don't hammer a single site

package standard

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter hands out a rate.Limiter per host
type HostLimiter struct {
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewHostLimiter allows rps requests per second to each host. rps <= 0 disables pacing.
func NewHostLimiter(rps float64) *HostLimiter {
	if rps <= 0 {
		return &HostLimiter{perHost: rate.Inf}
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		perHost:  rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host may proceed or ctx ends
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if h == nil || h.perHost == rate.Inf {
		return nil
	}
	return h.limiter(hostOf(rawURL)).Wait(ctx)
}

func (h *HostLimiter) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(h.perHost, h.burst)
		h.limiters[host] = l
	}
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
