// ABOUTME: Functional options for the config resolver
// ABOUTME: Every collaborator except the store is optional

package config

import (
	"time"

	"newsfeed-canon/core/interfaces"
	"newsfeed-canon/pkg/featureflags"
)

// DefaultOracleCacheTTL is how long a validated oracle answer is reused.
const DefaultOracleCacheTTL = 24 * time.Hour

// Option configures a Resolver.
type Option func(*Resolver)

// WithOracle enables AI config generation. It is consulted only while the
// AIConfigEnabled flag is on, or always when no flag manager is set.
func WithOracle(oracle interfaces.ConfigOracle) Option {
	return func(r *Resolver) {
		r.oracle = oracle
	}
}

// WithFlags sets the feature flag manager used for the oracle gate and the list URL and prefix locks.
func WithFlags(flags featureflags.Manager) Option {
	return func(r *Resolver) {
		r.flags = flags
	}
}

// WithOracleCache memoizes validated oracle output in cache for ttl.
// A zero ttl keeps entries until they are overwritten.
func WithOracleCache(cache interfaces.Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.memo = cache
		r.memoTTL = ttl
	}
}

// WithSampleFetcher lets the resolver collect HTML samples for the oracle
// when the caller passes none.
func WithSampleFetcher(fetcher interfaces.Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = fetcher
	}
}

// WithLogger sets the logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}
