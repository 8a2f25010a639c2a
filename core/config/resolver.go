// ABOUTME: ConfigResolver produces a usable extraction config for a source
// ABOUTME: Stored config, then validated oracle output, then static hints; it never fails

package config

import (
	"context"
	"errors"
	"time"

	"newsfeed-canon/core/discovery"
	"newsfeed-canon/core/domain"
	"newsfeed-canon/core/interfaces"
	"newsfeed-canon/pkg/featureflags"
	htmlutil "newsfeed-canon/pkg/utils/html"
)

const (
	oracleKeyPrefix = "oracle_config:"

	// SampleLimit bounds each HTML sample handed to the oracle, in bytes.
	SampleLimit = 15000
)

// Resolver resolves source configs.
type Resolver struct {
	store   interfaces.ConfigStore
	oracle  interfaces.ConfigOracle
	flags   featureflags.Manager
	memo    interfaces.Cache
	memoTTL time.Duration
	fetcher interfaces.Fetcher
	logger  interfaces.Logger
}

// NewResolver creates a resolver persisting into store.
func NewResolver(store interfaces.ConfigStore, opts ...Option) *Resolver {
	r := &Resolver{store: store, logger: interfaces.NopLogger{}, memoTTL: DefaultOracleCacheTTL}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the config to crawl sourceCode with. In order:
//  1. the stored config, when structurally valid and forceRefresh is false
//  2. the oracle's answer for hints and samples, when it parses and validates
//  3. a copy of hints
//
// Whichever is used is written back to the store. Oracle and store failures
// are logged and recovered. samples may be nil, in which case they are
// collected when a sample fetcher is configured.
func (r *Resolver) Resolve(ctx context.Context, sourceCode string, hints *domain.SourceConfig, samples *interfaces.HTMLSamples, forceRefresh bool) *domain.SourceConfig {
	fields := map[string]interface{}{"source": sourceCode}

	if !forceRefresh && r.store != nil {
		cfg, err := r.store.Load(ctx, sourceCode)
		switch {
		case err == nil && cfg.Validate() == nil:
			cfg.SourceCode = sourceCode
			cfg.Sanitize()
			r.logger.Debug("Using stored source config", fields)
			return cfg
		case err == nil:
			r.logger.Warn("Stored source config is invalid", withErr(fields, cfg.Validate()))
		case !errors.Is(err, interfaces.ErrCacheMiss):
			r.logger.Warn("Loading stored source config failed", withErr(fields, err))
		}
	}

	if r.oracleEnabled(ctx) {
		if cfg := r.fromOracle(ctx, sourceCode, hints, samples, forceRefresh); cfg != nil {
			r.save(ctx, cfg)
			r.logger.Info("Using oracle source config", fields)
			return cfg
		}
	}

	cfg := hints.Clone()
	if cfg == nil {
		cfg = &domain.SourceConfig{}
	}
	cfg.SourceCode = sourceCode
	cfg.Sanitize()
	r.save(ctx, cfg)
	r.logger.Info("Using hint source config", fields)
	return cfg
}

func (r *Resolver) oracleEnabled(ctx context.Context) bool {
	if r.oracle == nil {
		return false
	}
	return r.flags == nil || r.flags.IsEnabled(ctx, featureflags.AIConfigEnabled)
}

// fromOracle returns a validated oracle config or nil.
func (r *Resolver) fromOracle(ctx context.Context, sourceCode string, hints *domain.SourceConfig, samples *interfaces.HTMLSamples, forceRefresh bool) *domain.SourceConfig {
	fields := map[string]interface{}{"source": sourceCode}
	memoKey := oracleKeyPrefix + sourceCode

	if r.memo != nil && !forceRefresh {
		if raw, err := r.memo.Get(ctx, memoKey); err == nil {
			if cfg, err := r.accept(ctx, sourceCode, hints, string(raw)); err == nil {
				return cfg
			}
		}
	}

	if samples == nil && r.fetcher != nil && hints != nil {
		collected := r.CollectSamples(ctx, hints)
		samples = &collected
	}
	if samples == nil {
		samples = &interfaces.HTMLSamples{}
	}

	raw, err := r.oracle.GenerateConfig(ctx, sourceCode, hints, *samples)
	if err != nil {
		r.logger.Warn("Config oracle failed", withErr(fields, err))
		return nil
	}
	cfg, err := r.accept(ctx, sourceCode, hints, raw)
	if err != nil {
		r.logger.Warn("Config oracle returned an unusable config", withErr(fields, err))
		return nil
	}
	if r.memo != nil {
		if err := r.memo.Set(ctx, memoKey, []byte(raw), r.memoTTL); err != nil {
			r.logger.Debug("Caching oracle answer failed", withErr(fields, err))
		}
	}
	return cfg
}

// accept parses raw oracle output, applies the hint locks and carry-overs and validates the result.
func (r *Resolver) accept(ctx context.Context, sourceCode string, hints *domain.SourceConfig, raw string) (*domain.SourceConfig, error) {
	cfg, err := ParseOracleConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.SourceCode = sourceCode
	if hints != nil {
		r.mergeHints(ctx, cfg, hints)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeHints keeps the discovery URLs locked to the hints unless the matching
// flag allows the oracle to change them, and carries hint-only settings the
// oracle left out.
func (r *Resolver) mergeHints(ctx context.Context, cfg, hints *domain.SourceConfig) {
	if hints.ListURL != "" && (cfg.ListURL == "" || !r.flagOn(ctx, featureflags.AllowAIListURL)) {
		cfg.ListURL = hints.ListURL
	}
	if hints.URLPrefix != "" && (cfg.URLPrefix == "" || !r.flagOn(ctx, featureflags.AllowAIURLPrefix)) {
		cfg.URLPrefix = hints.URLPrefix
	}
	if len(cfg.IncludePatterns) == 0 {
		cfg.IncludePatterns = append([]string(nil), hints.IncludePatterns...)
	}
	if len(cfg.ExcludePatterns) == 0 {
		cfg.ExcludePatterns = append([]string(nil), hints.ExcludePatterns...)
	}
	if cfg.Discovery.LinkSelector == "" {
		cfg.Discovery.LinkSelector = hints.Discovery.LinkSelector
	}
	if len(cfg.Discovery.ArticlePathSegments) == 0 {
		cfg.Discovery.ArticlePathSegments = append([]string(nil), hints.Discovery.ArticlePathSegments...)
	}
	if !cfg.PreferFeedDate {
		cfg.PreferFeedDate = hints.PreferFeedDate
	}
	if cfg.Article != nil && hints.Article != nil && len(cfg.Article.ParagraphSelectors) == 0 {
		cfg.Article.ParagraphSelectors = append([]string(nil), hints.Article.ParagraphSelectors...)
	}
}

func (r *Resolver) flagOn(ctx context.Context, flag featureflags.FeatureFlag) bool {
	return r.flags != nil && r.flags.IsEnabled(ctx, flag)
}

func (r *Resolver) save(ctx context.Context, cfg *domain.SourceConfig) {
	if r.store == nil || cfg.SourceCode == "" {
		return
	}
	if err := r.store.Save(ctx, cfg); err != nil {
		r.logger.Warn("Persisting source config failed", withErr(map[string]interface{}{"source": cfg.SourceCode}, err))
	}
}

// CollectSamples fetches the hint list page and the first article discovered
// from it, each clipped to SampleLimit bytes. Failures leave a sample empty.
func (r *Resolver) CollectSamples(ctx context.Context, hints *domain.SourceConfig) interfaces.HTMLSamples {
	var samples interfaces.HTMLSamples
	if r.fetcher == nil || hints == nil {
		return samples
	}
	listURL := hints.ListURL
	if listURL == "" {
		listURL = hints.BaseURL()
	}
	if listURL == "" {
		return samples
	}

	listDoc, err := r.fetcher.Fetch(ctx, listURL)
	if err != nil {
		r.logger.Debug("Sample list fetch failed", withErr(map[string]interface{}{"url": listURL}, err))
		return samples
	}
	samples.ListHTML = htmlutil.Clip(listDoc.Text(), SampleLimit)

	// Reuse the fetched list document instead of downloading it twice.
	reuse := interfaces.FetcherFunc(func(ctx context.Context, u string) (*domain.RawDocument, error) {
		if u == listURL {
			return listDoc, nil
		}
		return r.fetcher.Fetch(ctx, u)
	})
	probe := hints.Clone()
	probe.ListURL = listURL
	res, err := discovery.NewDiscoverer(reuse, r.logger).Discover(ctx, probe, nil)
	if err != nil || len(res.URLs) == 0 {
		return samples
	}

	articleDoc, err := r.fetcher.Fetch(ctx, res.URLs[0])
	if err != nil {
		r.logger.Debug("Sample article fetch failed", withErr(map[string]interface{}{"url": res.URLs[0]}, err))
		return samples
	}
	samples.ArticleHTML = htmlutil.Clip(articleDoc.Text(), SampleLimit)
	return samples
}

func withErr(fields map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}
